package procplugin

import (
	"os"

	"gopkg.in/yaml.v3"
)

// manifest is an optional sidecar file living next to a plugin binary at
// "<command>.plugin.yaml". It lets a plugin declare launch-time arguments
// and environment variables without the workspace config file (spec §6)
// needing to know about them.
type manifest struct {
	Args []string          `yaml:"args"`
	Env  map[string]string `yaml:"env"`
}

// loadManifest reads the sidecar file for cmdPath. A missing file is not an
// error: most plugins have none.
func loadManifest(cmdPath string) (manifest, error) {
	data, err := os.ReadFile(cmdPath + ".plugin.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			return manifest{}, nil
		}
		return manifest{}, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return manifest{}, err
	}
	return m, nil
}

// applyManifest merges m into cfg, appending manifest args after the
// caller-supplied ones and filling Env with KEY=VALUE pairs.
func applyManifest(cfg Config, m manifest) Config {
	if len(m.Args) > 0 {
		cfg.Args = append(append([]string{}, cfg.Args...), m.Args...)
	}
	for k, v := range m.Env {
		cfg.Env = append(cfg.Env, k+"="+v)
	}
	return cfg
}
