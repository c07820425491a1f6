package procplugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadManifestMissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	m, err := loadManifest(filepath.Join(dir, "no-such-plugin"))
	require.NoError(t, err)
	require.Empty(t, m.Args)
	require.Empty(t, m.Env)
}

func TestLoadManifestParsesArgsAndEnv(t *testing.T) {
	dir := t.TempDir()
	cmdPath := filepath.Join(dir, "my-plugin")
	yamlContent := "args:\n  - --verbose\nenv:\n  API_KEY: secret\n"
	require.NoError(t, os.WriteFile(cmdPath+".plugin.yaml", []byte(yamlContent), 0o644))

	m, err := loadManifest(cmdPath)
	require.NoError(t, err)
	require.Equal(t, []string{"--verbose"}, m.Args)
	require.Equal(t, "secret", m.Env["API_KEY"])
}

func TestApplyManifestMergesArgsAndEnv(t *testing.T) {
	cfg := Config{Command: "my-plugin", Args: []string{"--base"}}
	m := manifest{Args: []string{"--extra"}, Env: map[string]string{"FOO": "bar"}}

	merged := applyManifest(cfg, m)
	require.Equal(t, []string{"--base", "--extra"}, merged.Args)
	require.Equal(t, []string{"FOO=bar"}, merged.Env)
}
