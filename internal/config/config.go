// Package config loads the TOML configuration file described in spec §6,
// via github.com/pelletier/go-toml/v2.
package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// PluginsConfig is the [plugins] section.
type PluginsConfig struct {
	Paths []string `toml:"paths"`
}

// NotificationsConfig is the [notifications] section.
type NotificationsConfig struct {
	Enabled          bool    `toml:"enabled"`
	Sound            string  `toml:"sound"`
	ThresholdSeconds float64 `toml:"threshold_seconds"`
	DebounceSeconds  float64 `toml:"debounce_seconds"`
}

// Config mirrors the file shape in spec §6. Plugin-specific sections keyed
// by plugin name are passed through untouched as raw TOML trees.
type Config struct {
	Plugins       PluginsConfig       `toml:"plugins"`
	Notifications NotificationsConfig `toml:"notifications"`
	Extra         map[string]any      `toml:"-"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Notifications: NotificationsConfig{
			Enabled:          false,
			Sound:            "default",
			ThresholdSeconds: 60,
			DebounceSeconds:  5,
		},
	}
}

const defaultTemplate = `# Configuration for this REPL framework.

[plugins]
# paths = [ "example.module.plugin" ]
paths = []

[notifications]
enabled = false
sound = "default"
threshold_seconds = 60
debounce_seconds = 5

# Plugin-specific sections keyed by plugin name are passed through
# untouched, e.g.:
# [my_plugin]
# api_key = "..."
`

// Load reads path. A missing file causes a commented default template to be
// written and the Default() configuration to be returned. An empty or
// malformed file logs a warning through logger and returns Default().
func Load(path string, logger *log.Logger) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			writeDefaultTemplate(path, logger)
		} else if logger != nil {
			logger.Printf("config: unable to read %s: %v", path, err)
		}
		return Default()
	}
	if len(data) == 0 {
		if logger != nil {
			logger.Printf("config: %s is empty, using defaults", path)
		}
		return Default()
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		if logger != nil {
			logger.Printf("config: %s is malformed: %v", path, err)
		}
		return Default()
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		if logger != nil {
			logger.Printf("config: %s is malformed: %v", path, err)
		}
		return Default()
	}
	cfg = cfg.normalize()

	delete(raw, "plugins")
	delete(raw, "notifications")
	cfg.Extra = raw

	return cfg
}

func (c Config) normalize() Config {
	if c.Notifications.ThresholdSeconds == 0 {
		c.Notifications.ThresholdSeconds = 60
	}
	if c.Notifications.ThresholdSeconds < 60 {
		c.Notifications.ThresholdSeconds = 60
	}
	if c.Notifications.DebounceSeconds <= 0 {
		c.Notifications.DebounceSeconds = 5
	}
	if c.Notifications.Sound == "" {
		c.Notifications.Sound = "default"
	}
	return c
}

func writeDefaultTemplate(path string, logger *log.Logger) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		if logger != nil {
			logger.Printf("config: unable to create directory for %s: %v", path, err)
		}
		return
	}
	if err := os.WriteFile(path, []byte(defaultTemplate), 0o644); err != nil {
		if logger != nil {
			logger.Printf("config: unable to write default template to %s: %v", path, err)
		}
	}
}
