package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Load(path, nil)
	require.Equal(t, Default().Notifications, cfg.Notifications)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[notifications]")
}

func TestLoadMalformedFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o644))

	cfg := Load(path, nil)
	require.Equal(t, Default().Notifications, cfg.Notifications)
}

func TestLoadValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[plugins]
paths = ["a.b.c"]

[notifications]
enabled = true
sound = "ping"
threshold_seconds = 90
debounce_seconds = 2

[myplugin]
key = "value"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := Load(path, nil)
	require.Equal(t, []string{"a.b.c"}, cfg.Plugins.Paths)
	require.True(t, cfg.Notifications.Enabled)
	require.Equal(t, "ping", cfg.Notifications.Sound)
	require.Equal(t, 90.0, cfg.Notifications.ThresholdSeconds)
	require.Contains(t, cfg.Extra, "myplugin")
}

func TestThresholdClampedToSixty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[notifications]
threshold_seconds = 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cfg := Load(path, nil)
	require.Equal(t, 60.0, cfg.Notifications.ThresholdSeconds)
}
