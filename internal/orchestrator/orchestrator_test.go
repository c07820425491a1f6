package orchestrator

import (
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBootWiresDefaultAgentAndBuiltins(t *testing.T) {
	dir := t.TempDir()
	d, cleanup, err := Boot(Options{
		Workspace:  dir,
		ConfigPath: filepath.Join(dir, "config.toml"),
		AuditDir:   filepath.Join(dir, "audit"),
		Version:    "test-version",
		Logger:     log.New(discardWriter{}, "", 0),
	})
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, d.Plugins.ActiveAgent())
	require.Equal(t, "ollama", d.Plugins.ActiveAgent().Name())

	_, ok := d.Registry.Get("help")
	require.True(t, ok)

	ctx := d.CommandContext("")
	require.NotNil(t, ctx.Session)
	require.NotNil(t, ctx.AgentInfo)
	info := ctx.AgentInfo.ActiveAgentInfo()
	require.True(t, info.Present)

	require.NotNil(t, ctx.Spawn)
	_, ok = d.Registry.Get("spawn")
	require.True(t, ok)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
