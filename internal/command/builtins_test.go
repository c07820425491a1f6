package command

import (
	"errors"
	"testing"

	"github.com/parlance-sh/parlance/internal/session"
	"github.com/stretchr/testify/require"
)

type recordingShell struct {
	infos  []string
	errors []string
}

func (s *recordingShell) RenderInfo(msg string)  { s.infos = append(s.infos, msg) }
func (s *recordingShell) RenderError(msg string) { s.errors = append(s.errors, msg) }
func (s *recordingShell) ClearCollapsedResults() {}

type fakeToggle struct{ enabled bool }

func (f *fakeToggle) SetEnabled(v bool) { f.enabled = v }
func (f *fakeToggle) Enabled() bool     { return f.enabled }
func (f *fakeToggle) Disabled() bool    { return !f.enabled }

type fakeClipboard struct{ copied string }

func (f *fakeClipboard) Copy(text string) error { f.copied = text; return nil }

type fakeAgentInfo struct{ info AgentInfo }

func (f fakeAgentInfo) ActiveAgentInfo() AgentInfo { return f.info }

type fakeSpawner struct {
	prompt string
	result SpawnResult
}

func (f *fakeSpawner) Spawn(prompt string) SpawnResult {
	f.prompt = prompt
	return f.result
}

func TestHelpListsCommands(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, "v1.0.0")
	sh := &recordingShell{}
	c, _ := reg.Get("help")
	require.NoError(t, c.Handler(Context{Registry: reg, Shell: sh}))
	require.Len(t, sh.infos, 1)
	require.Contains(t, sh.infos[0], "/quit")
}

func TestQuitInvokesCallback(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, "v1.0.0")
	called := false
	c, _ := reg.Get("quit")
	require.NoError(t, c.Handler(Context{RequestQuit: func() { called = true }}))
	require.True(t, called)
}

func TestCopyUsesLastAssistantResponse(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, "v1.0.0")
	sess := session.New()
	sess.AddTurn(session.Turn{Role: session.RoleAssistant, Content: "hello"})
	cb := &fakeClipboard{}
	sh := &recordingShell{}
	c, _ := reg.Get("copy")
	require.NoError(t, c.Handler(Context{Session: sess, Clipboard: cb, Shell: sh}))
	require.Equal(t, "hello", cb.copied)
}

func TestAgentReportsPresence(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, "v1.0.0")
	sh := &recordingShell{}
	c, _ := reg.Get("agent")
	require.NoError(t, c.Handler(Context{Shell: sh, AgentInfo: fakeAgentInfo{AgentInfo{Present: true, Name: "ollama", DefaultModel: "llama3"}}}))
	require.Contains(t, sh.infos[0], "ollama")
}

func TestNotifyToggleOnOff(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, "v1.0.0")
	sh := &recordingShell{}
	ft := &fakeToggle{enabled: true}
	c, _ := reg.Get("notify")
	require.NoError(t, c.Handler(Context{Args: "off", Shell: sh, Notifier: ft}))
	require.False(t, ft.enabled)
	require.Equal(t, "disabled", sh.infos[0])
}

func TestSpawnRendersOutputAndUsesGivenPrompt(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, "v1.0.0")
	sh := &recordingShell{}
	sp := &fakeSpawner{result: SpawnResult{Output: "isolated reply"}}
	c, _ := reg.Get("spawn")
	require.NoError(t, c.Handler(Context{Args: "summarize this", Shell: sh, Spawn: sp}))
	require.Equal(t, "summarize this", sp.prompt)
	require.Contains(t, sh.infos, "isolated reply")
}

func TestSpawnWithoutArgsShowsUsage(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, "v1.0.0")
	sh := &recordingShell{}
	sp := &fakeSpawner{}
	c, _ := reg.Get("spawn")
	require.NoError(t, c.Handler(Context{Shell: sh, Spawn: sp}))
	require.Equal(t, "", sp.prompt)
	require.Contains(t, sh.infos[0], "usage")
}

func TestSpawnAgentErrorIsReturned(t *testing.T) {
	reg := NewRegistry()
	RegisterBuiltins(reg, "v1.0.0")
	sh := &recordingShell{}
	sp := &fakeSpawner{result: SpawnResult{AgentErr: errors.New("boom")}}
	c, _ := reg.Get("spawn")
	require.Error(t, c.Handler(Context{Args: "x", Shell: sh, Spawn: sp}))
}

func TestFormatTokensCompaction(t *testing.T) {
	require.Equal(t, "42", formatTokens(42))
	require.Equal(t, "1.5k", formatTokens(1500))
	require.Equal(t, "2.0M", formatTokens(2_000_000))
}
