package command

import "github.com/parlance-sh/parlance/internal/session"

// NotifierToggle is the slice of the Notifier a command handler needs to
// flip its runtime-togglable enabled state without touching configuration
// storage (spec §4.9).
type NotifierToggle interface {
	SetEnabled(bool)
	Enabled() bool
}

// AuditToggle lets a command handler report whether auditing is currently
// disabled (e.g. after an I/O error) and flip its runtime toggle.
type AuditToggle interface {
	Disabled() bool
	SetEnabled(bool)
	Enabled() bool
}

// AgentInfo describes the active agent for introspection commands like
// /agent.
type AgentInfo struct {
	Present      bool
	Name         string
	DefaultModel string
}

// AgentInfoProvider exposes read-only active-agent status without the
// command package needing to import the plugin package (which itself
// imports command for the Command type).
type AgentInfoProvider interface {
	ActiveAgentInfo() AgentInfo
}

// ClipboardAccessor is the subset of the Clipboard collaborator a command
// handler needs.
type ClipboardAccessor interface {
	Copy(text string) error
}

// ShellControl is the subset of Shell a command handler may render through
// or reset directly (the collapsed-results buffer is shell-owned UI state,
// spec §9).
type ShellControl interface {
	RenderInfo(message string)
	RenderError(message string)
	ClearCollapsedResults()
}

// SpawnResult summarizes an isolated agent invocation (spec §4.11) for
// display by the command that triggered it. It mirrors spawn.Report's
// fields without the command package importing internal/spawn, which
// would cycle back through internal/plugin.
type SpawnResult struct {
	Output      string
	PreHookErr  error
	AgentErr    error
	PostHookErr error
}

// SpawnInvoker runs one isolated agent turn sharing no history with the
// primary session.
type SpawnInvoker interface {
	Spawn(prompt string) SpawnResult
}

// Context carries the non-owning references a Handler needs, per spec
// §4.8 ("build a CommandContext carrying references to session, registry,
// plugin registry, shell, notifier, audit logger").
type Context struct {
	Args string

	Session   *session.Session
	Registry  *Registry
	Notifier  NotifierToggle
	Audit     AuditToggle
	AgentInfo AgentInfoProvider
	Clipboard ClipboardAccessor
	Shell     ShellControl
	Spawn     SpawnInvoker

	// RequestQuit signals the REPL Dispatcher to end its loop after this
	// handler returns. /quit is an ordinary command that calls this.
	RequestQuit func()
}
