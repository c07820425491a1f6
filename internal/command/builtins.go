package command

import (
	"fmt"
	"strings"

	"github.com/parlance-sh/parlance/internal/session"
)

// CopyLastResponse copies the session's most recent assistant turn to the
// clipboard. The /copy builtin and the Shell's Ctrl+Y key binding both call
// this so the two surfaces share one behavior.
func CopyLastResponse(sess *session.Session, clip ClipboardAccessor) (string, error) {
	last, ok := sess.LastAssistantResponse()
	if !ok {
		return "nothing to copy yet", nil
	}
	if err := clip.Copy(last); err != nil {
		return "", err
	}
	return "copied last response to clipboard", nil
}

// RegisterBuiltins registers the commands every REPL carries regardless of
// which plugins are loaded: /help, /quit, /version, /copy, /clear, /agent,
// /stats, /spawn, /notify, /audit. version is the build-time program version
// string shown by /version.
func RegisterBuiltins(r *Registry, version string) {
	r.Register(Command{
		Name:        "help",
		Description: "list available commands",
		Pinned:      true,
		CLIExposed:  true,
		Handler: func(ctx Context) error {
			if ctx.Shell == nil {
				return nil
			}
			cmds := ctx.Registry.ListAll()
			var b strings.Builder
			for _, c := range cmds {
				fmt.Fprintf(&b, "/%-12s %s\n", c.Name, c.Description)
			}
			ctx.Shell.RenderInfo(strings.TrimRight(b.String(), "\n"))
			return nil
		},
	})

	r.Register(Command{
		Name:        "quit",
		Description: "exit the program",
		Pinned:      true,
		CLIExposed:  true,
		Handler: func(ctx Context) error {
			if ctx.RequestQuit != nil {
				ctx.RequestQuit()
			}
			return nil
		},
	})

	r.Register(Command{
		Name:        "version",
		Description: "print the program version",
		CLIExposed:  true,
		Handler: func(ctx Context) error {
			if ctx.Shell != nil {
				ctx.Shell.RenderInfo(version)
			}
			return nil
		},
	})

	r.Register(Command{
		Name:        "copy",
		Description: "copy the last assistant response to the clipboard",
		CLIExposed:  true,
		Handler: func(ctx Context) error {
			if ctx.Session == nil || ctx.Clipboard == nil {
				return nil
			}
			msg, err := CopyLastResponse(ctx.Session, ctx.Clipboard)
			if err != nil {
				return err
			}
			if ctx.Shell != nil {
				ctx.Shell.RenderInfo(msg)
			}
			return nil
		},
	})

	r.Register(Command{
		Name:        "clear",
		Description: "clear the conversation history and collapsed tool results",
		Handler: func(ctx Context) error {
			if ctx.Session != nil {
				ctx.Session.Clear()
			}
			if ctx.Shell != nil {
				ctx.Shell.ClearCollapsedResults()
			}
			return nil
		},
	})

	r.Register(Command{
		Name:        "agent",
		Description: "show the active agent",
		CLIExposed:  true,
		Handler: func(ctx Context) error {
			if ctx.Shell == nil || ctx.AgentInfo == nil {
				return nil
			}
			info := ctx.AgentInfo.ActiveAgentInfo()
			if !info.Present {
				ctx.Shell.RenderInfo("no active agent")
				return nil
			}
			ctx.Shell.RenderInfo(fmt.Sprintf("%s (model: %s)", info.Name, info.DefaultModel))
			return nil
		},
	})

	r.Register(Command{
		Name:        "stats",
		Description: "show cumulative token usage for this session",
		CLIExposed:  true,
		Handler: func(ctx Context) error {
			if ctx.Shell == nil || ctx.Session == nil {
				return nil
			}
			stats := ctx.Session.Stats()
			ctx.Shell.RenderInfo(fmt.Sprintf(
				"turns=%d input=%s output=%s total=%s",
				len(ctx.Session.GetHistory()),
				formatTokens(stats.TotalInput),
				formatTokens(stats.TotalOutput),
				formatTokens(stats.TotalInput+stats.TotalOutput),
			))
			return nil
		},
	})

	r.Register(Command{
		Name:        "spawn",
		Description: "run an isolated agent turn sharing no history with this session",
		CLIExposed:  true,
		Handler: func(ctx Context) error {
			if ctx.Shell == nil {
				return nil
			}
			prompt := strings.TrimSpace(ctx.Args)
			if prompt == "" {
				ctx.Shell.RenderInfo("usage: /spawn <prompt>")
				return nil
			}
			if ctx.Spawn == nil {
				ctx.Shell.RenderError("spawn is not available")
				return nil
			}
			result := ctx.Spawn(prompt)
			if result.PreHookErr != nil {
				return result.PreHookErr
			}
			if result.AgentErr != nil {
				return result.AgentErr
			}
			if result.Output != "" {
				ctx.Shell.RenderInfo(result.Output)
			}
			if result.PostHookErr != nil {
				ctx.Shell.RenderError(result.PostHookErr.Error())
			}
			return nil
		},
	})

	r.Register(Command{
		Name:        "notify",
		Description: "toggle desktop notifications (on|off|status)",
		CLIExposed:  true,
		Handler: func(ctx Context) error {
			return toggleHandler(ctx, ctx.Notifier)
		},
	})

	r.Register(Command{
		Name:        "audit",
		Description: "toggle audit logging (on|off|status)",
		CLIExposed:  true,
		Handler: func(ctx Context) error {
			return toggleHandler(ctx, ctx.Audit)
		},
	})
}

type toggle interface {
	SetEnabled(bool)
	Enabled() bool
}

func toggleHandler(ctx Context, t toggle) error {
	if ctx.Shell == nil || t == nil {
		return nil
	}
	switch strings.TrimSpace(ctx.Args) {
	case "on":
		t.SetEnabled(true)
	case "off":
		t.SetEnabled(false)
	case "", "status":
	default:
		ctx.Shell.RenderInfo("usage: on|off|status")
		return nil
	}
	if t.Enabled() {
		ctx.Shell.RenderInfo("enabled")
	} else {
		ctx.Shell.RenderInfo("disabled")
	}
	return nil
}

// formatTokens renders large counts compactly (e.g. 12.3k, 1.2M), matching
// the teacher's status-bar token formatting convention.
func formatTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
