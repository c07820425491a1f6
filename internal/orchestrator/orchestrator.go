// Package orchestrator implements the boot sequence (spec §4.12): wiring
// every collaborator together and handing a ready-to-run Dispatcher back to
// main.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/parlance-sh/parlance/internal/audit"
	"github.com/parlance-sh/parlance/internal/clipboard"
	"github.com/parlance-sh/parlance/internal/command"
	"github.com/parlance-sh/parlance/internal/completer"
	"github.com/parlance-sh/parlance/internal/config"
	"github.com/parlance-sh/parlance/internal/fsctx"
	"github.com/parlance-sh/parlance/internal/notify"
	"github.com/parlance-sh/parlance/internal/ollamaagent"
	"github.com/parlance-sh/parlance/internal/plugin"
	"github.com/parlance-sh/parlance/internal/plugin/procplugin"
	"github.com/parlance-sh/parlance/internal/repl"
	"github.com/parlance-sh/parlance/internal/session"
	"github.com/parlance-sh/parlance/internal/spawn"
	"github.com/parlance-sh/parlance/internal/stream"
	"github.com/parlance-sh/parlance/internal/telemetry"
	"github.com/parlance-sh/parlance/internal/tui"
)

const (
	defaultMaxFileSize = 1 << 20 // 1 MiB, spec §4.2
	defaultMaxPinned   = 8
	appName            = "parlance"
)

// Options configures one Boot call. Zero values pick sensible defaults.
type Options struct {
	Workspace  string
	ConfigPath string
	AuditDir   string
	Version    string
	OllamaURL  string
	OllamaModel string
	Logger     *log.Logger
}

// Boot wires every collaborator and returns a ready Dispatcher plus a
// cleanup func the caller must run (via defer) on exit.
func Boot(opts Options) (*repl.Dispatcher, func(), error) {
	if opts.Workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve workspace: %w", err)
		}
		opts.Workspace = wd
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = filepath.Join(opts.Workspace, ".parlance.toml")
	}
	if opts.AuditDir == "" {
		opts.AuditDir = filepath.Join(opts.Workspace, ".parlance", "audit")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[parlance] ", log.LstdFlags|log.Lmicroseconds)
	}
	logger := opts.Logger

	cfg := config.Load(opts.ConfigPath, logger)

	sess := session.New()
	cmdReg := command.NewRegistry()
	command.RegisterBuiltins(cmdReg, opts.Version)

	pluginReg := plugin.NewRegistry(logger)

	notifierCfg := notify.Config{
		Enabled:          cfg.Notifications.Enabled,
		Sound:            cfg.Notifications.Sound,
		ThresholdSeconds: cfg.Notifications.ThresholdSeconds,
		DebounceSeconds:  cfg.Notifications.DebounceSeconds,
	}
	notifier := notify.New(notifierCfg, notify.NewDesktopBackend(), nil, appName)

	auditLogger := audit.Open(opts.AuditDir, logger)
	telemetryLogger := &telemetry.Logger{L: logger}

	comp := completer.New(cmdReg, []string{"help", "quit"}, defaultMaxPinned)
	shell := tui.New(comp)

	resolver := fsctx.New(opts.Workspace, defaultMaxFileSize)

	loadPlugins(context.Background(), pluginReg, cmdReg, cfg, logger)

	if pluginReg.ActiveAgent() == nil {
		agent := ollamaagent.New(opts.OllamaURL, opts.OllamaModel)
		if err := pluginReg.Register(context.Background(), agent, cmdReg); err != nil {
			logger.Printf("default agent registration failed: %v", err)
		}
	}

	proc := stream.New(shell, notifier, auditLogger, telemetryLogger)

	d := &repl.Dispatcher{
		Shell:     shell,
		Session:   sess,
		Registry:  cmdReg,
		Plugins:   pluginReg,
		Resolver:  resolver,
		Processor: proc,
	}

	info := agentInfoAdapter{registry: pluginReg}
	cb := clipboard.New()

	// Ctrl+Y reuses the same clipboard path as the /copy builtin (spec
	// §4.8's Shell contract).
	shell.SetCopyHandler(func() {
		msg, err := command.CopyLastResponse(sess, cb)
		if err != nil {
			shell.RenderError(err.Error())
			return
		}
		shell.RenderInfo(msg)
	})

	// The Session Spawner (spec §4.11) renders into the primary Shell but
	// uses a private Notifier and never writes to sess.
	spawner := spawn.New(func() stream.Shell { return shell })
	spawnIvk := spawnAdapter{spawner: spawner, plugins: pluginReg}

	d.CommandContext = func(args string) command.Context {
		return command.Context{
			Args:        args,
			Session:     sess,
			Registry:    cmdReg,
			Notifier:    notifier,
			Audit:       auditLogger,
			AgentInfo:   info,
			Clipboard:   cb,
			Shell:       shell,
			Spawn:       spawnIvk,
			RequestQuit: d.RequestQuit,
		}
	}

	shell.RenderInfo(banner(opts.Version, pluginReg))

	cleanup := func() {
		auditLogger.Stop()
	}
	return d, cleanup, nil
}

func banner(version string, reg *plugin.Registry) string {
	agent := "no active agent"
	if a := reg.ActiveAgent(); a != nil {
		agent = a.Name() + " (" + a.DefaultModel() + ")"
	}
	return fmt.Sprintf("parlance %s — %s. Type /help for commands.", version, agent)
}

// loadPlugins launches every configured plugin path as an out-of-process
// JSON-RPC plugin (spec §4.6's loader protocol). A path that fails to
// launch is logged and skipped; it never aborts boot.
func loadPlugins(ctx context.Context, reg *plugin.Registry, cmdReg *command.Registry, cfg config.Config, logger *log.Logger) {
	for _, path := range cfg.Plugins.Paths {
		name := filepath.Base(path)
		extra, _ := cfg.Extra[name].(map[string]any)
		p, err := procplugin.Launch(ctx, procplugin.Config{Command: path, ModuleID: path, ExtraConfig: extra})
		if err != nil {
			logger.Printf("plugin %s: launch failed, skipping: %v", path, err)
			continue
		}
		if err := reg.Register(ctx, p, cmdReg); err != nil {
			logger.Printf("plugin %s: registration failed, skipping: %v", path, err)
		}
	}
}
