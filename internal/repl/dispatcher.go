// Package repl implements the REPL Dispatcher (spec §4.8): the single
// cooperative loop that reads one line at a time, classifies it, and routes
// it to a command handler or the active agent.
package repl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/parlance-sh/parlance/internal/apperrors"
	"github.com/parlance-sh/parlance/internal/command"
	"github.com/parlance-sh/parlance/internal/fsctx"
	"github.com/parlance-sh/parlance/internal/parse"
	"github.com/parlance-sh/parlance/internal/plugin"
	"github.com/parlance-sh/parlance/internal/session"
	"github.com/parlance-sh/parlance/internal/stream"
)

// Dispatcher owns the main loop. Exactly one goroutine ever calls Run; the
// single-threaded model is what makes the stream processor's
// exactly-one-turn invariant (P-Finalization) hold without locking.
type Dispatcher struct {
	Shell     stream.Shell
	Session   *session.Session
	Registry  *command.Registry
	Plugins   *plugin.Registry
	Resolver  *fsctx.Resolver
	Processor *stream.Processor

	// CommandContext builds the non-owning references a Handler needs for
	// this invocation. It is a func, not a stored value, because Args
	// changes per call.
	CommandContext func(args string) command.Context

	// armInterrupt derives a context that ends when its parent ends or an
	// interrupt arrives. It is a field rather than a direct
	// signal.NotifyContext call so tests can substitute a deterministic
	// implementation; nil means "arm a real SIGINT listener". Production
	// callers leave it nil.
	armInterrupt func(context.Context) (context.Context, context.CancelFunc)

	quit bool
}

// RequestQuit is wired into every CommandContext's RequestQuit field so
// /quit (an ordinary command) can end the loop.
func (d *Dispatcher) RequestQuit() { d.quit = true }

func (d *Dispatcher) arm(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.armInterrupt != nil {
		return d.armInterrupt(ctx)
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

// Run reads lines from Shell until RequestQuit is called, ctx is cancelled,
// or ReadLine signals EOF/interrupt with no in-flight agent turn. Every
// per-line error is rendered and the loop continues (spec §7: no handler
// error terminates the REPL); a recover() boundary guards against a handler
// panic doing the same.
//
// ctx itself carries no interrupt handling of its own (main wires it to
// SIGTERM only, an unconditional shutdown); interrupt (Ctrl+C) is armed
// fresh for each blocking operation below via arm(), once for the idle
// prompt and, separately, once per in-flight agent turn (spec §4.8 point 4 /
// §5's cancellation semantics: an interrupt with a task in flight cancels
// only that task and the loop continues; an interrupt while idle ends it).
func (d *Dispatcher) Run(ctx context.Context) {
	for !d.quit {
		if ctx.Err() != nil {
			return
		}

		readCtx, stop := d.arm(ctx)
		line, err := d.Shell.ReadLine(readCtx, "> ")
		stop()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// EOF or interrupt with nothing in flight: end the session.
			return
		}

		result := parse.Parse(line)
		d.dispatch(ctx, result)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, result parse.Result) {
	defer func() {
		if r := recover(); r != nil {
			d.Shell.RenderError(fmt.Sprintf("internal error: %v", r))
		}
	}()

	switch result.Kind {
	case parse.Empty:
		return
	case parse.Command:
		d.dispatchCommand(result)
	case parse.FreeText:
		d.dispatchFreeText(ctx, result)
	}
}

func (d *Dispatcher) dispatchCommand(result parse.Result) {
	cmd, ok := d.Registry.Get(result.Name)
	if !ok {
		d.Shell.RenderError(fmt.Sprintf("%v: /%s", apperrors.ErrUnknownCommand, result.Name))
		return
	}
	cctx := d.CommandContext(result.Args)
	if err := cmd.Handler(cctx); err != nil {
		d.Shell.RenderError(err.Error())
	}
}

func (d *Dispatcher) dispatchFreeText(ctx context.Context, result parse.Result) {
	agent := d.Plugins.ActiveAgent()
	if agent == nil {
		d.Shell.RenderError(apperrors.ErrNoActiveAgent.Error())
		return
	}

	var fileCtxs []session.FileContext
	if d.Resolver != nil && len(result.Mentions) > 0 {
		fileCtxs = d.Resolver.Resolve(result.Mentions)
	}

	mc := plugin.MessageContext{
		Message:      result.Text,
		FileContexts: fileCtxs,
		History:      d.Session.GetHistory(),
	}

	d.Session.AddTurn(session.Turn{Role: session.RoleUser, Content: result.Text, FileContexts: fileCtxs})

	turnCtx, stop := d.arm(ctx)
	defer stop()

	events, err := agent.SendMessage(turnCtx, mc)
	if err != nil {
		d.Shell.RenderError(fmt.Sprintf("%v: %v", apperrors.ErrAgentFailure, err))
		return
	}

	turn := d.Processor.Run(turnCtx, events)
	d.Session.AddTurn(turn)

	if turnCtx.Err() != nil {
		d.Shell.RenderInfo("Interrupted. Agent response cancelled.")
	}
}
