// Package spawn implements the Session Spawner (spec §4.11): an isolated
// agent interaction that shares no history with the primary session.
package spawn

import (
	"context"
	"fmt"

	"github.com/parlance-sh/parlance/internal/apperrors"
	"github.com/parlance-sh/parlance/internal/notify"
	"github.com/parlance-sh/parlance/internal/plugin"
	"github.com/parlance-sh/parlance/internal/session"
	"github.com/parlance-sh/parlance/internal/stream"
)

// Config describes one spawn invocation.
type Config struct {
	Prompt   string
	PreHook  func(ctx context.Context) error
	PostHook func(ctx context.Context) error
	Factory  func(ctx context.Context) (plugin.AgentPlugin, error)
}

// Report summarizes the outcome of a spawn for the caller to display.
type Report struct {
	Turn        session.Turn
	PreHookErr  error
	AgentErr    error
	PostHookErr error
}

// Spawner runs isolated agent sessions. Per SPEC_FULL.md open question (a),
// each spawn gets its own private Notifier rather than sharing the primary
// one.
type Spawner struct {
	Shell func() stream.Shell
}

// New builds a Spawner. shellFactory returns a fresh Shell view suitable for
// rendering the spawned session's output (e.g. a sub-panel of the primary
// Shell).
func New(shellFactory func() stream.Shell) *Spawner {
	return &Spawner{Shell: shellFactory}
}

// Spawn executes cfg.PreHook synchronously. On failure it aborts and does
// not run PostHook. Otherwise it constructs a fresh agent via cfg.Factory,
// sends cfg.Prompt with empty history, drives a private Stream Processor
// whose resulting turn is returned in Report.Turn (no Session is written),
// and always runs PostHook afterward (even on agent failure); PostHook's
// failure is reported but never masks an earlier success.
func (s *Spawner) Spawn(ctx context.Context, cfg Config) Report {
	var report Report

	if cfg.PreHook != nil {
		if err := cfg.PreHook(ctx); err != nil {
			report.PreHookErr = fmt.Errorf("%w: %v", apperrors.ErrHookPreFailure, err)
			return report
		}
	}

	agent, err := cfg.Factory(ctx)
	if err != nil {
		report.AgentErr = fmt.Errorf("%w: %v", apperrors.ErrAgentFailure, err)
		s.runPostHook(ctx, cfg, &report)
		return report
	}

	events, err := agent.SendMessage(ctx, plugin.MessageContext{Message: cfg.Prompt})
	if err != nil {
		report.AgentErr = fmt.Errorf("%w: %v", apperrors.ErrAgentFailure, err)
		s.runPostHook(ctx, cfg, &report)
		return report
	}

	privateNotifier := notify.New(notify.DefaultConfig(), nil, nil, "spawn")
	var shell stream.Shell = noopShell{}
	if s.Shell != nil {
		if sh := s.Shell(); sh != nil {
			shell = sh
		}
	}
	proc := stream.New(shell, privateNotifier, nil, nil)
	report.Turn = proc.Run(ctx, events)

	s.runPostHook(ctx, cfg, &report)
	return report
}

func (s *Spawner) runPostHook(ctx context.Context, cfg Config, report *Report) {
	if cfg.PostHook == nil {
		return
	}
	if err := cfg.PostHook(ctx); err != nil {
		report.PostHookErr = fmt.Errorf("%w: %v", apperrors.ErrHookPostFailure, err)
	}
}

// noopShell discards all rendering; used when the caller provides no
// shell view for a spawn's private stream processor.
type noopShell struct{}

func (noopShell) StartSpinner(string)                       {}
func (noopShell) StopSpinner()                              {}
func (noopShell) StartLiveView()                            {}
func (noopShell) AppendLiveText(string)                      {}
func (noopShell) FinalizeLiveView(string)                    {}
func (noopShell) RenderToolUseStart(string, string)          {}
func (noopShell) RenderToolResultHeader(string, bool)        {}
func (noopShell) RenderToolResultBody(string, string)        {}
func (noopShell) RecordCollapsedResult(string)               {}
func (noopShell) RenderError(string)                         {}
func (noopShell) RenderInfo(string)                          {}
func (noopShell) ReadLine(ctx context.Context, prompt string) (string, error) {
	return "", context.Canceled
}
