// Package stream implements the agent stream processor: a cooperative state
// machine that consumes asynchronous StreamEvents, drives live UI updates,
// resolves interactive input-request pauses, and produces exactly one
// ConversationTurn per stream (spec §4.7).
package stream

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/parlance-sh/parlance/internal/audit"
	"github.com/parlance-sh/parlance/internal/notify"
	"github.com/parlance-sh/parlance/internal/session"
	"github.com/parlance-sh/parlance/internal/telemetry"
)

// AuditSink is the subset of *audit.Logger the Processor writes to.
type AuditSink interface {
	Log(t audit.Type, content string)
}

// TelemetrySink is the subset of telemetry.Telemetry the Processor emits
// through.
type TelemetrySink interface {
	Emit(event telemetry.Event)
}

// Processor drives one stream at a time. It is not safe for concurrent use;
// the cooperative model guarantees exactly one stream is ever in flight.
type Processor struct {
	Shell     Shell
	Notifier  *notify.Notifier
	Audit     AuditSink
	Telemetry TelemetrySink
}

// New builds a Processor. Notifier, Audit, and Telemetry may be nil.
func New(shell Shell, notifier *notify.Notifier, auditSink AuditSink, telemetrySink TelemetrySink) *Processor {
	return &Processor{Shell: shell, Notifier: notifier, Audit: auditSink, Telemetry: telemetrySink}
}

type localState struct {
	accumText        string
	toolUses         []session.ToolUse
	usageTotal       session.TokenUsage
	spinnerActive    bool
	liveActive       bool
	firstContentSeen bool
}

// Run consumes events until the channel closes, a fatal error event arrives,
// or ctx is cancelled, then returns the single resulting ConversationTurn.
// P-Finalization: exactly one turn is produced, including for the empty
// stream (events closed with nothing sent).
func (p *Processor) Run(ctx context.Context, events <-chan Event) session.Turn {
	st := &localState{}

	if p.Notifier != nil {
		p.Notifier.MarkTurnStart()
	}
	p.startSpinner(st, "Thinking…")

	p.emitTelemetry(telemetry.EventStreamStart, "", nil)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			if p.handleEvent(ctx, st, ev) {
				break loop
			}
		}
	}

	return p.finalize(st)
}

// handleEvent processes one event and reports whether the stream should
// terminate immediately (fatal error, or rejected input-request).
func (p *Processor) handleEvent(ctx context.Context, st *localState, ev Event) (terminate bool) {
	switch ev.Kind {
	case TextDelta:
		p.onFirstContent(st)
		if !st.liveActive {
			p.Shell.StartLiveView()
			st.liveActive = true
		}
		p.Shell.AppendLiveText(ev.Text)
		st.accumText += ev.Text

	case ToolUseStart:
		p.onFirstContent(st)
		if st.liveActive {
			p.Shell.FinalizeLiveView(st.accumText)
			st.liveActive = false
		}
		summary := formatToolInputSummary(ev.ToolInput)
		p.Shell.RenderToolUseStart(ev.ToolName, summary)

	case ToolResult:
		p.renderToolResult(st, ev)
		p.emitTelemetry(telemetry.EventToolInvoked, ev.ToolName, map[string]any{"is_error": ev.ToolIsError})
		if p.Notifier != nil {
			p.Notifier.Queue("Tool completed: " + ev.ToolName)
		}
		if p.Audit != nil {
			p.Audit.Log(audit.TypeToolResult, ev.ToolName+": "+ev.ToolResult)
		}

	case Usage:
		st.usageTotal.InputTokens += ev.TokenUsage.InputTokens
		st.usageTotal.OutputTokens += ev.TokenUsage.OutputTokens

	case Error:
		if st.spinnerActive {
			p.Shell.StopSpinner()
			st.spinnerActive = false
		}
		p.Shell.RenderError(ev.ErrorMessage)
		if p.Notifier != nil {
			p.Notifier.Queue(truncate80(ev.ErrorMessage))
		}
		if ev.ErrorFatal {
			return true
		}

	case InputRequest:
		return p.handleInputRequest(ctx, st, ev)
	}
	return false
}

func (p *Processor) onFirstContent(st *localState) {
	if st.firstContentSeen {
		return
	}
	st.firstContentSeen = true
	if st.spinnerActive {
		p.Shell.StopSpinner()
		st.spinnerActive = false
	}
}

func (p *Processor) renderToolResult(st *localState, ev Event) {
	p.Shell.RenderToolResultHeader(ev.ToolName, ev.ToolIsError)

	lines := splitLines(ev.ToolResult)
	if ev.ToolIsError || len(lines) <= 3 {
		p.Shell.RenderToolResultBody(ev.ToolResult, "")
	} else {
		shown := strings.Join(lines[:3], "\n")
		hint := collapseHint(len(lines) - 3)
		p.Shell.RenderToolResultBody(shown, hint)
		p.Shell.RecordCollapsedResult(ev.ToolResult)
	}

	st.toolUses = append(st.toolUses, session.ToolUse{
		Name:    ev.ToolName,
		Input:   nil,
		Result:  ev.ToolResult,
		IsError: ev.ToolIsError,
	})
}

// handleInputRequest dispatches to the user-input collector per input_type,
// resolves the response handle exactly once, and reports whether the
// stream should terminate (a rejected outcome ends the stream).
func (p *Processor) handleInputRequest(ctx context.Context, st *localState, ev Event) bool {
	if ev.ResponseHandle == nil {
		// log warning; continue
		log.Printf("stream: input-request %q has no response handle; ignoring it", ev.Prompt)
		return false
	}

	if st.spinnerActive {
		p.Shell.StopSpinner()
		st.spinnerActive = false
	}
	if st.liveActive {
		p.Shell.FinalizeLiveView(st.accumText)
		st.liveActive = false
	}

	p.emitTelemetry(telemetry.EventInputRequested, ev.Prompt, map[string]any{"input_type": string(ev.InputType)})

	outcome, rejected := p.collectOutcome(ctx, ev)
	ev.ResponseHandle <- outcome
	p.emitTelemetry(telemetry.EventInputResolved, ev.Prompt, map[string]any{"rejected": rejected})

	if rejected {
		p.Shell.RenderInfo("Rejected. Agent response cancelled.")
		return true
	}

	p.startSpinner(st, "Thinking…")
	return false
}

func (p *Processor) collectOutcome(ctx context.Context, ev Event) (outcome any, rejected bool) {
	switch ev.InputType {
	case InputApproval:
		return p.collectApproval(ctx, ev.Prompt)
	case InputChoice:
		return p.collectChoice(ctx, ev.Prompt, ev.Choices)
	default:
		return p.collectText(ctx, ev.Prompt)
	}
}

func (p *Processor) collectApproval(ctx context.Context, prompt string) (any, bool) {
	for {
		line, err := p.Shell.ReadLine(ctx, prompt)
		if err != nil {
			return Rejected, true
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "1":
			return Approved, false
		case "r", "2":
			return Rejected, true
		}
	}
}

func (p *Processor) collectChoice(ctx context.Context, prompt string, choices []string) (any, bool) {
	for {
		line, err := p.Shell.ReadLine(ctx, prompt)
		if err != nil {
			return Rejected, true
		}
		trimmed := strings.TrimSpace(line)
		if strings.EqualFold(trimmed, "r") {
			return Rejected, true
		}
		n, convErr := strconv.Atoi(trimmed)
		if convErr != nil || n < 1 || n > len(choices) {
			continue
		}
		return ChoiceOutcome{Index: n - 1, Value: choices[n-1]}, false
	}
}

func (p *Processor) collectText(ctx context.Context, prompt string) (any, bool) {
	for {
		line, err := p.Shell.ReadLine(ctx, prompt)
		if err != nil {
			return Rejected, true
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "r" || trimmed == "/reject" {
			return Rejected, true
		}
		if trimmed == "" {
			continue
		}
		return line, false
	}
}

func (p *Processor) startSpinner(st *localState, label string) {
	p.Shell.StartSpinner(label)
	st.spinnerActive = true
}

func (p *Processor) finalize(st *localState) session.Turn {
	if st.spinnerActive {
		p.Shell.StopSpinner()
		st.spinnerActive = false
	}
	if st.liveActive {
		p.Shell.FinalizeLiveView(st.accumText)
		st.liveActive = false
	}

	var usage *session.TokenUsage
	if st.usageTotal.InputTokens != 0 || st.usageTotal.OutputTokens != 0 {
		u := st.usageTotal
		usage = &u
	}

	turn := session.Turn{
		Role:     session.RoleAssistant,
		Content:  st.accumText,
		ToolUses: st.toolUses,
		Usage:    usage,
	}

	if p.Notifier != nil {
		p.Notifier.Queue(finalSnippet(st.accumText))
		p.Notifier.Flush()
	}
	if p.Audit != nil {
		p.Audit.Log(audit.TypeAgent, finalSnippet(st.accumText))
	}
	p.emitTelemetry(telemetry.EventStreamFinish, "", map[string]any{"tool_uses": len(st.toolUses)})

	return turn
}

func (p *Processor) emitTelemetry(t telemetry.EventType, message string, meta map[string]any) {
	if p.Telemetry == nil {
		return
	}
	p.Telemetry.Emit(telemetry.Event{Type: t, Message: message, Metadata: meta, Timestamp: time.Now()})
}
