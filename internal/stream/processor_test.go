package stream

import (
	"context"
	"testing"

	"github.com/parlance-sh/parlance/internal/session"
	"github.com/stretchr/testify/require"
)

type fakeShell struct {
	spinnerActive    bool
	liveActive       bool
	liveText         string
	errors           []string
	infos            []string
	collapsed        []string
	toolStarts       []string
	toolResultBodies []string
	readLineAnswers  []string
	readLineErr      error
}

func (f *fakeShell) StartSpinner(label string) { f.spinnerActive = true }
func (f *fakeShell) StopSpinner()              { f.spinnerActive = false }
func (f *fakeShell) StartLiveView()            { f.liveActive = true }
func (f *fakeShell) AppendLiveText(text string) {
	f.liveText += text
}
func (f *fakeShell) FinalizeLiveView(markdown string) { f.liveActive = false }
func (f *fakeShell) RenderToolUseStart(name, summary string) {
	f.toolStarts = append(f.toolStarts, name)
}
func (f *fakeShell) RenderToolResultHeader(name string, isError bool) {}
func (f *fakeShell) RenderToolResultBody(body string, hint string) {
	f.toolResultBodies = append(f.toolResultBodies, body)
}
func (f *fakeShell) RecordCollapsedResult(body string) {
	f.collapsed = append(f.collapsed, body)
}
func (f *fakeShell) RenderError(message string) { f.errors = append(f.errors, message) }
func (f *fakeShell) RenderInfo(message string)  { f.infos = append(f.infos, message) }
func (f *fakeShell) ReadLine(ctx context.Context, prompt string) (string, error) {
	if f.readLineErr != nil {
		return "", f.readLineErr
	}
	if len(f.readLineAnswers) == 0 {
		return "", nil
	}
	a := f.readLineAnswers[0]
	f.readLineAnswers = f.readLineAnswers[1:]
	return a, nil
}

func sendEvents(events []Event) <-chan Event {
	ch := make(chan Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return ch
}

func TestEmptyStreamProducesOneTurn(t *testing.T) {
	sh := &fakeShell{}
	p := New(sh, nil, nil, nil)
	turn := p.Run(context.Background(), sendEvents(nil))
	require.Equal(t, session.RoleAssistant, turn.Role)
	require.Equal(t, "", turn.Content)
	require.Empty(t, turn.ToolUses)
	require.Nil(t, turn.Usage)
	require.False(t, sh.spinnerActive)
	require.False(t, sh.liveActive)
}

func TestTextThenToolThenText(t *testing.T) {
	sh := &fakeShell{}
	p := New(sh, nil, nil, nil)
	events := []Event{
		{Kind: TextDelta, Text: "Hi "},
		{Kind: ToolUseStart, ToolName: "grep", ToolInput: map[string]any{"q": "x"}},
		{Kind: ToolResult, ToolName: "grep", ToolID: "id", ToolResult: "a\nb\nc\nd", ToolIsError: false},
		{Kind: TextDelta, Text: "done"},
		{Kind: Usage, TokenUsage: session.TokenUsage{InputTokens: 3, OutputTokens: 5}},
	}
	turn := p.Run(context.Background(), sendEvents(events))

	require.Equal(t, "Hi done", turn.Content)
	require.Len(t, turn.ToolUses, 1)
	require.NotNil(t, turn.Usage)
	require.Equal(t, 3, turn.Usage.InputTokens)
	require.Equal(t, 5, turn.Usage.OutputTokens)

	require.Len(t, sh.toolResultBodies, 1)
	require.Contains(t, sh.toolResultBodies[0], "a\nb\nc")
	require.NotContains(t, sh.toolResultBodies[0], "\nd")
	require.Equal(t, []string{"a\nb\nc\nd"}, sh.collapsed)
}

func TestFatalErrorMidStream(t *testing.T) {
	sh := &fakeShell{}
	p := New(sh, nil, nil, nil)
	events := []Event{
		{Kind: TextDelta, Text: "hello "},
		{Kind: Error, ErrorMessage: "boom", ErrorFatal: true},
		{Kind: TextDelta, Text: "unreachable"},
	}
	turn := p.Run(context.Background(), sendEvents(events))
	require.Equal(t, "hello ", turn.Content)
	require.Equal(t, []string{"boom"}, sh.errors)
}

func TestInputRequestReject(t *testing.T) {
	sh := &fakeShell{readLineAnswers: []string{"r"}}
	p := New(sh, nil, nil, nil)
	handle := make(chan any, 1)
	events := []Event{
		{Kind: TextDelta, Text: "Delete 3 files?"},
		{Kind: InputRequest, Prompt: "Approve?", InputType: InputApproval, Choices: []string{"Approve", "Reject"}, ResponseHandle: handle},
	}
	turn := p.Run(context.Background(), sendEvents(events))
	require.Equal(t, "Delete 3 files?", turn.Content)
	require.Contains(t, sh.infos, "Rejected. Agent response cancelled.")
	require.Equal(t, Rejected, <-handle)
}

func TestApprovalAcceptsAOr1CaseInsensitive(t *testing.T) {
	sh := &fakeShell{readLineAnswers: []string{"A"}}
	p := New(sh, nil, nil, nil)
	handle := make(chan any, 1)
	events := []Event{
		{Kind: InputRequest, Prompt: "ok?", InputType: InputApproval, Choices: []string{"Approve", "Reject"}, ResponseHandle: handle},
		{Kind: TextDelta, Text: "continuing"},
	}
	turn := p.Run(context.Background(), sendEvents(events))
	require.Equal(t, Approved, <-handle)
	require.Equal(t, "continuing", turn.Content)

	sh1 := &fakeShell{readLineAnswers: []string{"1"}}
	handle1 := make(chan any, 1)
	New(sh1, nil, nil, nil).Run(context.Background(), sendEvents([]Event{
		{Kind: InputRequest, Prompt: "ok?", InputType: InputApproval, Choices: []string{"Approve", "Reject"}, ResponseHandle: handle1},
	}))
	require.Equal(t, Approved, <-handle1)
}

func TestChoiceValidity(t *testing.T) {
	sh := &fakeShell{readLineAnswers: []string{"2"}}
	p := New(sh, nil, nil, nil)
	handle := make(chan any, 1)
	events := []Event{
		{Kind: InputRequest, Prompt: "pick", InputType: InputChoice, Choices: []string{"one", "two", "three"}, ResponseHandle: handle},
	}
	p.Run(context.Background(), sendEvents(events))
	got := <-handle
	co, ok := got.(ChoiceOutcome)
	require.True(t, ok)
	require.Equal(t, 1, co.Index)
	require.Equal(t, "two", co.Value)
}

func TestInterruptDuringStreamFinalizesPartialTurn(t *testing.T) {
	sh := &fakeShell{}
	p := New(sh, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event)
	go func() {
		events <- Event{Kind: TextDelta, Text: "partial "}
		cancel()
	}()
	turn := p.Run(ctx, events)
	require.Contains(t, turn.Content, "partial")
}
