// Package tui is the default terminal Shell collaborator (spec §6), built on
// charmbracelet/bubbletea, bubbles, and lipgloss, the same stack the teacher
// uses for its own full-screen REPL view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parlance-sh/parlance/internal/completer"
)

// Shell implements stream.Shell (and the command package's ShellControl) by
// printing directly to stdout between one-shot Bubble Tea prompt programs,
// rather than running one persistent full-screen program for the entire
// session: the Stream Processor calls Shell methods synchronously from the
// dispatcher's single goroutine, outside of any Bubble Tea Update loop.
type Shell struct {
	completer *completer.Completer

	mu        sync.Mutex
	collapsed []string

	spinnerStop chan struct{}
	spinnerDone chan struct{}

	liveBuf strings.Builder

	copyLastResponse func()
}

// New builds a Shell bound to comp, which is fed the live input text on
// every keystroke of ReadLine to drive the completion popup.
func New(comp *completer.Completer) *Shell {
	return &Shell{completer: comp}
}

// SetCopyHandler wires the Ctrl+Y key binding to fn, which Boot builds from
// the session and clipboard collaborators once they exist (Shell itself
// owns neither). Called once, before the first ReadLine.
func (s *Shell) SetCopyHandler(fn func()) {
	s.copyLastResponse = fn
}

// StartSpinner renders an animated status line until StopSpinner.
func (s *Shell) StartSpinner(label string) {
	s.mu.Lock()
	if s.spinnerStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	s.spinnerStop = stop
	s.spinnerDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		sp := spinner.New()
		sp.Spinner = spinner.Dot
		frame := 0
		ticker := time.NewTicker(120 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				fmt.Print("\r\033[K")
				return
			case <-ticker.C:
				frames := sp.Spinner.Frames
				fmt.Printf("\r\033[K%s %s", frames[frame%len(frames)], label)
				frame++
			}
		}
	}()
}

// StopSpinner halts the spinner goroutine and clears its line.
func (s *Shell) StopSpinner() {
	s.mu.Lock()
	stop, done := s.spinnerStop, s.spinnerDone
	s.spinnerStop, s.spinnerDone = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// StartLiveView resets the accumulation buffer for a fresh streamed reply.
func (s *Shell) StartLiveView() {
	s.mu.Lock()
	s.liveBuf.Reset()
	s.mu.Unlock()
	fmt.Println(headerStyle.Render("agent"))
}

// AppendLiveText streams one delta straight to the terminal and into the
// accumulation buffer FinalizeLiveView will re-render as a finished block.
func (s *Shell) AppendLiveText(text string) {
	s.mu.Lock()
	s.liveBuf.WriteString(text)
	s.mu.Unlock()
	fmt.Print(text)
}

// FinalizeLiveView prints the accumulated reply inside a bordered block and
// deactivates the live view. The parameter is accepted as markdown per the
// Shell contract; this terminal lacks a Markdown renderer in the stack, so
// it is rendered as styled plain text, matching how the teacher's own
// message rendering works (lipgloss boxes, no Markdown engine).
func (s *Shell) FinalizeLiveView(markdown string) {
	fmt.Println()
	fmt.Println(liveBoxStyle.Render(markdown))
}

// RenderToolUseStart announces an in-flight tool invocation.
func (s *Shell) RenderToolUseStart(name, summary string) {
	fmt.Printf("%s %s\n", toolNameStyle.Render("▸ "+name), dimStyle.Render(summary))
}

// RenderToolResultHeader announces a tool's completion status.
func (s *Shell) RenderToolResultHeader(name string, isError bool) {
	if isError {
		fmt.Println(toolFailStyle.Render("✗ " + name + " failed"))
		return
	}
	fmt.Println(toolOKStyle.Render("✓ " + name))
}

// RenderToolResultBody prints body dim and verbatim, with hint appended
// when the body was truncated (Ctrl+O expands it via ExpandCollapsed).
func (s *Shell) RenderToolResultBody(body string, hint string) {
	fmt.Println(toolBodyStyle.Render(body))
	if hint != "" {
		fmt.Println(collapseHintSt.Render(hint))
	}
}

// RecordCollapsedResult stores a truncated tool result body for later
// expansion via Ctrl+O.
func (s *Shell) RecordCollapsedResult(body string) {
	s.mu.Lock()
	s.collapsed = append(s.collapsed, body)
	s.mu.Unlock()
}

// ExpandCollapsed prints the most recently recorded collapsed result in
// full, if any. Wired to Ctrl+O in the prompt's key handling.
func (s *Shell) ExpandCollapsed() {
	s.mu.Lock()
	if len(s.collapsed) == 0 {
		s.mu.Unlock()
		return
	}
	body := s.collapsed[len(s.collapsed)-1]
	s.mu.Unlock()
	fmt.Println(toolBodyStyle.Render(body))
}

// ClearCollapsedResults drops the collapsed-result buffer (spec §9: /clear
// also clears it).
func (s *Shell) ClearCollapsedResults() {
	s.mu.Lock()
	s.collapsed = nil
	s.mu.Unlock()
}

// RenderError prints message in the error style.
func (s *Shell) RenderError(message string) {
	fmt.Println(errorStyle.Render(message))
}

// RenderInfo prints message in the info style.
func (s *Shell) RenderInfo(message string) {
	fmt.Println(infoStyle.Render(message))
}

// ReadLine runs a one-shot Bubble Tea program rendering prompt, the live
// input line, and the completion popup, returning the committed line. A
// ctrl+c/ctrl+d interrupt, or ctx cancellation, returns context.Canceled.
func (s *Shell) ReadLine(ctx context.Context, prompt string) (string, error) {
	m := newPromptModel(prompt, s.completer, s.ExpandCollapsed, s.copyLastResponse)
	program := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return "", err
	}
	pm, ok := final.(promptModel)
	if !ok || pm.canceled {
		return "", context.Canceled
	}
	return pm.value, nil
}
