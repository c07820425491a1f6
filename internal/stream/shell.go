package stream

import "context"

// Shell is the subset of the external Shell collaborator (spec §6) the
// Stream Processor drives directly. The default terminal implementation
// lives in internal/tui.
type Shell interface {
	StartSpinner(label string)
	StopSpinner()

	StartLiveView()
	AppendLiveText(text string)
	// FinalizeLiveView renders the accumulated text as markdown and
	// deactivates the live view.
	FinalizeLiveView(markdown string)

	RenderToolUseStart(name, summary string)
	RenderToolResultHeader(name string, isError bool)
	// RenderToolResultBody renders body verbatim, dim, with markup
	// interpretation disabled. hint is non-empty only when the body was
	// truncated.
	RenderToolResultBody(body string, hint string)
	RecordCollapsedResult(body string)

	RenderError(message string)
	RenderInfo(message string)

	// ReadLine prompts for one line of raw input. It returns an error
	// (wrapping context.Canceled or an EOF/interrupt signal) when the user
	// interrupts the read instead of answering.
	ReadLine(ctx context.Context, prompt string) (string, error)
}
