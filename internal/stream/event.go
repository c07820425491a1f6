package stream

import "github.com/parlance-sh/parlance/internal/session"

// Kind tags the variant of an Event (StreamEventKind in spec §3).
type Kind int

const (
	TextDelta Kind = iota
	ToolUseStart
	ToolResult
	Usage
	Error
	InputRequest
)

// InputType enumerates input-request payload shapes.
type InputType string

const (
	InputApproval InputType = "approval"
	InputChoice   InputType = "choice"
	InputText     InputType = "text"
)

// ChoiceOutcome is the resolved value for an InputChoice request whose
// outcome is not a rejection.
type ChoiceOutcome struct {
	Index int
	Value string
}

// Rejected is the sentinel outcome value sent on a ResponseHandle when the
// user rejects an input-request (explicitly, or via interrupt).
const Rejected = "reject"

// Approved is the sentinel outcome value for an approved approval request.
const Approved = "approve"

// ResponseHandle is the one-shot sink the agent owns; the Stream Processor
// resolves it exactly once with the outcome before the next event is read.
type ResponseHandle chan<- any

// Event is the closed algebraic sum consumed by the Processor. Exactly the
// fields relevant to Kind are meaningful.
type Event struct {
	Kind Kind

	// TextDelta
	Text string

	// ToolUseStart / ToolResult
	ToolName    string
	ToolID      string
	ToolInput   map[string]any
	ToolResult  string
	ToolIsError bool

	// Usage
	TokenUsage session.TokenUsage

	// Error
	ErrorMessage string
	ErrorFatal   bool

	// InputRequest
	Prompt         string
	InputType      InputType
	Choices        []string
	ResponseHandle ResponseHandle
}
