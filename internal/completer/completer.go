// Package completer implements a UI-neutral completion engine with an
// ESC-suppression lifecycle, decoupled from any terminal rendering library.
package completer

import "github.com/parlance-sh/parlance/internal/command"

type state int

const (
	normal state = iota
	suppressed
)

// Completer drives completion output for live input text. It holds no
// reference to a terminal; callers feed it the current input text per
// keystroke and render whatever it returns.
type Completer struct {
	registry       *command.Registry
	pinned         []string
	maxPinned      int
	st             state
	suppressedText string
}

// New builds a Completer bound to registry, with the configured pinned-name
// order and the maximum number of entries to show for a bare "/".
func New(registry *command.Registry, pinned []string, maxPinned int) *Completer {
	return &Completer{registry: registry, pinned: pinned, maxPinned: maxPinned, st: normal}
}

// Update feeds the current input text and returns the completion list to
// display. Output is a pure function of internal state and the live input.
func (c *Completer) Update(text string) []command.Command {
	switch c.st {
	case suppressed:
		if text == c.suppressedText {
			return nil
		}
		c.st = normal
	}
	return c.complete(text)
}

func (c *Completer) complete(text string) []command.Command {
	if len(text) == 0 || text[0] != '/' {
		return nil
	}
	if text == "/" {
		return c.registry.GetPinned(c.pinned, c.maxPinned)
	}
	return c.registry.Complete(text[1:])
}

// Dismiss transitions to Suppressed, scoped to the exact text at dismissal
// time. Any subsequent edit restores completions.
func (c *Completer) Dismiss(text string) {
	c.st = suppressed
	c.suppressedText = text
}
