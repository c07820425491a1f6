// Package parse classifies a raw input line into exactly one of Empty,
// ParsedCommand, or ParsedFreeText, and extracts @-mentions from free text.
package parse

import "strings"

// Kind tags the variant of a Result.
type Kind int

const (
	Empty Kind = iota
	Command
	FreeText
)

// Result is the closed algebraic sum produced by Parse. Exactly one of the
// Kind-specific fields is meaningful, selected by Kind.
type Result struct {
	Kind Kind

	// Command fields.
	Name string
	Args string

	// FreeText fields.
	Text     string
	Mentions []string
}

// Parse classifies a single raw input line. It is a pure total function.
func Parse(line string) Result {
	trimmed := strings.TrimLeft(line, " \t\r\n")
	if strings.TrimSpace(trimmed) == "" {
		return Result{Kind: Empty}
	}

	if cmd, ok := parseCommand(trimmed); ok {
		return cmd
	}

	return Result{
		Kind:     FreeText,
		Text:     line,
		Mentions: extractMentions(line),
	}
}

// parseCommand recognizes "/" followed immediately by >=1 non-whitespace
// character. On match it splits at the first whitespace after the name;
// args is the remainder with exactly one leading whitespace character
// consumed (so further leading whitespace in args is preserved).
func parseCommand(trimmed string) (Result, bool) {
	if !strings.HasPrefix(trimmed, "/") {
		return Result{}, false
	}
	rest := trimmed[1:]
	if rest == "" || isSpace(rest[0]) {
		return Result{}, false
	}

	idx := strings.IndexFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if idx < 0 {
		return Result{Kind: Command, Name: rest, Args: ""}, true
	}
	name := rest[:idx]
	args := rest[idx+1:]
	return Result{Kind: Command, Name: name, Args: args}, true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// extractMentions scans for '@' followed by >=1 non-whitespace character,
// preserving order of first appearance. A lone '@', an '@' at end of input,
// or an '@' followed by whitespace is literal text, not a mention.
func extractMentions(text string) []string {
	var mentions []string
	runes := []rune(text)
	n := len(runes)
	for i := 0; i < n; i++ {
		if runes[i] != '@' {
			continue
		}
		j := i + 1
		if j >= n || isRuneSpace(runes[j]) {
			continue
		}
		start := j
		for j < n && !isRuneSpace(runes[j]) {
			j++
		}
		mentions = append(mentions, string(runes[start:j]))
		i = j - 1
	}
	return mentions
}

func isRuneSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
