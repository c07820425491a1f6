package stream

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const summaryValueLimit = 60

// formatToolInputSummary renders a compact, single-line, key/value summary
// of a tool-use-start input record, per spec §4.7. Keys are sorted so the
// output is deterministic across map iteration order.
func formatToolInputSummary(input map[string]any) string {
	if len(input) == 0 {
		return ""
	}
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+truncateValue(formatValue(input[k])))
	}
	return strings.Join(parts, "  ")
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return compactRecord(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, formatValue(e))
		}
		return "[" + strings.Join(parts, ",") + "]"
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func compactRecord(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+formatValue(m[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func truncateValue(s string) string {
	if len(s) <= summaryValueLimit {
		return s
	}
	return s[:summaryValueLimit] + "..."
}

// splitLines splits on \n without producing a trailing empty element for a
// final newline.
func splitLines(body string) []string {
	if body == "" {
		return nil
	}
	lines := strings.Split(body, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// collapseHint formats the "N more line(s)" hint shown after the first
// three lines of a long, non-error tool result.
func collapseHint(remaining int) string {
	unit := "line"
	if remaining != 1 {
		unit = "lines"
	}
	return fmt.Sprintf("▸ %d more %s (Ctrl+O to expand)", remaining, unit)
}

// truncate80 truncates s to 80 characters, for the error-message
// notification snippet.
func truncate80(s string) string {
	r := []rune(s)
	if len(r) <= 80 {
		return s
	}
	return string(r[:80])
}

// finalSnippet truncates accumulated text to 80 chars, substituting
// "Response complete" for an empty stream, per the termination rule.
func finalSnippet(accumText string) string {
	if accumText == "" {
		return "Response complete"
	}
	return truncate80(accumText)
}
