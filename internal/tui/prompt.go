package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parlance-sh/parlance/internal/command"
	"github.com/parlance-sh/parlance/internal/completer"
)

// promptModel is a one-shot Bubble Tea program: it renders a single input
// line plus the live completion popup, and exits on Enter, Esc-then-Enter,
// or interrupt. Shell.ReadLine drives one of these per prompt.
type promptModel struct {
	input      textinput.Model
	completer  *completer.Completer
	items      []command.Command
	promptText string

	done      bool
	canceled  bool
	value     string

	onExpand func()
	onCopy   func()
}

func newPromptModel(prompt string, comp *completer.Completer, onExpand, onCopy func()) promptModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Focus()
	return promptModel{input: ti, completer: comp, promptText: prompt, onExpand: onExpand, onCopy: onCopy}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "ctrl+c", "ctrl+d":
		m.canceled = true
		m.done = true
		return m, tea.Quit
	case "enter":
		m.value = m.input.Value()
		m.done = true
		return m, tea.Quit
	case "esc":
		if m.completer != nil {
			m.completer.Dismiss(m.input.Value())
			m.items = nil
		}
		return m, nil
	case "ctrl+o":
		if m.onExpand != nil {
			m.onExpand()
		}
		return m, nil
	case "ctrl+y":
		if m.onCopy != nil {
			m.onCopy()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(keyMsg)
	if m.completer != nil {
		m.items = m.completer.Update(m.input.Value())
	}
	return m, cmd
}

func (m promptModel) View() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render(m.promptText))
	b.WriteString(m.input.View())
	if len(m.items) > 0 {
		b.WriteString("\n")
		b.WriteString(renderCompletions(m.items))
	}
	return b.String()
}

func renderCompletions(items []command.Command) string {
	var lines []string
	for _, c := range items {
		lines = append(lines, completionItemStyle.Render("  /"+c.Name+"  "+c.Description))
	}
	return strings.Join(lines, "\n")
}
