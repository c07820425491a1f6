package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("39")
	colorAccent  = lipgloss.Color("86")
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("220")
	colorError   = lipgloss.Color("196")
	colorDim     = lipgloss.Color("241")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle   = lipgloss.NewStyle().Foreground(colorAccent)

	toolNameStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	toolOKStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	toolFailStyle  = lipgloss.NewStyle().Foreground(colorError)
	toolBodyStyle  = lipgloss.NewStyle().Foreground(colorDim)
	collapseHintSt = lipgloss.NewStyle().Foreground(colorWarning).Italic(true)

	liveBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)

	completionItemStyle   = lipgloss.NewStyle().Foreground(colorDim)
	completionActiveStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)
