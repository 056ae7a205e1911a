package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)
