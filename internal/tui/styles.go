package tui

import "github.com/charmbracelet/lipgloss"

const (
	accentColor  = lipgloss.Color("39")
	successColor = lipgloss.Color("42")
	warnColor    = lipgloss.Color("214")
	mutedColor   = lipgloss.Color("245")

	barWidth    = 40
	maxBarWidth = 80
	padding     = 2
)

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(accentColor)
}

func statusStyle(busy bool) lipgloss.Style {
	if busy {
		return lipgloss.NewStyle().Bold(true)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(successColor)
}

func warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(warnColor)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(mutedColor)
}

func boxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, padding)
}
