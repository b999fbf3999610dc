package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSuccess   = lipgloss.Color("#10B981") // Green
	colorError     = lipgloss.Color("#EF4444") // Red
	colorTextMuted = lipgloss.Color("#9CA3AF") // Muted gray
	colorAccent    = lipgloss.Color("#F59E0B") // Amber
)

var (
	phaseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	agentStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			PaddingLeft(2)

	voteStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			PaddingLeft(2)

	winnerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)
)
