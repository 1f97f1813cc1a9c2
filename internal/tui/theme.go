package tui

import "charm.land/lipgloss/v2"

// Color palette
var (
	colorPrimary   = lipgloss.Color("#8B5CF6") // Purple
	colorSecondary = lipgloss.Color("#14B8A6") // Teal
	colorAccent    = lipgloss.Color("#F97316") // Orange
	colorSuccess   = lipgloss.Color("#22C55E")
	colorError     = lipgloss.Color("#F43F5E")
	colorText      = lipgloss.Color("#F8FAFC")
	colorTextDim   = lipgloss.Color("#94A3B8")
	colorBgCard    = lipgloss.Color("#1E293B")
	colorBorder    = lipgloss.Color("#334155")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	bodyStyle = lipgloss.NewStyle().
			Foreground(colorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Italic(true)

	passStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	subtopicStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Background(colorBgCard).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)
)
