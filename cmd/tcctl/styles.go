package main

import "github.com/charmbracelet/lipgloss"

var (
	primary   = lipgloss.Color("#FF6B35") // broadcast orange
	secondary = lipgloss.Color("#1E88E5")
	success   = lipgloss.Color("#4CAF50")
	warning   = lipgloss.Color("#FFB74D")
	failure   = lipgloss.Color("#F44336")
	muted     = lipgloss.Color("#90A4AE")
	onAir     = lipgloss.Color("#FF1744")
	border    = lipgloss.AdaptiveColor{Light: "#DDDDDD", Dark: "#30363D"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(secondary).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(muted)

	errorStyle = lipgloss.NewStyle().Foreground(failure).Bold(true)

	okStyle = lipgloss.NewStyle().Foreground(success)

	warnStyle = lipgloss.NewStyle().Foreground(warning)

	clockStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(primary).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(1, 4)

	onAirStyle = lipgloss.NewStyle().Foreground(onAir).Bold(true)
)
