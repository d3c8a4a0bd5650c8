package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	oceanBlue  = lipgloss.Color("#4FB3D9") // header, borders
	seafoam    = lipgloss.Color("#8FE3CF") // browser actions
	sandYellow = lipgloss.Color("#F6D88A") // user requests
	coralRed   = lipgloss.Color("#FF8A80") // errors
	driftGray  = lipgloss.Color("#7C8896") // tips, status
	foamWhite  = lipgloss.Color("#F4F8FA")
)

var (
	headerStyle     = lipgloss.NewStyle().Foreground(oceanBlue).Bold(true)
	tipsStyle       = lipgloss.NewStyle().Foreground(driftGray)
	userStyle       = lipgloss.NewStyle().Foreground(sandYellow).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(oceanBlue).Bold(true)
	toolStyle       = lipgloss.NewStyle().Foreground(seafoam)
	toolResultStyle = lipgloss.NewStyle().Foreground(foamWhite).Faint(true)
	errorStyle      = lipgloss.NewStyle().Foreground(coralRed)
	statusBarStyle  = lipgloss.NewStyle().Foreground(driftGray).Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(oceanBlue).
			Padding(0, 1)
)
