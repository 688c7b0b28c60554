package cli

import "github.com/charmbracelet/lipgloss"

var (
	PrimaryColor = lipgloss.Color("#4ECDC4")
	SuccessColor = lipgloss.Color("#7BD88F")
	ErrorColor   = lipgloss.Color("#FF6B6B")
	SubtleColor  = lipgloss.Color("#666666")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// NegativeStyle marks a savings figure below zero.
	NegativeStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
)
