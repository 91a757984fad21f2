package cli

import "github.com/charmbracelet/lipgloss"

var (
	// AccentColor highlights titles and table headers.
	AccentColor = lipgloss.Color("86")
	// SubtleColor marks secondary text such as empty-result notices.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	// HeaderStyle formats table column headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// SuccessStyle formats confirmations of completed writes.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))
)
