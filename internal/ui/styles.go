package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/fieldwork/dispatch/models"
)

var (
	// Colors
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange/Yellow
	ColorText      = lipgloss.Color("252") // White/Gray

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)

	// Components
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	StyleStatBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)
)

// StatusStyle returns the render style for a task status.
func StatusStyle(status models.TaskStatus) lipgloss.Style {
	switch status {
	case models.StatusCompleted:
		return StyleSuccess
	case models.StatusInProgress:
		return StyleWarning
	default:
		return StyleSubtle
	}
}

// PriorityName maps a numeric priority to its display label. Plain text
// so table width math stays correct; callers style it if they want color.
func PriorityName(priority int) string {
	switch models.PriorityRank(priority) {
	case 0:
		return "high"
	case 1:
		return "medium"
	default:
		return "low"
	}
}

// PriorityLabel renders a numeric priority as a colored label.
func PriorityLabel(priority int) string {
	switch models.PriorityRank(priority) {
	case 0:
		return StyleError.Render("high")
	case 1:
		return StyleWarning.Render("medium")
	default:
		return StyleSubtle.Render("low")
	}
}
