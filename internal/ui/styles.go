package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("63")
	ColorSuccess = lipgloss.Color("42")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("196")
	ColorDim     = lipgloss.Color("241")
)

var (
	// ExecutingStyle marks commands that run without confirmation.
	ExecutingStyle = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	GeneratedStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	NoteStyle      = lipgloss.NewStyle().Foreground(ColorDim).Italic(true)
	StatusStyle    = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle     = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	SpinnerStyle   = lipgloss.NewStyle().Foreground(ColorPrimary)
	MenuStyle      = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
)
