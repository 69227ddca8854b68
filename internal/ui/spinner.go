package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SpinnerFactory creates a new spinner
type SpinnerFactory func() spinner.Model

// DefaultSpinner is the spinner shown while the model is working.
func DefaultSpinner() spinner.Model {
	return spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle))
}

type stopSpinnerMsg struct{}

// spinnerModel renders a spinner next to a message until it is stopped.
type spinnerModel struct {
	spinner spinner.Model
	message string
	done    bool
}

func newSpinnerModel(sp spinner.Model, message string) spinnerModel {
	return spinnerModel{spinner: sp, message: message}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopSpinnerMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View clears the line once the spinner is stopped.
func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + StatusStyle.Render(m.message)
}
