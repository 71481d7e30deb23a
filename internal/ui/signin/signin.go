// Package signin prompts for an API session token.
package signin

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// TokenMsg carries the entered token.
type TokenMsg struct {
	Token string
}

// CancelMsg is sent when the prompt is abandoned.
type CancelMsg struct{}

// Model wraps a masked huh input.
type Model struct {
	form   *huh.Form
	token  *string
	reason string
	width  int
}

// New creates an idle prompt.
func New(width int) Model {
	return Model{width: width}
}

// SetWidth updates the prompt width.
func (m *Model) SetWidth(width int) {
	m.width = width
}

// Active reports whether the prompt is shown.
func (m Model) Active() bool {
	return m.form != nil
}

// Start shows the prompt. reason explains why a token is needed.
func (m *Model) Start(reason string) tea.Cmd {
	m.reason = reason
	m.token = new(string)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Sign in").
				Description(reason),
			huh.NewInput().
				Title("Session token").
				Description("Paste the token issued by the back office.").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token is required")
					}
					return nil
				}).
				Value(m.token),
		),
	).WithShowHelp(false).WithWidth(m.width)
	return m.form.Init()
}

// Update forwards messages to the form and reports the entered token.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	f, cmd := m.form.Update(msg)
	if f, ok := f.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		token := strings.TrimSpace(*m.token)
		m.form = nil
		return m, func() tea.Msg { return TokenMsg{Token: token} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the prompt.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return m.form.View()
}
