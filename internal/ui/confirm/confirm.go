// Package confirm asks for confirmation before deleting a notification.
package confirm

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// ConfirmedMsg is sent when the user accepts.
type ConfirmedMsg struct {
	ID int64
}

// CancelMsg is sent when the user declines or aborts.
type CancelMsg struct{}

// Model wraps a single huh confirm field.
type Model struct {
	form   *huh.Form
	id     int64
	ok     *bool
	width  int
	height int
}

// New creates an idle dialog.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Start asks whether the notification id titled title should be deleted.
func (m *Model) Start(id int64, title string) tea.Cmd {
	m.id = id
	m.ok = new(bool)
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", title)).
				Description("This cannot be undone.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(m.ok),
		),
	).WithShowHelp(false).WithWidth(m.width)
	return m.form.Init()
}

// Update forwards messages to the form and reports the answer.
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
		m.form = nil
		if *m.ok {
			id := m.id
			return m, func() tea.Msg { return ConfirmedMsg{ID: id} }
		}
		return m, func() tea.Msg { return CancelMsg{} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the dialog.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return m.form.View()
}
