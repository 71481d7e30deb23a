// Package command implements the ":" command palette.
package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inventory-desk/internal/theme"
)

// CommandMsg carries the entered command line.
type CommandMsg string

// CancelMsg is sent when the palette is dismissed.
type CancelMsg struct{}

// suggestions feed the input's completion.
var suggestions = []string{
	"refresh", "page ", "next", "prev", "first", "last",
	"read all", "compose", "stats", "export ", "token ",
	"logout", "lowstock", "help", "quit",
}

// Model is the command palette.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates the palette.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Prompt = ":"
	ti.Placeholder = "command"
	ti.CharLimit = 512
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggestions)
	ti.Width = width - 4
	return Model{input: ti, width: width, height: height}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 4
}

// Focus clears and focuses the input.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}

// Update handles typing, enter and esc.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.Blur()
			if line == "" {
				return m, func() tea.Msg { return CancelMsg{} }
			}
			return m, func() tea.Msg { return CommandMsg(line) }
		case tea.KeyEsc:
			m.input.Blur()
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the palette.
func (m Model) View() string {
	return theme.BorderStyle.Render(m.input.View()) + "\n" +
		theme.HelpStyle.Render("tab completes · enter runs · esc cancels")
}

// Parse splits a command line into its name and argument. The name is
// lower-cased; the argument keeps its case.
func Parse(line string) (name, arg string) {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ":"))
	for _, two := range []string{"read all", "mark all"} {
		if strings.EqualFold(line, two) {
			return two, ""
		}
	}
	name, arg, _ = strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}
