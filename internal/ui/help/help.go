// Package help renders the key binding and command reference.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inventory-desk/internal/keys"
	"github.com/nhle/inventory-desk/internal/theme"
)

// CloseMsg is sent when the user leaves the help view.
type CloseMsg struct{}

// Commands documents the command palette.
var Commands = [][2]string{
	{"refresh", "reload page 1, unread count and low stock"},
	{"page <n>", "jump to page n"},
	{"next / prev", "next or previous page"},
	{"first / last", "first or last page"},
	{"read all", "mark every notification as read"},
	{"compose", "create a notification (admin)"},
	{"stats", "show notification statistics (admin)"},
	{"export [path]", "write the current page to an .xlsx file"},
	{"token <value>", "store a new session token"},
	{"logout", "forget the session token"},
	{"lowstock", "show or hide the low-stock panel"},
	{"quit", "exit"},
}

// Model is the help view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates the help view.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	h.Width = width
	return Model{keys: k, help: h, width: width, height: height}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
}

// Update closes the view on esc.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return CloseMsg{} }
	}
	return m, nil
}

// View renders key bindings followed by palette commands.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Keys"))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(theme.HeaderStyle.Render("Commands"))
	b.WriteString("\n\n")
	for _, c := range Commands {
		b.WriteString("  :")
		b.WriteString(c[0])
		b.WriteString(strings.Repeat(" ", max(1, 16-len(c[0]))))
		b.WriteString(theme.DimmedStyle.Render(c[1]))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
