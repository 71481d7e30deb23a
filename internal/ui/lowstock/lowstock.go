// Package lowstock renders the low-stock side panel.
package lowstock

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inventory-desk/internal/keys"
	"github.com/nhle/inventory-desk/internal/model"
	"github.com/nhle/inventory-desk/internal/theme"
)

// SelectedMsg is sent when the user opens a low-stock record.
type SelectedMsg struct {
	ID int64
}

// Model is the low-stock panel.
type Model struct {
	keys    *keys.KeyMap
	items   []model.Notification
	cursor  int
	focused bool
	width   int
	height  int
}

// New creates an empty panel.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height}
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetItems replaces the panel content.
func (m *Model) SetItems(items []model.Notification) {
	m.items = items
	if m.cursor >= len(items) {
		m.cursor = len(items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Focus gives the panel keyboard focus.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard focus.
func (m *Model) Blur() { m.focused = false }

// Focused reports whether the panel has keyboard focus.
func (m Model) Focused() bool { return m.focused }

// Unread returns the number of unread records in the panel.
func (m Model) Unread() int {
	n := 0
	for _, it := range m.items {
		if !it.IsRead {
			n++
		}
	}
	return n
}

// Update handles navigation while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Select):
			if m.cursor < len(m.items) {
				id := m.items[m.cursor].ID
				return m, func() tea.Msg { return SelectedMsg{ID: id} }
			}
		}
	}
	return m, nil
}

// View renders the panel inside a border.
func (m Model) View() string {
	inner := m.width - theme.BorderStyle.GetHorizontalFrameSize()
	if inner < 1 {
		inner = 1
	}

	var b strings.Builder
	title := fmt.Sprintf("Low stock (%d)", len(m.items))
	b.WriteString(theme.TypeLabelStyle(model.TypeLowStock).UnsetPadding().Render(title))
	b.WriteString("\n")

	if len(m.items) == 0 {
		b.WriteString(theme.DimmedStyle.Render("All products are stocked."))
	}

	rows := m.height - theme.BorderStyle.GetVerticalFrameSize() - 1
	for i, n := range m.items {
		if i >= rows {
			b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("… %d more", len(m.items)-i)))
			break
		}
		b.WriteString(m.renderRow(n, i == m.cursor && m.focused, inner))
		b.WriteString("\n")
	}

	style := theme.BorderStyle.Width(inner)
	if h := m.height - theme.BorderStyle.GetVerticalFrameSize(); h > 0 {
		style = style.Height(h)
	}
	if m.focused {
		style = style.BorderForeground(theme.ColorRed)
	}
	return style.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderRow(n model.Notification, selected bool, width int) string {
	marker := " "
	text := theme.DimmedStyle
	if !n.IsRead {
		marker = "●"
		text = theme.UnreadStyle
	}
	line := marker + " " + text.Render(n.Title)
	if n.TimeAgo != "" {
		line += " " + theme.DimmedStyle.Render("· "+n.TimeAgo)
	}
	if selected {
		line = theme.SelectedItemStyle.Render(line)
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
