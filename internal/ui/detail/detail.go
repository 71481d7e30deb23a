// Package detail shows a single notification.
package detail

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/inventory-desk/internal/keys"
	"github.com/nhle/inventory-desk/internal/model"
	"github.com/nhle/inventory-desk/internal/theme"
)

// BackMsg is sent when the user leaves the detail view.
type BackMsg struct{}

// MarkReadMsg asks the app to mark the shown notification as read.
type MarkReadMsg struct {
	ID int64
}

// DeleteMsg asks the app to delete the shown notification.
type DeleteMsg struct {
	ID int64
}

// Model is the detail view.
type Model struct {
	keys     *keys.KeyMap
	n        model.Notification
	has      bool
	viewport viewport.Model
	width    int
	height   int
}

// New creates an empty detail view.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:     k,
		width:    width,
		height:   height,
		viewport: viewport.New(width, height),
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.refresh()
}

// SetNotification shows n, resetting the scroll position when it is a
// different record.
func (m *Model) SetNotification(n model.Notification) {
	if !m.has || m.n.ID != n.ID {
		m.viewport.GotoTop()
	}
	m.n = n
	m.has = true
	m.refresh()
}

// Clear empties the view.
func (m *Model) Clear() {
	m.n = model.Notification{}
	m.has = false
	m.viewport.SetContent("")
}

// Notification returns the shown record.
func (m Model) Notification() (model.Notification, bool) {
	return m.n, m.has
}

// Update handles keys for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.MarkRead):
			if m.has && !m.n.IsRead {
				id := m.n.ID
				return m, func() tea.Msg { return MarkReadMsg{ID: id} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if m.has {
				id := m.n.ID
				return m, func() tea.Msg { return DeleteMsg{ID: id} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail panel.
func (m Model) View() string {
	if !m.has {
		return theme.DimmedStyle.Render("Notification not found.")
	}
	return m.viewport.View()
}

func (m *Model) refresh() {
	if !m.has {
		return
	}
	inner := m.width - theme.DetailPanelStyle.GetHorizontalFrameSize()
	if inner < 10 {
		inner = 10
	}
	m.viewport.SetContent(theme.DetailPanelStyle.Width(inner).Render(render(m.n, inner)))
}

func render(n model.Notification, width int) string {
	var b strings.Builder

	b.WriteString(theme.TypeLabelStyle(n.Type).Render(theme.TypeLabel(n.Type)))
	b.WriteString(" ")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(n.Title))
	b.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}

	if n.Priority != "" {
		field("Priority", theme.PriorityStyle(n.Priority).Render(string(n.Priority)))
	}
	field("Category", string(n.Category))
	field("Created", strings.TrimSpace(n.CreatedAt+" ("+n.TimeAgo+")"))
	if n.IsRead {
		status := "read"
		if n.ReadAt != nil {
			status += " " + humanize.Time(*n.ReadAt)
		}
		field("Status", status)
	} else {
		field("Status", theme.UnreadStyle.Render("unread"))
	}
	if id, ok := n.ProductID(); ok {
		field("Product", fmt.Sprintf("#%d", id))
	}

	if n.Message != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(n.Message))
		b.WriteString("\n")
	}

	if extra := dataLines(n.Data); len(extra) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.DimmedStyle.Render("Details"))
		b.WriteString("\n")
		for _, line := range extra {
			b.WriteString("  " + line + "\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// dataLines lists the payload entries in key order, skipping product_id
// which has its own row.
func dataLines(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		if k == "product_id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, data[k]))
	}
	return lines
}
