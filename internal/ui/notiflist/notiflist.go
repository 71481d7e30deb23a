// Package notiflist renders one page of notifications with a cursor.
package notiflist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inventory-desk/internal/keys"
	"github.com/nhle/inventory-desk/internal/model"
	"github.com/nhle/inventory-desk/internal/notify"
	"github.com/nhle/inventory-desk/internal/theme"
)

// SelectedMsg is sent when the user opens a notification.
type SelectedMsg struct {
	ID int64
}

// footerHeight is the number of lines below the rows.
const footerHeight = 2

// Model is the notification list view.
type Model struct {
	keys       *keys.KeyMap
	items      []model.Notification
	pagination notify.Pagination
	loading    bool
	err        string
	cursor     int
	offset     int
	width      int
	height     int
	spinner    spinner.Model
}

// New creates an empty list view.
func New(k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.DimmedStyle
	return Model{
		keys:    k,
		width:   width,
		height:  height,
		spinner: sp,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.clamp()
}

// SetState installs a new snapshot, keeping the cursor on the same
// record when it is still present.
func (m *Model) SetState(s notify.State) {
	var selectedID int64
	if sel, ok := m.Selected(); ok {
		selectedID = sel.ID
	}
	pageChanged := s.Pagination.CurrentPage != m.pagination.CurrentPage

	m.items = s.Notifications
	m.pagination = s.Pagination
	m.loading = s.Loading
	m.err = s.Error

	switch {
	case pageChanged:
		m.cursor, m.offset = 0, 0
	case selectedID != 0:
		for i, n := range m.items {
			if n.ID == selectedID {
				m.cursor = i
				break
			}
		}
	}
	m.clamp()
}

// Selected returns the record under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return model.Notification{}, false
	}
	return m.items[m.cursor], true
}

// Update handles navigation keys and spinner ticks.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Down):
			m.cursor++
			m.clamp()
		case key.Matches(msg, m.keys.Up):
			m.cursor--
			m.clamp()
		case key.Matches(msg, m.keys.Select):
			if sel, ok := m.Selected(); ok {
				id := sel.ID
				return m, func() tea.Msg { return SelectedMsg{ID: id} }
			}
		}
	}
	return m, nil
}

// PageLabel returns the "Page X of Y" indicator.
func (m Model) PageLabel() string {
	if m.pagination.TotalPages == 0 {
		return "Page 0 of 0"
	}
	return fmt.Sprintf("Page %d of %d", m.pagination.CurrentPage, m.pagination.TotalPages)
}

// View renders the list.
func (m Model) View() string {
	var b strings.Builder

	switch {
	case len(m.items) == 0 && m.loading:
		b.WriteString(m.spinner.View() + " Loading notifications...")
		return m.fill(b.String())
	case len(m.items) == 0 && m.err != "":
		b.WriteString(theme.ErrorStyle.Render(m.err) + "\n")
		b.WriteString(theme.HelpStyle.Render("Press r to retry."))
		return m.fill(b.String())
	case len(m.items) == 0:
		b.WriteString(theme.DimmedStyle.Render("No notifications. You're all caught up."))
		if m.pagination.CurrentPage > 1 {
			b.WriteString("\n" + theme.HelpStyle.Render("This page is empty. Press p for the previous page."))
		}
		return m.fill(b.String())
	}

	end := m.offset + m.visibleRows()
	if end > len(m.items) {
		end = len(m.items)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(m.items[i], i == m.cursor))
		b.WriteString("\n")
	}

	return m.fill(b.String()) + "\n" + m.footer()
}

func (m Model) renderRow(n model.Notification, selected bool) string {
	marker := " "
	titleStyle := theme.DimmedStyle
	if !n.IsRead {
		marker = "●"
		titleStyle = theme.UnreadStyle
	}

	prio := ""
	if n.Priority == model.PriorityHigh || n.Priority == model.PriorityUrgent {
		prio = theme.PriorityStyle(n.Priority).Render("!") + " "
	}

	label := theme.TypeLabelStyle(n.Type).Width(11).Render(theme.TypeLabel(n.Type))
	age := theme.DimmedStyle.Render(n.TimeAgo)
	left := fmt.Sprintf("%s %s%s%s", marker, label, prio, titleStyle.Render(n.Title))

	gap := m.width - 4 - lipgloss.Width(left) - lipgloss.Width(age)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + age

	style := theme.ListItemStyle
	if selected {
		style = theme.SelectedItemStyle
	}
	return style.MaxWidth(m.width).Render(line)
}

func (m Model) footer() string {
	parts := []string{m.PageLabel()}
	if m.pagination.Total > 0 {
		parts = append(parts, fmt.Sprintf("%d total", m.pagination.Total))
	}
	if m.loading {
		parts = append(parts, m.spinner.View()+" loading")
	}
	footer := theme.HelpStyle.Render(strings.Join(parts, " · "))
	if m.err != "" {
		footer += "  " + theme.ErrorStyle.Render(m.err)
	}
	return footer
}

// fill pads content to the rows area so the footer stays put.
func (m Model) fill(content string) string {
	return lipgloss.NewStyle().
		Height(m.visibleRows()).
		MaxWidth(m.width).
		Render(strings.TrimRight(content, "\n"))
}

func (m Model) visibleRows() int {
	rows := m.height - footerHeight
	if rows < 1 {
		return 1
	}
	return rows
}

// clamp keeps the cursor in range and visible.
func (m *Model) clamp() {
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
