package notiflist

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inventory-desk/internal/keys"
	"github.com/nhle/inventory-desk/internal/model"
	"github.com/nhle/inventory-desk/internal/notify"
)

func page(current, total int, ids ...int64) notify.State {
	s := notify.State{
		Pagination: notify.Pagination{CurrentPage: current, TotalPages: total, Total: len(ids), PerPage: 10},
	}
	for _, id := range ids {
		s.Notifications = append(s.Notifications, model.Notification{
			ID:      id,
			Type:    model.TypeSaleCreated,
			Title:   "Sale",
			TimeAgo: "5 minutes ago",
		})
	}
	return s
}

func press(m Model, k string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return m.Update(msg)
}

func TestNavigateAndSelect(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetState(page(1, 2, 1, 2, 3))

	m, _ = press(m, "j")
	m, _ = press(m, "j")
	m, _ = press(m, "j")
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(3), sel.ID, "cursor stops at the last row")

	m, cmd := press(m, "enter")
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedMsg{ID: 3}, cmd())

	m, _ = press(m, "k")
	sel, _ = m.Selected()
	assert.Equal(t, int64(2), sel.ID)
}

func TestSetState_KeepsCursorOnSameRecord(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetState(page(1, 1, 1, 2, 3))
	m, _ = press(m, "j")
	m, _ = press(m, "j")

	m.SetState(page(1, 1, 2, 3))
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(3), sel.ID)
}

func TestSetState_NewPageResetsCursor(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetState(page(1, 2, 1, 2, 3))
	m, _ = press(m, "j")

	m.SetState(page(2, 2, 11, 12))
	sel, _ := m.Selected()
	assert.Equal(t, int64(11), sel.ID)
}

func TestPageLabel(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	assert.Equal(t, "Page 0 of 0", m.PageLabel())

	m.SetState(page(3, 3, 21))
	assert.Equal(t, "Page 3 of 3", m.PageLabel())
	assert.Contains(t, m.View(), "Page 3 of 3")
}

func TestView_States(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)

	m.SetState(notify.State{Loading: true})
	assert.Contains(t, m.View(), "Loading notifications")

	m.SetState(notify.State{Error: "Failed to fetch notifications"})
	out := m.View()
	assert.Contains(t, out, "Failed to fetch notifications")
	assert.Contains(t, out, "r to retry")

	m.SetState(notify.State{})
	assert.Contains(t, m.View(), "No notifications")

	m.SetState(notify.State{Pagination: notify.Pagination{CurrentPage: 2, TotalPages: 2}})
	assert.Contains(t, m.View(), "previous page")
}

func TestSelected_Empty(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	_, ok := m.Selected()
	assert.False(t, ok)

	_, cmd := press(m, "enter")
	assert.Nil(t, cmd)
}
