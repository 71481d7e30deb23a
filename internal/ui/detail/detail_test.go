package detail

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inventory-desk/internal/keys"
	"github.com/nhle/inventory-desk/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_RendersFields(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m.SetNotification(model.Notification{
		ID:        5,
		Type:      model.TypeLowStock,
		Title:     "Widget running low",
		Message:   "Only 3 left in stock",
		Priority:  model.PriorityHigh,
		Category:  model.CategoryInventory,
		CreatedAt: "2024-05-01T11:00:00Z",
		TimeAgo:   "1 hour ago",
		Data:      map[string]any{"product_id": float64(42), "sku": "W-1"},
	})

	out := m.View()
	assert.Contains(t, out, "Widget running low")
	assert.Contains(t, out, "Only 3 left in stock")
	assert.Contains(t, out, "#42")
	assert.Contains(t, out, "sku: W-1")
	assert.Contains(t, out, "unread")
}

func TestUpdate_Actions(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m.SetNotification(model.Notification{ID: 5, Title: "x"})

	_, cmd := m.Update(runes("m"))
	require.NotNil(t, cmd)
	assert.Equal(t, MarkReadMsg{ID: 5}, cmd())

	_, cmd = m.Update(runes("d"))
	require.NotNil(t, cmd)
	assert.Equal(t, DeleteMsg{ID: 5}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}

func TestUpdate_MarkReadIgnoredWhenRead(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	m.SetNotification(model.Notification{ID: 5, IsRead: true})

	_, cmd := m.Update(runes("m"))
	assert.Nil(t, cmd)
}

func TestView_Empty(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 30)
	assert.Contains(t, m.View(), "not found")
}
