package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestLayout_ContentHeight(t *testing.T) {
	assert.Equal(t, 22, NewLayout(80, 24).ContentHeight())
	assert.Equal(t, 0, NewLayout(80, 1).ContentHeight())
}

func TestLayout_SplitWidth(t *testing.T) {
	main, side := NewLayout(90, 24).SplitWidth(20)
	assert.Equal(t, 60, main)
	assert.Equal(t, 30, side)

	main, side = NewLayout(45, 24).SplitWidth(20)
	assert.Equal(t, 25, main)
	assert.Equal(t, 20, side)
}

func TestUnreadBadge(t *testing.T) {
	assert.Empty(t, UnreadBadge(0))
	assert.Contains(t, UnreadBadge(7), "7")
	assert.Contains(t, UnreadBadge(150), "99+")
}

func TestRenderHeader_FillsWidth(t *testing.T) {
	l := NewLayout(60, 24)
	out := l.RenderHeader("Inventory Desk", 3, "idle")
	assert.Equal(t, 60, lipgloss.Width(out))
}
