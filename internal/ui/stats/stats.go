// Package stats renders the admin statistics panel.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/nhle/inventory-desk/internal/keys"
	"github.com/nhle/inventory-desk/internal/theme"
)

// BackMsg is sent when the user closes the panel.
type BackMsg struct{}

// Model is the statistics panel.
type Model struct {
	keys    *keys.KeyMap
	stats   map[string]any
	loading bool
	err     string
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

// SetLoading marks the panel as waiting for data.
func (m *Model) SetLoading() {
	m.loading = true
	m.err = ""
}

// SetStats installs the fetched statistics.
func (m *Model) SetStats(stats map[string]any) {
	m.stats = stats
	m.loading = false
	m.err = ""
}

// SetError shows a fetch failure.
func (m *Model) SetError(msg string) {
	m.loading = false
	m.err = msg
}

// Update handles keys for the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg { return BackMsg{} }
	}
	return m, nil
}

// View renders the statistics as an indented key/value list.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Notification statistics"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(theme.DimmedStyle.Render("Loading statistics..."))
	case m.err != "":
		b.WriteString(theme.ErrorStyle.Render(m.err))
	case len(m.stats) == 0:
		b.WriteString(theme.DimmedStyle.Render("No statistics available."))
	default:
		writeMap(&b, m.stats, 0)
	}

	return theme.DetailPanelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func writeMap(b *strings.Builder, data map[string]any, depth int) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	indent := strings.Repeat("  ", depth)
	for _, k := range keys {
		label := theme.DimmedStyle.Render(indent + Label(k))
		if nested, ok := data[k].(map[string]any); ok {
			b.WriteString(label + "\n")
			writeMap(b, nested, depth+1)
			continue
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", label, FormatValue(data[k])))
	}
}

// Label turns a snake_case key into a title.
func Label(k string) string {
	words := strings.Split(k, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatValue renders a JSON value; whole numbers get thousands separators.
func FormatValue(v any) string {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return humanize.Comma(int64(val))
		}
		return humanize.FormatFloat("#,###.##", val)
	case nil:
		return "-"
	case []any:
		return fmt.Sprintf("%d items", len(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}
