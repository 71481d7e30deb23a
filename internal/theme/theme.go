package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inventory-desk/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Styles shared by every view. Apply rebuilds them.
var (
	HeaderStyle       lipgloss.Style
	StatusBarStyle    lipgloss.Style
	DetailPanelStyle  lipgloss.Style
	ListItemStyle     lipgloss.Style
	SelectedItemStyle lipgloss.Style
	HelpStyle         lipgloss.Style
	BorderStyle       lipgloss.Style
	DimmedStyle       lipgloss.Style
	UnreadStyle       lipgloss.Style
	ErrorStyle        lipgloss.Style
	BadgeStyle        lipgloss.Style
)

// Names lists the accepted values of display.theme.
var Names = []string{"default", "mono"}

var mono bool

func init() {
	build()
}

// Apply switches to the named theme. "mono" drops all colors.
func Apply(name string) error {
	switch name {
	case "", "default":
		mono = false
	case "mono":
		mono = true
	default:
		return fmt.Errorf("unknown theme %q", name)
	}
	build()
	return nil
}

func fg(s lipgloss.Style, c lipgloss.TerminalColor) lipgloss.Style {
	if mono {
		return s
	}
	return s.Foreground(c)
}

func bg(s lipgloss.Style, c lipgloss.TerminalColor) lipgloss.Style {
	if mono {
		return s.Reverse(true)
	}
	return s.Background(c)
}

func build() {
	HeaderStyle = bg(fg(lipgloss.NewStyle().Bold(true), ColorWhite), ColorBlue).
		Padding(0, 1)

	StatusBarStyle = bg(fg(lipgloss.NewStyle(), ColorWhite), ColorSubtle).
		Padding(0, 1)

	DetailPanelStyle = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder())
	if !mono {
		DetailPanelStyle = DetailPanelStyle.BorderForeground(ColorBorder)
	}

	ListItemStyle = lipgloss.NewStyle().
		PaddingLeft(2)

	SelectedItemStyle = fg(lipgloss.NewStyle().PaddingLeft(1).Bold(true), ColorBlue).
		Border(lipgloss.NormalBorder(), false, false, false, true)
	if !mono {
		SelectedItemStyle = SelectedItemStyle.BorderForeground(ColorBlue)
	}

	HelpStyle = fg(lipgloss.NewStyle().Italic(true), ColorGray)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder())
	if !mono {
		BorderStyle = BorderStyle.BorderForeground(ColorBorder)
	}

	DimmedStyle = fg(lipgloss.NewStyle(), ColorGray)
	UnreadStyle = fg(lipgloss.NewStyle().Bold(true), ColorWhite)
	ErrorStyle = fg(lipgloss.NewStyle().Bold(true), ColorRed)
	BadgeStyle = bg(fg(lipgloss.NewStyle().Bold(true), ColorWhite), ColorRed).
		Padding(0, 1)
}

// PriorityStyle returns a color-coded style for the given priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch p {
	case model.PriorityUrgent:
		return fg(base, ColorRed)
	case model.PriorityHigh:
		return fg(base, ColorOrange)
	case model.PriorityMedium:
		return fg(base, ColorYellow)
	case model.PriorityLow:
		return fg(base, ColorBlue)
	default:
		return fg(base, ColorGray)
	}
}

// TypeLabelStyle returns a color-coded style for the given notification type.
func TypeLabelStyle(t model.NotificationType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch t {
	case model.TypeLowStock:
		return fg(base, ColorRed)
	case model.TypeSaleCreated:
		return fg(base, ColorGreen)
	case model.TypePurchaseCreated:
		return fg(base, ColorMagenta)
	case model.TypeStockUpdated:
		return fg(base, ColorBlue)
	default:
		return fg(base, ColorGray)
	}
}

// TypeLabel returns the short label shown next to a notification.
func TypeLabel(t model.NotificationType) string {
	switch t {
	case model.TypeLowStock:
		return "LOW STOCK"
	case model.TypeSaleCreated:
		return "SALE"
	case model.TypePurchaseCreated:
		return "PURCHASE"
	case model.TypeStockUpdated:
		return "STOCK"
	default:
		return "OTHER"
	}
}
