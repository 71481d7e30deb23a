// Package compose is the admin form for creating a notification.
package compose

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/inventory-desk/internal/model"
)

// ComposedMsg carries the completed request.
type ComposedMsg struct {
	Request model.CreateNotificationRequest
}

// CancelMsg is sent when the form is abandoned.
type CancelMsg struct{}

// values holds the form bindings; huh writes through these pointers.
type values struct {
	Type     model.NotificationType
	Title    string
	Message  string
	Priority model.Priority
	Category model.Category
}

// Model wraps the huh form.
type Model struct {
	form   *huh.Form
	values *values
	width  int
	height int
}

// New creates an idle form.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(width).WithHeight(height)
	}
}

// Active reports whether a form is being filled in.
func (m Model) Active() bool {
	return m.form != nil
}

// Start builds a fresh form and returns its init command.
func (m *Model) Start() tea.Cmd {
	m.values = &values{
		Type:     model.TypeStockUpdated,
		Priority: model.PriorityMedium,
		Category: model.CategoryInventory,
	}
	v := m.values

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.NotificationType]().
				Title("Type").
				Options(
					huh.NewOption("Low stock", model.TypeLowStock),
					huh.NewOption("Sale created", model.TypeSaleCreated),
					huh.NewOption("Purchase created", model.TypePurchaseCreated),
					huh.NewOption("Stock updated", model.TypeStockUpdated),
				).
				Value(&v.Type),
			huh.NewInput().
				Title("Title").
				Placeholder("Short headline").
				CharLimit(255).
				Validate(ValidateTitle).
				Value(&v.Title),
			huh.NewText().
				Title("Message").
				CharLimit(1000).
				Value(&v.Message),
		),
		huh.NewGroup(
			huh.NewSelect[model.Priority]().
				Title("Priority").
				Options(
					huh.NewOption("Low", model.PriorityLow),
					huh.NewOption("Medium", model.PriorityMedium),
					huh.NewOption("High", model.PriorityHigh),
					huh.NewOption("Urgent", model.PriorityUrgent),
				).
				Value(&v.Priority),
			huh.NewSelect[model.Category]().
				Title("Category").
				Options(
					huh.NewOption("General", model.CategoryGeneral),
					huh.NewOption("Inventory", model.CategoryInventory),
					huh.NewOption("Sales", model.CategorySales),
					huh.NewOption("Purchases", model.CategoryPurchases),
					huh.NewOption("System", model.CategorySystem),
				).
				Value(&v.Category),
		),
	).WithShowHelp(true).WithWidth(m.width).WithHeight(m.height)

	return m.form.Init()
}

// ValidateTitle rejects blank titles.
func ValidateTitle(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("title is required")
	}
	return nil
}

// Request builds the request from the current values.
func (m Model) Request() model.CreateNotificationRequest {
	if m.values == nil {
		return model.CreateNotificationRequest{}
	}
	return model.CreateNotificationRequest{
		Type:     m.values.Type,
		Title:    strings.TrimSpace(m.values.Title),
		Message:  strings.TrimSpace(m.values.Message),
		Priority: m.values.Priority,
		Category: m.values.Category,
	}
}

// Update forwards messages to the form and reports completion.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyEsc {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	f, cmd := m.form.Update(msg)
	if f, ok := f.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		req := m.Request()
		m.form = nil
		return m, func() tea.Msg { return ComposedMsg{Request: req} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return m.form.View()
}
