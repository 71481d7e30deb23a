package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/nhle/inventory-desk/internal/keys"
	"github.com/nhle/inventory-desk/internal/model"
	"github.com/nhle/inventory-desk/internal/notify"
	"github.com/nhle/inventory-desk/internal/session"
	appsync "github.com/nhle/inventory-desk/internal/sync"
	"github.com/nhle/inventory-desk/internal/theme"
	"github.com/nhle/inventory-desk/internal/ui"
	"github.com/nhle/inventory-desk/internal/ui/command"
	"github.com/nhle/inventory-desk/internal/ui/compose"
	"github.com/nhle/inventory-desk/internal/ui/confirm"
	"github.com/nhle/inventory-desk/internal/ui/detail"
	helpview "github.com/nhle/inventory-desk/internal/ui/help"
	"github.com/nhle/inventory-desk/internal/ui/lowstock"
	"github.com/nhle/inventory-desk/internal/ui/notiflist"
	"github.com/nhle/inventory-desk/internal/ui/signin"
	statsview "github.com/nhle/inventory-desk/internal/ui/stats"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewCompose
	ViewConfirm
	ViewStats
	ViewSignIn
)

// minSplitWidth is the narrowest terminal that shows the low-stock
// panel beside the list.
const minSplitWidth = 72

// Deps are the collaborators of the root model.
type Deps struct {
	Config    *model.AppConfig
	Manager   *notify.Manager
	Session   *session.Session
	Refresher *appsync.Refresher
	Logger    *zap.Logger
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the notification manager.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	cfg       *model.AppConfig
	manager   *notify.Manager
	session   *session.Session
	refresher *appsync.Refresher
	logger    *zap.Logger

	updates <-chan notify.State
	state   notify.State

	list        notiflist.Model
	lowStock    lowstock.Model
	detail      detail.Model
	helpView    helpview.Model
	commandView command.Model
	composeView compose.Model
	confirmView confirm.Model
	statsView   statsview.Model
	signinView  signin.Model

	showLowStock bool
	listening    bool
	ready        bool
	flash        flash
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	updates, _ := d.Manager.Subscribe()

	m := Model{
		currentView: ViewList,
		keys:        k,
		cfg:         d.Config,
		manager:     d.Manager,
		session:     d.Session,
		refresher:   d.Refresher,
		logger:      d.Logger.Named("app"),
		updates:     updates,
		state:       d.Manager.Snapshot(),
		list:        notiflist.New(k, 80, 24),
		lowStock:    lowstock.New(k, 30, 24),
		detail:      detail.New(k, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		composeView: compose.New(80, 24),
		confirmView: confirm.New(80, 24),
		statsView:   statsview.New(k, 80, 24),
		signinView:  signin.New(80),

		showLowStock: true,
		// Init starts the refresher and its listener when signed in.
		listening: d.Session.Authenticated(),
	}
	m.applyState(m.state)
	return m
}

// Init subscribes to state changes and, when a session is present,
// starts the background refresh. Without one it asks for a token.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForState(m.updates),
		m.list.Init(),
	}
	if m.session.Authenticated() {
		cmds = append(cmds, m.refresher.Start())
	} else {
		cmds = append(cmds, func() tea.Msg { return needSignInMsg{reason: "No session token found."} })
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to the forms so huh can calculate its layout.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.composeView, cmd = m.composeView.Update(msg)
		cmds = append(cmds, cmd)
		m.confirmView, cmd = m.confirmView.Update(msg)
		cmds = append(cmds, cmd)
		m.signinView, cmd = m.signinView.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case stateMsg:
		m.applyState(msg.state)
		return m, waitForState(m.updates)

	case needSignInMsg:
		m.previousView = ViewList
		m.currentView = ViewSignIn
		cmd := m.signinView.Start(msg.reason)
		return m, cmd

	case appsync.RefreshResultMsg:
		m.listening = true
		next := m.refresher.WaitForNextResult()
		if msg.AuthError != nil {
			return m.handleAuthLoss(msg.AuthError.Message, next)
		}
		if msg.Error != nil && !msg.Result.Skipped {
			m.flash = errorFlash(notify.UserMessage(msg.Error))
		}
		return m, next

	case fetchDoneMsg:
		if msg.err != nil {
			if isAuth(msg.err) {
				return m.handleAuthLoss("Session expired. Please sign in again.", nil)
			}
			m.flash = errorFlash(notify.UserMessage(msg.err))
		}
		return m, nil

	case mutationDoneMsg:
		return m.handleMutation(msg)

	case createdMsg:
		if msg.err != nil {
			if isAuth(msg.err) {
				return m.handleAuthLoss("Session expired. Please sign in again.", nil)
			}
			m.flash = errorFlash(notify.UserMessage(msg.err))
			return m, nil
		}
		m.flash = infoFlash(fmt.Sprintf("Created %q", msg.n.Title))
		return m, m.refresh()

	case statsMsg:
		if msg.err != nil {
			if isAuth(msg.err) {
				return m.handleAuthLoss("Session expired. Please sign in again.", nil)
			}
			m.statsView.SetError(notify.UserMessage(msg.err))
			return m, nil
		}
		m.statsView.SetStats(msg.stats)
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.flash = errorFlash(fmt.Sprintf("Export failed: %v", msg.err))
			return m, nil
		}
		m.flash = infoFlash(fmt.Sprintf("Exported %d notifications to %s", msg.count, msg.path))
		return m, nil

	case tokenResultMsg:
		if msg.err != nil {
			m.flash = errorFlash(fmt.Sprintf("Token rejected: %v", msg.err))
			if m.currentView == ViewSignIn || !m.session.Authenticated() {
				m.currentView = ViewSignIn
				cmd := m.signinView.Start(msg.err.Error())
				return m, cmd
			}
			return m, nil
		}
		m.currentView = ViewList
		m.flash = infoFlash("Signed in.")
		cmd := m.startRefresher()
		return m, cmd

	case notiflist.SelectedMsg:
		return m.openDetail(msg.ID)

	case lowstock.SelectedMsg:
		return m.openDetail(msg.ID)

	case detail.BackMsg, helpview.CloseMsg, statsview.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.MarkReadMsg:
		return m, m.markRead(msg.ID)

	case detail.DeleteMsg:
		return m.askDelete(msg.ID)

	case confirm.ConfirmedMsg:
		m.currentView = ViewList
		return m, m.deleteNotification(msg.ID)

	case confirm.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case compose.ComposedMsg:
		m.currentView = ViewList
		return m, m.create(msg.Request)

	case compose.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case signin.TokenMsg:
		return m, m.setToken(msg.Token)

	case signin.CancelMsg:
		m.currentView = ViewList
		m.flash = infoFlash("Not signed in. Use :token <value> to sign in.")
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.refresher.Stop()
			return m, tea.Quit
		}
		if m.currentView == ViewList {
			m.flash = flash{}
			if next, cmd, handled := m.handleListKey(msg); handled {
				return next, cmd
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleListKey handles the global keys of the list view.
func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if m.lowStock.Focused() {
		switch {
		case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.LowStock):
			m.lowStock.Blur()
			return m, nil, true
		case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Select):
			var cmd tea.Cmd
			m.lowStock, cmd = m.lowStock.Update(msg)
			return m, cmd, true
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.refresher.Stop()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh(), true

	case key.Matches(msg, m.keys.NextPage):
		return m, m.loadNext(), true

	case key.Matches(msg, m.keys.PrevPage):
		return m, m.loadPrevious(), true

	case key.Matches(msg, m.keys.FirstPage):
		return m, m.goToPage(1), true

	case key.Matches(msg, m.keys.LastPage):
		return m, m.goToPage(m.state.Pagination.TotalPages), true

	case key.Matches(msg, m.keys.MarkRead):
		if sel, ok := m.list.Selected(); ok && !sel.IsRead {
			return m, m.markRead(sel.ID), true
		}
		return m, nil, true

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllRead(), true

	case key.Matches(msg, m.keys.Delete):
		if sel, ok := m.list.Selected(); ok {
			next, cmd := m.askDelete(sel.ID)
			return next, cmd, true
		}
		return m, nil, true

	case key.Matches(msg, m.keys.Compose):
		m.previousView = m.currentView
		m.currentView = ViewCompose
		cmd := m.composeView.Start()
		return m, cmd, true

	case key.Matches(msg, m.keys.Stats):
		return m.openStats()

	case key.Matches(msg, m.keys.LowStock):
		if m.lowStockVisible() {
			m.lowStock.Focus()
		}
		return m, nil, true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewConfirm:
		m.confirmView, cmd = m.confirmView.Update(msg)
	case ViewStats:
		m.statsView, cmd = m.statsView.Update(msg)
	case ViewSignIn:
		m.signinView, cmd = m.signinView.Update(msg)
	}

	// Keep the list spinner ticking behind other views.
	if m.currentView != ViewList {
		if _, ok := msg.(tea.KeyMsg); !ok {
			var tick tea.Cmd
			m.list, tick = m.list.Update(msg)
			cmd = tea.Batch(cmd, tick)
		}
	}

	return m, cmd
}

// applyState installs a manager snapshot into every view.
func (m *Model) applyState(s notify.State) {
	m.state = s
	m.list.SetState(s)
	m.lowStock.SetItems(s.LowStock)

	if m.currentView == ViewDetail {
		if n, ok := m.detail.Notification(); ok {
			if fresh, found := s.Find(n.ID); found {
				m.detail.SetNotification(fresh)
			} else {
				m.detail.Clear()
				m.currentView = ViewList
			}
		}
	}
}

// openDetail shows id and marks it read when it was unread.
func (m Model) openDetail(id int64) (Model, tea.Cmd) {
	n, ok := m.state.Find(id)
	if !ok {
		return m, nil
	}
	m.lowStock.Blur()
	m.previousView = ViewList
	m.currentView = ViewDetail
	m.detail.SetNotification(n)
	if !n.IsRead {
		return m, m.markRead(id)
	}
	return m, nil
}

// askDelete opens the delete confirmation for id.
func (m Model) askDelete(id int64) (Model, tea.Cmd) {
	n, ok := m.state.Find(id)
	if !ok {
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = ViewConfirm
	cmd := m.confirmView.Start(id, n.Title)
	return m, cmd
}

func (m Model) openStats() (Model, tea.Cmd, bool) {
	m.previousView = m.currentView
	m.currentView = ViewStats
	m.statsView.SetLoading()
	return m, m.fetchStats(), true
}

// handleMutation reports a finished mark/delete and steps back a page
// when a delete emptied a page beyond the first.
func (m Model) handleMutation(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if isAuth(msg.err) {
			return m.handleAuthLoss("Session expired. Please sign in again.", nil)
		}
		m.flash = errorFlash(notify.UserMessage(msg.err))
		return m, nil
	}

	switch msg.op {
	case notify.OpDelete:
		m.flash = infoFlash("Notification deleted.")
		if m.manager.Snapshot().ShouldRetreat() {
			return m, m.loadPrevious()
		}
	case notify.OpMarkAllRead:
		m.flash = infoFlash("All notifications marked as read.")
	}
	return m, nil
}

// handleAuthLoss stops refreshing, drops all notification state and
// asks for a new token.
func (m Model) handleAuthLoss(reason string, next tea.Cmd) (tea.Model, tea.Cmd) {
	m.logger.Warn("session lost", zap.String("reason", reason))
	m.refresher.Stop()
	m.manager.Reset(context.Background())
	if err := m.session.Clear(); err != nil {
		m.logger.Warn("clearing session", zap.Error(err))
	}
	m.previousView = ViewList
	m.currentView = ViewSignIn
	cmd := m.signinView.Start(reason)
	return m, tea.Batch(next, cmd)
}

// startRefresher starts the background refresh after sign-in, listening
// for results only once per program.
func (m *Model) startRefresher() tea.Cmd {
	cmd := m.refresher.Start()
	if cmd == nil {
		return m.refresh()
	}
	if m.listening {
		return nil
	}
	m.listening = true
	return cmd
}

func (m Model) lowStockVisible() bool {
	return m.showLowStock && m.layout.Width >= minSplitWidth
}

// resize propagates the layout to every view.
func (m *Model) resize() {
	w := m.layout.ContentWidth()
	h := m.layout.ContentHeight()

	listWidth := w
	if m.lowStockVisible() {
		var side int
		listWidth, side = m.layout.SplitWidth(28)
		m.lowStock.SetSize(side, h)
	}
	m.list.SetSize(listWidth, h)
	m.detail.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.composeView.SetSize(w, h)
	m.confirmView.SetSize(w, h)
	m.statsView.SetSize(w, h)
	m.signinView.SetWidth(w)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Inventory Desk", m.state.UnreadCount, m.syncStatus())
	content := lipgloss.NewStyle().
		Height(m.layout.ContentHeight()).
		MaxHeight(m.layout.ContentHeight()).
		Render(m.renderContent())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		if m.lowStockVisible() {
			return lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.lowStock.View())
		}
		return m.list.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.list.View() + "\n" + m.commandView.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewConfirm:
		return m.confirmView.View()
	case ViewStats:
		return m.statsView.View()
	case ViewSignIn:
		return m.signinView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the refresh state.
func (m Model) syncStatus() string {
	if !m.session.Authenticated() {
		return "signed out"
	}
	if m.state.Loading {
		return "refreshing..."
	}
	if st := m.refresher.Status(); st.State == appsync.RefreshError {
		return "⚠ refresh failed"
	}
	if m.state.LastFetched.IsZero() {
		return "not loaded"
	}
	return "updated " + humanize.Time(m.state.LastFetched)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.flash.text != "" {
		if m.flash.isError {
			return theme.ErrorStyle.Render(m.flash.text)
		}
		return m.flash.text
	}

	switch m.currentView {
	case ViewHelp:
		return "esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | m mark read | d delete | j/k scroll"
	case ViewCompose:
		return "enter next | esc cancel"
	case ViewConfirm:
		return "←/→ choose | enter confirm | esc cancel"
	case ViewStats:
		return "esc back"
	case ViewSignIn:
		return "enter submit | esc cancel"
	default:
		if m.lowStock.Focused() {
			return "j/k move | enter open | esc back to list"
		}
		return fmt.Sprintf("%s | n/p page | m read | A all read | d delete | r refresh | ? help | q quit",
			m.list.PageLabel())
	}
}

// flash is a one-shot status bar message, cleared by the next key
// press in the list.
type flash struct {
	text    string
	isError bool
}

func infoFlash(text string) flash  { return flash{text: text} }
func errorFlash(text string) flash { return flash{text: text, isError: true} }
