package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inventory-desk/internal/api"
	"github.com/nhle/inventory-desk/internal/export"
	"github.com/nhle/inventory-desk/internal/model"
	"github.com/nhle/inventory-desk/internal/notify"
)

// opTimeout bounds every request started from the UI.
const opTimeout = 30 * time.Second

// stateMsg carries a new manager snapshot.
type stateMsg struct {
	state notify.State
}

// needSignInMsg opens the sign-in view.
type needSignInMsg struct {
	reason string
}

// fetchDoneMsg is sent when a page load or refresh finishes.
type fetchDoneMsg struct {
	result notify.FetchResult
	err    error
}

// mutationDoneMsg is sent when a mark or delete finishes.
type mutationDoneMsg struct {
	op  notify.Operation
	id  int64
	err error
}

type createdMsg struct {
	n   *model.Notification
	err error
}

type statsMsg struct {
	stats map[string]any
	err   error
}

type exportDoneMsg struct {
	path  string
	count int
	err   error
}

type tokenResultMsg struct {
	err error
}

// waitForState returns a tea.Cmd that blocks until the manager
// publishes a new snapshot.
func waitForState(ch <-chan notify.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg{state: s}
	}
}

func isAuth(err error) bool {
	return api.IsAuthError(err)
}

func (m Model) fetch(fn func(ctx context.Context) (notify.FetchResult, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		result, err := fn(ctx)
		return fetchDoneMsg{result: result, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	return m.fetch(m.manager.Refresh)
}

func (m Model) loadNext() tea.Cmd {
	return m.fetch(m.manager.LoadNext)
}

func (m Model) loadPrevious() tea.Cmd {
	return m.fetch(m.manager.LoadPrevious)
}

func (m Model) goToPage(page int) tea.Cmd {
	return m.fetch(func(ctx context.Context) (notify.FetchResult, error) {
		return m.manager.GoToPage(ctx, page)
	})
}

func (m Model) markRead(id int64) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return mutationDoneMsg{op: notify.OpMarkRead, id: id, err: mgr.MarkAsRead(ctx, id)}
	}
}

func (m Model) markAllRead() tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return mutationDoneMsg{op: notify.OpMarkAllRead, err: mgr.MarkAllAsRead(ctx)}
	}
}

func (m Model) deleteNotification(id int64) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return mutationDoneMsg{op: notify.OpDelete, id: id, err: mgr.Delete(ctx, id)}
	}
}

func (m Model) create(req model.CreateNotificationRequest) tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		n, err := mgr.Create(ctx, req)
		return createdMsg{n: n, err: err}
	}
}

func (m Model) fetchStats() tea.Cmd {
	mgr := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		stats, err := mgr.Stats(ctx)
		return statsMsg{stats: stats, err: err}
	}
}

// exportSnapshot writes the current page and low-stock list to path.
func (m Model) exportSnapshot(path string) tea.Cmd {
	s := m.manager.Snapshot()
	return func() tea.Msg {
		written, err := export.WriteXLSX(path, export.Workbook{
			Notifications: s.Notifications,
			LowStock:      s.LowStock,
		})
		if err != nil {
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: written, count: len(s.Notifications) + len(s.LowStock)}
	}
}

func (m Model) setToken(token string) tea.Cmd {
	sess := m.session
	mgr := m.manager
	return func() tea.Msg {
		if err := sess.SetToken(token); err != nil {
			return tokenResultMsg{err: err}
		}
		// A new session may belong to another user.
		mgr.Reset(context.Background())
		return tokenResultMsg{}
	}
}

// defaultExportPath names an export file after the current time.
func defaultExportPath(now time.Time) string {
	return fmt.Sprintf("notifications-%s.xlsx", now.Format("20060102-150405"))
}
