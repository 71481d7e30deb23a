package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/inventory-desk/internal/ui/command"
)

// executeCommand runs a ":" command line.
func (m Model) executeCommand(line string) (tea.Model, tea.Cmd) {
	name, arg := command.Parse(line)
	m.logger.Debug("command", zap.String("name", name))

	switch name {
	case "":
		return m, nil

	case "refresh", "r":
		return m, m.refresh()

	case "next", "n":
		return m, m.loadNext()

	case "prev", "previous", "p":
		return m, m.loadPrevious()

	case "first":
		return m, m.goToPage(1)

	case "last":
		return m, m.goToPage(m.state.Pagination.TotalPages)

	case "page":
		page, err := strconv.Atoi(arg)
		if err != nil || page < 1 {
			m.flash = errorFlash("Usage: page <n>")
			return m, nil
		}
		if !m.state.Pagination.Contains(page) {
			m.flash = errorFlash(fmt.Sprintf("Page %d is out of range (1-%d)", page, m.state.Pagination.TotalPages))
			return m, nil
		}
		return m, m.goToPage(page)

	case "read all", "mark all", "readall":
		return m, m.markAllRead()

	case "compose", "new":
		m.currentView = ViewCompose
		cmd := m.composeView.Start()
		return m, cmd

	case "stats":
		next, cmd, _ := m.openStats()
		return next, cmd

	case "export":
		path := arg
		if path == "" {
			path = defaultExportPath(time.Now())
		}
		return m, m.exportSnapshot(path)

	case "token":
		if arg == "" {
			m.currentView = ViewSignIn
			cmd := m.signinView.Start("Paste a session token.")
			return m, cmd
		}
		return m, m.setToken(arg)

	case "logout":
		m.refresher.Stop()
		m.manager.Reset(context.Background())
		if err := m.session.Clear(); err != nil {
			m.flash = errorFlash(fmt.Sprintf("Logout failed: %v", err))
			return m, nil
		}
		m.currentView = ViewSignIn
		cmd := m.signinView.Start("Signed out.")
		return m, cmd

	case "lowstock", "low":
		m.showLowStock = !m.showLowStock
		if !m.showLowStock {
			m.lowStock.Blur()
		}
		m.resize()
		return m, nil

	case "help":
		m.previousView = ViewList
		m.currentView = ViewHelp
		return m, nil

	case "quit", "q":
		m.refresher.Stop()
		return m, tea.Quit

	default:
		m.flash = errorFlash(fmt.Sprintf("Unknown command: %s", name))
		return m, nil
	}
}
