// Command inventory-desk is a terminal dashboard for the inventory
// back-office notification feed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nhle/inventory-desk/internal/api"
	"github.com/nhle/inventory-desk/internal/app"
	"github.com/nhle/inventory-desk/internal/credential"
	"github.com/nhle/inventory-desk/internal/logging"
	"github.com/nhle/inventory-desk/internal/model"
	"github.com/nhle/inventory-desk/internal/notify"
	"github.com/nhle/inventory-desk/internal/session"
	"github.com/nhle/inventory-desk/internal/store"
	appsync "github.com/nhle/inventory-desk/internal/sync"
	"github.com/nhle/inventory-desk/internal/theme"
	"github.com/nhle/inventory-desk/internal/timeago"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "inventory-desk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = pflag.StringP("config", "c", model.DefaultConfigPath(), "path to the config file")
		printUnread = pflag.Bool("unread", false, "print cached unread notifications and exit")
		showVersion = pflag.BoolP("version", "v", false, "print the version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Println(version)
		return nil
	}

	// A .env file is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := theme.Apply(cfg.Display.Theme); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var cache *store.SQLiteStore
	if cfg.Cache.Enabled {
		cache, err = store.NewSQLiteStore(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("opening cache: %w", err)
		}
		defer cache.Close()
	}

	if *printUnread {
		return printCachedUnread(cache)
	}

	var tokens session.TokenStore
	if ring, err := credential.Open(); err != nil {
		logger.Warn("keyring unavailable, tokens will not persist", zap.Error(err))
	} else {
		tokens = ring
	}
	sess := session.New(tokens, session.Options{Logger: logger})
	if err := sess.Load(); err != nil {
		logger.Warn("loading session", zap.Error(err))
	}

	client := api.NewClient(cfg.API, sess.Token, logger)
	opts := notify.Options{
		PerPage:       cfg.Notifications.PerPage,
		LowStockLimit: cfg.Notifications.LowStockLimit,
		Logger:        logger,
	}
	if cache != nil {
		opts.Cache = cache
	}
	manager := notify.NewManager(client, opts)

	if sess.Authenticated() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := manager.Hydrate(ctx); err != nil {
			logger.Warn("hydrating from cache", zap.Error(err))
		}
		cancel()
	}

	refresher := appsync.New(manager, cfg.Notifications.RefreshInterval(), logger)
	defer refresher.Stop()

	root := app.New(app.Deps{
		Config:    cfg,
		Manager:   manager,
		Session:   sess,
		Refresher: refresher,
		Logger:    logger,
	})

	logger.Info("starting", zap.String("version", version), zap.String("api", client.BaseURL()))
	if _, err := tea.NewProgram(root, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// printCachedUnread lists the unread records from the last session.
func printCachedUnread(cache *store.SQLiteStore) error {
	if cache == nil {
		return errors.New("the cache is disabled")
	}
	items, err := cache.CachedUnread(context.Background())
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No unread notifications cached.")
		return nil
	}
	now := time.Now()
	for _, n := range items {
		fmt.Printf("#%-6d %-18s %-8s %s (%s)\n",
			n.ID, n.Type, n.Priority, n.Title, timeago.Format(n.CreatedAt, now))
	}
	return nil
}
