package store

import (
	"context"

	"github.com/nhle/inventory-desk/internal/model"
)

// List names the collection a cached notification belongs to.
type List string

const (
	ListPage     List = "page"
	ListLowStock List = "low_stock"
)

// Store defines the persistence interface for the local notification
// snapshot cache.
type Store interface {
	// SaveSnapshot replaces the cached snapshot.
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error

	// LoadSnapshot returns the cached snapshot, or nil when none is stored.
	LoadSnapshot(ctx context.Context) (*model.Snapshot, error)

	// ClearSnapshot removes the cached snapshot.
	ClearSnapshot(ctx context.Context) error

	// CachedUnread returns the unread records held in the cache, newest first.
	CachedUnread(ctx context.Context) ([]model.Notification, error)

	Close() error
}
