package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/inventory-desk/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: every ":memory:" connection is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// cachedRow is a row of cached_notifications.
type cachedRow struct {
	List      string       `db:"list"`
	Position  int          `db:"position"`
	ID        int64        `db:"id"`
	Type      string       `db:"type"`
	Title     string       `db:"title"`
	Message   string       `db:"message"`
	Priority  string       `db:"priority"`
	Category  string       `db:"category"`
	IsRead    int          `db:"is_read"`
	ReadAt    sql.NullTime `db:"read_at"`
	CreatedAt string       `db:"created_at"`
	Data      string       `db:"data"`
}

// metaRow is the single row of snapshot_meta.
type metaRow struct {
	ID          int       `db:"id"`
	UnreadCount int       `db:"unread_count"`
	CurrentPage int       `db:"current_page"`
	LastPage    int       `db:"last_page"`
	Total       int       `db:"total"`
	PerPage     int       `db:"per_page"`
	SavedAt     time.Time `db:"saved_at"`
}

// SaveSnapshot replaces the cached snapshot in a single transaction.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cached_notifications"); err != nil {
		return fmt.Errorf("clearing cached notifications: %w", err)
	}

	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshot_meta (
			id, unread_count, current_page, last_page, total, per_page, saved_at
		) VALUES (1, ?, ?, ?, ?, ?, ?)`,
		snap.UnreadCount, snap.Meta.CurrentPage, snap.Meta.LastPage,
		snap.Meta.Total, snap.Meta.PerPage, savedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing snapshot meta: %w", err)
	}

	const query = `
		INSERT INTO cached_notifications (
			list, position, id, type,
			title, message, priority, category,
			is_read, read_at, created_at, data
		) VALUES (
			?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	lists := []struct {
		name  List
		items []model.Notification
	}{
		{ListPage, snap.Notifications},
		{ListLowStock, snap.LowStock},
	}
	for _, l := range lists {
		for pos, n := range l.items {
			row, err := toRow(l.name, pos, n)
			if err != nil {
				return err
			}
			_, err = stmt.ExecContext(ctx,
				row.List, row.Position, row.ID, row.Type,
				row.Title, row.Message, row.Priority, row.Category,
				row.IsRead, row.ReadAt, row.CreatedAt, row.Data,
			)
			if err != nil {
				return fmt.Errorf("caching notification %d: %w", n.ID, err)
			}
		}
	}

	return tx.Commit()
}

// LoadSnapshot returns the cached snapshot, or nil when none is stored.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	var meta metaRow
	err := s.db.GetContext(ctx, &meta, "SELECT * FROM snapshot_meta WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot meta: %w", err)
	}

	var rows []cachedRow
	err = s.db.SelectContext(ctx, &rows,
		"SELECT * FROM cached_notifications ORDER BY list, position",
	)
	if err != nil {
		return nil, fmt.Errorf("querying cached notifications: %w", err)
	}

	snap := &model.Snapshot{
		Notifications: []model.Notification{},
		LowStock:      []model.Notification{},
		UnreadCount:   meta.UnreadCount,
		Meta: model.PageMeta{
			CurrentPage: meta.CurrentPage,
			LastPage:    meta.LastPage,
			Total:       meta.Total,
			PerPage:     meta.PerPage,
		},
		SavedAt: meta.SavedAt,
	}
	for _, r := range rows {
		n, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		switch List(r.List) {
		case ListPage:
			snap.Notifications = append(snap.Notifications, n)
		case ListLowStock:
			snap.LowStock = append(snap.LowStock, n)
		}
	}

	return snap, nil
}

// ClearSnapshot removes the cached snapshot.
func (s *SQLiteStore) ClearSnapshot(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cached_notifications"); err != nil {
		return fmt.Errorf("clearing cached notifications: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot_meta"); err != nil {
		return fmt.Errorf("clearing snapshot meta: %w", err)
	}

	return tx.Commit()
}

// CachedUnread returns the distinct unread records held in the cache,
// newest first.
func (s *SQLiteStore) CachedUnread(ctx context.Context) ([]model.Notification, error) {
	var rows []cachedRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM cached_notifications
		WHERE is_read = 0
		GROUP BY id
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications: %w", err)
	}

	out := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		n, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func toRow(list List, pos int, n model.Notification) (cachedRow, error) {
	data := "{}"
	if len(n.Data) > 0 {
		b, err := json.Marshal(n.Data)
		if err != nil {
			return cachedRow{}, fmt.Errorf("marshaling data for notification %d: %w", n.ID, err)
		}
		data = string(b)
	}

	row := cachedRow{
		List:      string(list),
		Position:  pos,
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Priority:  string(n.Priority),
		Category:  string(n.Category),
		IsRead:    boolToInt(n.IsRead),
		CreatedAt: n.CreatedAt,
		Data:      data,
	}
	if n.ReadAt != nil {
		row.ReadAt = sql.NullTime{Time: n.ReadAt.UTC(), Valid: true}
	}
	return row, nil
}

func fromRow(r cachedRow) (model.Notification, error) {
	n := model.Notification{
		ID:        r.ID,
		Type:      model.NotificationType(r.Type),
		Title:     r.Title,
		Message:   r.Message,
		Priority:  model.Priority(r.Priority),
		Category:  model.Category(r.Category),
		IsRead:    r.IsRead != 0,
		CreatedAt: r.CreatedAt,
	}
	if r.ReadAt.Valid {
		t := r.ReadAt.Time
		n.ReadAt = &t
	}
	if r.Data != "" && r.Data != "{}" {
		if err := json.Unmarshal([]byte(r.Data), &n.Data); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshaling data for notification %d: %w", r.ID, err)
		}
	}
	return n, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
