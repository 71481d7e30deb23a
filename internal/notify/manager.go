// Package notify owns the client-side notification state: the current
// page, the unread counter, and the low-stock subset. All mutation goes
// through Manager; views read snapshots.
package notify

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/inventory-desk/internal/api"
	"github.com/nhle/inventory-desk/internal/model"
	"github.com/nhle/inventory-desk/internal/timeago"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultPerPage       = 10
	DefaultLowStockLimit = 20
)

// ErrInvalidPage is returned by FetchPage for pages below 1.
var ErrInvalidPage = errors.New("page must be 1 or greater")

// API is the subset of the notification HTTP API used by the manager.
type API interface {
	ListNotifications(ctx context.Context, page, perPage int) (*api.ListResponse, error)
	UnreadCount(ctx context.Context) (int, error)
	LowStock(ctx context.Context, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int, error)
	DeleteNotification(ctx context.Context, id int64) error
	CreateNotification(ctx context.Context, req model.CreateNotificationRequest) (*model.Notification, error)
	Stats(ctx context.Context) (map[string]any, error)
}

// Cache persists snapshots between runs. Implementations must be safe
// for concurrent use.
type Cache interface {
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
	LoadSnapshot(ctx context.Context) (*model.Snapshot, error)
	ClearSnapshot(ctx context.Context) error
}

// Options configures a Manager.
type Options struct {
	PerPage       int
	LowStockLimit int

	// Cache is optional.
	Cache  Cache
	Logger *zap.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// FetchResult is the outcome of a fetch-class operation. Skipped is
// true when the call was rejected as a no-op and no request was made.
type FetchResult struct {
	Notifications []model.Notification
	Pagination    Pagination
	Skipped       bool
}

// Manager coordinates fetching, paging and mutating notifications.
//
// Fetch-class operations (FetchPage, Refresh, LoadNext, LoadPrevious,
// GoToPage) are mutually exclusive: while one runs, the others return
// a skipped result immediately. Mutations are never blocked by a fetch
// and change local state only after the server confirms them.
type Manager struct {
	api           API
	cache         Cache
	logger        *zap.Logger
	now           func() time.Time
	lowStockLimit int

	mu    gosync.Mutex
	state State
	subs  map[chan State]struct{}

	// epoch counts resets. Work started under an older epoch must not
	// touch state or the cache.
	epoch uint64

	// cacheMu orders snapshot writes against the clear done by Reset.
	cacheMu gosync.Mutex
}

// NewManager creates a Manager backed by client.
func NewManager(client API, opts Options) *Manager {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.LowStockLimit <= 0 {
		opts.LowStockLimit = DefaultLowStockLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Manager{
		api:           client,
		cache:         opts.Cache,
		logger:        opts.Logger.Named("notify"),
		now:           opts.Now,
		lowStockLimit: opts.LowStockLimit,
		subs:          make(map[chan State]struct{}),
	}
	m.state.Pagination.PerPage = opts.PerPage
	return m
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe returns a channel that receives a snapshot after every state
// change, and a function to stop the subscription. A subscriber that
// falls behind only ever sees the latest snapshot.
func (m *Manager) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once gosync.Once
	unsubscribe := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			close(ch)
			m.mu.Unlock()
		})
	}
	return ch, unsubscribe
}

// publishLocked sends the current state to every subscriber.
// Callers must hold m.mu.
func (m *Manager) publishLocked() {
	if len(m.subs) == 0 {
		return
	}
	snap := m.state.clone()
	for ch := range m.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the stale pending snapshot with the latest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// FetchPage loads exactly the given page, replacing the current list.
func (m *Manager) FetchPage(ctx context.Context, page, perPage int) (FetchResult, error) {
	if page < 1 {
		return FetchResult{}, &OpError{Op: OpFetchPage, Message: MsgFetchFailed, Err: ErrInvalidPage}
	}
	epoch, ok := m.acquire(func(State) bool { return true })
	if !ok {
		return m.skipped(OpFetchPage), nil
	}
	defer m.release(epoch)

	return m.load(ctx, OpFetchPage, epoch, page, perPage)
}

// LoadNext loads the page after the current one. It is a no-op on the
// last page or while another fetch is running.
func (m *Manager) LoadNext(ctx context.Context) (FetchResult, error) {
	var target int
	epoch, ok := m.acquire(func(s State) bool {
		target = s.Pagination.CurrentPage + 1
		return s.Pagination.HasNext()
	})
	if !ok {
		return m.skipped(OpFetchPage), nil
	}
	defer m.release(epoch)

	return m.load(ctx, OpFetchPage, epoch, target, 0)
}

// LoadPrevious loads the page before the current one. It is a no-op on
// the first page or while another fetch is running.
func (m *Manager) LoadPrevious(ctx context.Context) (FetchResult, error) {
	var target int
	epoch, ok := m.acquire(func(s State) bool {
		target = s.Pagination.CurrentPage - 1
		return s.Pagination.HasPrevious()
	})
	if !ok {
		return m.skipped(OpFetchPage), nil
	}
	defer m.release(epoch)

	return m.load(ctx, OpFetchPage, epoch, target, 0)
}

// GoToPage loads page directly. It is a no-op when page is outside
// [1, TotalPages], already current, or another fetch is running.
func (m *Manager) GoToPage(ctx context.Context, page int) (FetchResult, error) {
	epoch, ok := m.acquire(func(s State) bool {
		return s.Pagination.Contains(page) && page != s.Pagination.CurrentPage
	})
	if !ok {
		return m.skipped(OpFetchPage), nil
	}
	defer m.release(epoch)

	return m.load(ctx, OpFetchPage, epoch, page, 0)
}

// Refresh returns to page 1 and reloads it together with the unread
// count and the low-stock subset. Only the page fetch decides the
// outcome; failures of the two secondary fetches are logged.
func (m *Manager) Refresh(ctx context.Context) (FetchResult, error) {
	epoch, ok := m.acquire(func(s State) bool { return true })
	if !ok {
		return m.skipped(OpRefresh), nil
	}
	defer m.release(epoch)

	// A failed page fetch cancels the secondary fetches; their previous
	// values stay in place.
	g, gctx := errgroup.WithContext(ctx)
	var result FetchResult

	g.Go(func() error {
		var err error
		result, err = m.load(gctx, OpRefresh, epoch, 1, 0)
		return err
	})
	g.Go(func() error {
		m.refreshUnreadCount(gctx, epoch)
		return nil
	})
	g.Go(func() error {
		m.refreshLowStock(gctx, epoch)
		return nil
	})
	if err := g.Wait(); err != nil {
		return FetchResult{}, err
	}

	return result, nil
}

// refreshUnreadCount re-reads the unread counter from the server.
func (m *Manager) refreshUnreadCount(ctx context.Context, epoch uint64) {
	count, err := m.api.UnreadCount(ctx)
	if err != nil {
		m.logger.Warn("unread count refresh failed", zap.Error(err))
		return
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.state.UnreadCount = nonNegative(count)
	m.publishLocked()
	m.mu.Unlock()
}

// refreshLowStock re-reads the low-stock subset from the server.
func (m *Manager) refreshLowStock(ctx context.Context, epoch uint64) {
	items, err := m.api.LowStock(ctx, m.lowStockLimit)
	if err != nil {
		m.logger.Warn("low-stock refresh failed", zap.Error(err))
		return
	}
	m.stampTimeAgo(items)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	m.state.LowStock = items
	m.publishLocked()
	m.mu.Unlock()
}

// acquire marks the manager as loading if no fetch is running and
// guard accepts the current state. Both checks happen under one lock.
// It returns the epoch the fetch runs under.
func (m *Manager) acquire(guard func(State) bool) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Loading || !guard(m.state) {
		return 0, false
	}
	m.state.Loading = true
	m.publishLocked()
	return m.epoch, true
}

// release frees the fetch slot taken by acquire. The slot survives
// Reset, so release always clears Loading; the state is persisted only
// when no Reset happened in between.
func (m *Manager) release(epoch uint64) {
	m.mu.Lock()
	m.state.Loading = false
	m.publishLocked()
	snap := m.state.clone()
	m.mu.Unlock()

	m.persist(snap, epoch)
}

// skipped builds the result returned for a rejected fetch.
func (m *Manager) skipped(op Operation) FetchResult {
	m.logger.Debug("fetch skipped", zap.String("op", string(op)))
	s := m.Snapshot()
	return FetchResult{
		Notifications: s.Notifications,
		Pagination:    s.Pagination,
		Skipped:       true,
	}
}

// load performs the page request and installs the result. On failure
// the previous page stays in place and only Error changes. The caller
// must hold the fetch slot.
func (m *Manager) load(ctx context.Context, op Operation, epoch uint64, page, perPage int) (FetchResult, error) {
	if perPage <= 0 {
		m.mu.Lock()
		perPage = m.state.Pagination.PerPage
		m.mu.Unlock()
	}

	resp, err := m.api.ListNotifications(ctx, page, perPage)
	if m.stale(epoch) {
		m.logger.Debug("discarding fetch from before reset",
			zap.String("op", string(op)),
			zap.Int("page", page),
		)
		return m.skipped(op), nil
	}
	if err != nil {
		opErr := newOpError(op, err, MsgFetchFailed)
		m.logger.Warn("fetch failed",
			zap.String("op", string(op)),
			zap.Int("page", page),
			zap.Error(err),
		)
		m.setError(opErr.Message)
		return FetchResult{}, opErr
	}

	now := m.now()
	items := resp.Data
	if items == nil {
		items = []model.Notification{}
	}
	m.stampTimeAgo(items)
	pagination := paginationFromMeta(resp.Meta)

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return m.skipped(op), nil
	}
	m.state.replacePage(items, pagination, now)
	m.state.Error = ""
	m.publishLocked()
	result := FetchResult{
		Notifications: cloneAll(m.state.Notifications),
		Pagination:    m.state.Pagination,
	}
	m.mu.Unlock()

	return result, nil
}

// MarkAsRead marks id as read on the server and then locally, in both
// the main list and the low-stock subset.
func (m *Manager) MarkAsRead(ctx context.Context, id int64) error {
	if err := m.api.MarkRead(ctx, id); err != nil {
		return m.fail(OpMarkRead, err, MsgMarkReadFailed)
	}

	m.mu.Lock()
	found, wasUnread := m.state.markRead(id, m.now())
	// A record we do not hold locally may still have been unread.
	if wasUnread || !found {
		m.state.decrementUnread()
	}
	m.state.Error = ""
	m.publishLocked()
	snap, epoch := m.state.clone(), m.epoch
	m.mu.Unlock()

	m.persist(snap, epoch)
	return nil
}

// MarkAllAsRead marks every notification as read.
func (m *Manager) MarkAllAsRead(ctx context.Context) error {
	if _, err := m.api.MarkAllRead(ctx); err != nil {
		return m.fail(OpMarkAllRead, err, MsgMarkAllReadFailed)
	}

	m.mu.Lock()
	m.state.markAllRead(m.now())
	m.state.Error = ""
	m.publishLocked()
	snap, epoch := m.state.clone(), m.epoch
	m.mu.Unlock()

	m.persist(snap, epoch)
	return nil
}

// Delete removes id on the server and then from every local collection.
// It never navigates: when the current page becomes empty the caller
// decides whether to step back (see State.ShouldRetreat).
func (m *Manager) Delete(ctx context.Context, id int64) error {
	if err := m.api.DeleteNotification(ctx, id); err != nil {
		return m.fail(OpDelete, err, MsgDeleteFailed)
	}

	m.mu.Lock()
	m.state.remove(id)
	m.state.Error = ""
	m.publishLocked()
	snap, epoch := m.state.clone(), m.epoch
	m.mu.Unlock()

	m.persist(snap, epoch)
	return nil
}

// Create issues an admin create request. The list is not modified;
// callers refresh to see the new record in server order.
func (m *Manager) Create(
	ctx context.Context,
	req model.CreateNotificationRequest,
) (*model.Notification, error) {
	created, err := m.api.CreateNotification(ctx, req)
	if err != nil {
		return nil, m.fail(OpCreate, err, MsgCreateFailed)
	}
	created.TimeAgo = timeago.Format(created.CreatedAt, m.now())
	return created, nil
}

// Stats fetches the admin statistics object.
func (m *Manager) Stats(ctx context.Context) (map[string]any, error) {
	stats, err := m.api.Stats(ctx)
	if err != nil {
		return nil, m.fail(OpStats, err, MsgStatsFailed)
	}
	return stats, nil
}

// ClearError dismisses the current error message.
func (m *Manager) ClearError() {
	m.setError("")
}

// Reset empties the store and drops the persisted snapshot. It is used
// when the session is lost.
//
// A fetch still in flight keeps the fetch slot until it returns, but
// its result is discarded.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	m.epoch++
	m.state.reset()
	m.publishLocked()
	m.mu.Unlock()

	if m.cache == nil {
		return
	}
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	if err := m.cache.ClearSnapshot(ctx); err != nil {
		m.logger.Warn("clearing snapshot cache failed", zap.Error(err))
	}
}

// Hydrate installs the cached snapshot, if any, so that views have data
// before the first fetch. It does nothing once a page has been loaded.
func (m *Manager) Hydrate(ctx context.Context) (bool, error) {
	if m.cache == nil {
		return false, nil
	}
	snap, err := m.cache.LoadSnapshot(ctx)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, nil
	}

	now := m.now()
	m.stampTimeAgo(snap.Notifications)
	m.stampTimeAgo(snap.LowStock)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Loading || !m.state.LastFetched.IsZero() {
		return false, nil
	}
	perPage := m.state.Pagination.PerPage
	m.state.replacePage(snap.Notifications, paginationFromMeta(snap.Meta), snap.SavedAt)
	if m.state.Pagination.PerPage == 0 {
		m.state.Pagination.PerPage = perPage
	}
	m.state.LowStock = snap.LowStock
	m.state.UnreadCount = nonNegative(snap.UnreadCount)
	m.logger.Debug("hydrated from cache",
		zap.Int("records", len(snap.Notifications)),
		zap.Duration("age", now.Sub(snap.SavedAt)),
	)
	m.publishLocked()
	return true, nil
}

// stale reports whether a Reset happened since epoch was taken.
func (m *Manager) stale(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch != epoch
}

// fail records err as the current error and returns it as an OpError.
func (m *Manager) fail(op Operation, err error, fallback string) error {
	opErr := newOpError(op, err, fallback)
	m.logger.Warn("operation failed", zap.String("op", string(op)), zap.Error(err))
	m.setError(opErr.Message)
	return opErr
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.state.Error = msg
	m.publishLocked()
	m.mu.Unlock()
}

// stampTimeAgo fills the derived TimeAgo field of every record.
func (m *Manager) stampTimeAgo(items []model.Notification) {
	now := m.now()
	for i := range items {
		items[i].TimeAgo = timeago.Format(items[i].CreatedAt, now)
	}
}

// persist writes snap, taken under epoch, to the cache if one is
// configured. Snapshots that were never fetched from the server, or
// that predate a Reset, are not written.
func (m *Manager) persist(snap State, epoch uint64) {
	if m.cache == nil || snap.LastFetched.IsZero() {
		return
	}

	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	if m.stale(epoch) {
		return
	}

	err := m.cache.SaveSnapshot(context.Background(), model.Snapshot{
		Notifications: snap.Notifications,
		LowStock:      snap.LowStock,
		UnreadCount:   snap.UnreadCount,
		Meta: model.PageMeta{
			CurrentPage: snap.Pagination.CurrentPage,
			LastPage:    snap.Pagination.TotalPages,
			Total:       snap.Pagination.Total,
			PerPage:     snap.Pagination.PerPage,
		},
		SavedAt: snap.LastFetched,
	})
	if err != nil {
		m.logger.Warn("saving snapshot failed", zap.Error(err))
	}
}
