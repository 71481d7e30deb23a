package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inventory-desk/internal/api"
	"github.com/nhle/inventory-desk/internal/model"
	"github.com/nhle/inventory-desk/internal/timeago"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(f *fakeAPI, cache Cache) *Manager {
	return NewManager(f, Options{
		PerPage:       10,
		LowStockLimit: 20,
		Cache:         cache,
		Now:           func() time.Time { return fixedNow },
	})
}

func ids(items []model.Notification) []int64 {
	out := make([]int64, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func TestFetchPage_ReplacesListWithServerPage(t *testing.T) {
	f := newFakeAPI(25, 4)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	res, err := m.FetchPage(ctx, 2, 10)
	require.NoError(t, err)

	want := []int64{11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	assert.Equal(t, want, ids(res.Notifications))
	assert.Equal(t, want, ids(m.Snapshot().Notifications))
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 3, Total: 25, PerPage: 10}, m.Snapshot().Pagination)
	assert.False(t, m.Snapshot().Loading)
}

func TestFetchPage_StampsTimeAgo(t *testing.T) {
	f := newFakeAPI(2, 0)
	f.records[1].CreatedAt = "garbage"
	m := newTestManager(f, nil)

	_, err := m.FetchPage(context.Background(), 1, 10)
	require.NoError(t, err)

	s := m.Snapshot()
	assert.Equal(t, "1 minute ago", s.Notifications[0].TimeAgo)
	assert.Equal(t, timeago.Fallback, s.Notifications[1].TimeAgo)
}

func TestFetchPage_RejectsInvalidPage(t *testing.T) {
	f := newFakeAPI(5, 0)
	m := newTestManager(f, nil)

	_, err := m.FetchPage(context.Background(), 0, 10)
	assert.ErrorIs(t, err, ErrInvalidPage)
	assert.Equal(t, 0, f.calls())
}

func TestFetchPage_FailureKeepsPreviousState(t *testing.T) {
	f := newFakeAPI(25, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	before := m.Snapshot()

	f.listErr = &api.Error{StatusCode: 503, Message: "Database unavailable"}
	_, err = m.FetchPage(ctx, 2, 10)
	require.Error(t, err)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "Database unavailable", opErr.Message)

	after := m.Snapshot()
	assert.Equal(t, ids(before.Notifications), ids(after.Notifications))
	assert.Equal(t, before.Pagination, after.Pagination)
	assert.Equal(t, "Database unavailable", after.Error)
	assert.False(t, after.Loading)
}

func TestFetchPage_TransportFailureUsesGenericMessage(t *testing.T) {
	f := newFakeAPI(5, 0)
	f.listErr = errors.New("dial tcp: connection refused")
	m := newTestManager(f, nil)

	_, err := m.FetchPage(context.Background(), 1, 10)
	require.Error(t, err)
	assert.Equal(t, MsgFetchFailed, UserMessage(err))
	assert.Equal(t, MsgFetchFailed, m.Snapshot().Error)
}

func TestFetchPage_SuccessClearsError(t *testing.T) {
	f := newFakeAPI(5, 0)
	f.listErr = errors.New("boom")
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, _ = m.FetchPage(ctx, 1, 10)
	require.NotEmpty(t, m.Snapshot().Error)

	f.listErr = nil
	_, err := m.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, m.Snapshot().Error)
}

func TestGoToPage_LastPartialPage(t *testing.T) {
	f := newFakeAPI(25, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, 1, 10)
	require.NoError(t, err)

	res, err := m.GoToPage(ctx, 3)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, []int64{21, 22, 23, 24, 25}, ids(res.Notifications))

	s := m.Snapshot()
	assert.Equal(t, 3, s.Pagination.CurrentPage)
	assert.Equal(t, 3, s.Pagination.TotalPages)
}

func TestGoToPage_NoOps(t *testing.T) {
	f := newFakeAPI(25, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, 2, 10)
	require.NoError(t, err)
	calls := f.calls()

	for _, page := range []int{0, 2, 4, -1} {
		res, err := m.GoToPage(ctx, page)
		require.NoError(t, err)
		assert.True(t, res.Skipped, "page %d", page)
	}
	assert.Equal(t, calls, f.calls())
}

func TestLoadNext_OnLastPageIsNoOp(t *testing.T) {
	f := newFakeAPI(25, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, 3, 10)
	require.NoError(t, err)
	before := m.Snapshot()
	calls := f.calls()

	res, err := m.LoadNext(ctx)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, calls, f.calls())
	assert.Equal(t, before, m.Snapshot())
}

func TestLoadNextAndPrevious_Navigate(t *testing.T) {
	f := newFakeAPI(25, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	res, err := m.LoadPrevious(ctx)
	require.NoError(t, err)
	assert.True(t, res.Skipped, "no page loaded yet")

	_, err = m.FetchPage(ctx, 1, 10)
	require.NoError(t, err)

	res, err = m.LoadPrevious(ctx)
	require.NoError(t, err)
	assert.True(t, res.Skipped, "already on first page")

	res, err = m.LoadNext(ctx)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, res.Pagination.CurrentPage)
	assert.Equal(t, int64(11), res.Notifications[0].ID)

	res, err = m.LoadPrevious(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pagination.CurrentPage)
	assert.Len(t, m.Snapshot().Notifications, 10)

	assert.Equal(t, []int{1, 2, 1}, f.pagesAsked)
}

func TestFetchClassOperations_AreMutuallyExclusive(t *testing.T) {
	f := newFakeAPI(25, 0)
	f.block = make(chan struct{})
	f.started = make(chan struct{})
	started := f.started
	m := newTestManager(f, nil)
	ctx := context.Background()

	done := make(chan FetchResult)
	go func() {
		res, _ := m.FetchPage(ctx, 1, 10)
		done <- res
	}()
	<-started

	assert.True(t, m.Snapshot().Loading)

	second, err := m.FetchPage(ctx, 2, 10)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	refresh, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, refresh.Skipped)

	close(f.block)
	first := <-done

	assert.False(t, first.Skipped)
	assert.Equal(t, 1, f.calls())
	assert.Equal(t, []int{1}, f.pagesAsked)
	assert.Equal(t, 1, m.Snapshot().Pagination.CurrentPage)
	assert.False(t, m.Snapshot().Loading)
}

func TestReset_DiscardsInFlightFetch(t *testing.T) {
	cache := &memoryCache{}
	f := newFakeAPI(25, 0)
	m := newTestManager(f, cache)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)
	require.NotNil(t, cache.snap)

	f.mu.Lock()
	f.block = make(chan struct{})
	f.started = make(chan struct{})
	started := f.started
	f.mu.Unlock()

	done := make(chan FetchResult)
	go func() {
		res, _ := m.GoToPage(ctx, 2)
		done <- res
	}()
	<-started

	m.Reset(ctx)
	s := m.Snapshot()
	assert.Empty(t, s.Notifications)
	assert.True(t, s.Loading, "the running fetch keeps its slot")
	assert.Nil(t, cache.snap)

	// The slot is still taken, so no second fetch runs alongside.
	other, err := m.FetchPage(ctx, 3, 10)
	require.NoError(t, err)
	assert.True(t, other.Skipped)

	close(f.block)
	stale := <-done
	assert.True(t, stale.Skipped)

	s = m.Snapshot()
	assert.Empty(t, s.Notifications)
	assert.False(t, s.Loading)
	assert.Zero(t, s.Pagination.CurrentPage)
	assert.Equal(t, 10, s.Pagination.PerPage)
	assert.Nil(t, cache.snap, "nothing from before the reset is cached")
	assert.Equal(t, []int{1, 2}, f.pagesAsked)

	// A fetch after the reset installs and caches normally.
	_, err = m.FetchPage(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, m.Snapshot().Notifications, 10)
	assert.NotNil(t, cache.snap)
}

func TestRefresh_FailureKeepsCurrentPage(t *testing.T) {
	f := newFakeAPI(25, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, 3, 10)
	require.NoError(t, err)

	f.listErr = errors.New("connection refused")
	_, err = m.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, MsgFetchFailed, UserMessage(err))

	s := m.Snapshot()
	assert.Equal(t, []int64{21, 22, 23, 24, 25}, ids(s.Notifications))
	assert.Equal(t, 3, s.Pagination.CurrentPage)
	assert.Equal(t, MsgFetchFailed, s.Error)
	assert.False(t, s.Loading)

	// Navigation still works from the page actually shown.
	f.listErr = nil
	res, err := m.GoToPage(ctx, 1)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, m.Snapshot().Pagination.CurrentPage)
	assert.Equal(t, []int{3, 1, 1}, f.pagesAsked)
}

func TestMutations_NotBlockedByInFlightFetch(t *testing.T) {
	f := newFakeAPI(5, 5)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	f.block = make(chan struct{})
	f.started = make(chan struct{})
	started := f.started
	done := make(chan struct{})
	go func() {
		_, _ = m.FetchPage(ctx, 1, 10)
		close(done)
	}()
	<-started

	require.NoError(t, m.MarkAsRead(ctx, 1))
	assert.Equal(t, 4, m.Snapshot().UnreadCount)

	close(f.block)
	<-done
}

func TestRefresh_LoadsPageCountAndLowStock(t *testing.T) {
	f := newFakeAPI(25, 4)
	f.lowStock = []model.Notification{
		{ID: 100, Type: model.TypeLowStock, CreatedAt: "2024-05-01T11:00:00Z"},
		{ID: 101, Type: model.TypeLowStock, CreatedAt: "2024-05-01T11:30:00Z"},
	}
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, 3, 10)
	require.NoError(t, err)

	res, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, res.Skipped)

	s := m.Snapshot()
	assert.Equal(t, 1, s.Pagination.CurrentPage)
	assert.Equal(t, 4, s.UnreadCount)
	assert.Equal(t, []int64{100, 101}, ids(s.LowStock))
	assert.Equal(t, "1 hour ago", s.LowStock[0].TimeAgo)
	assert.Equal(t, 1, f.unreadCalls)
}

func TestRefresh_SecondaryFailuresDoNotFail(t *testing.T) {
	f := newFakeAPI(5, 2)
	f.lowStock = []model.Notification{{ID: 100, Type: model.TypeLowStock}}
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	f.lowStockErr = errors.New("low-stock endpoint down")
	f.unreadErr = errors.New("unread endpoint down")
	_, err = m.Refresh(ctx)
	require.NoError(t, err)

	s := m.Snapshot()
	assert.Empty(t, s.Error)
	assert.Equal(t, []int64{100}, ids(s.LowStock))
	assert.Equal(t, 2, s.UnreadCount)
}

func TestMarkAsRead_IsIdempotent(t *testing.T) {
	f := newFakeAPI(10, 4)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, m.Snapshot().UnreadCount)

	require.NoError(t, m.MarkAsRead(ctx, 1))
	require.NoError(t, m.MarkAsRead(ctx, 1))
	require.NoError(t, m.MarkAsRead(ctx, 7)) // already read

	s := m.Snapshot()
	assert.Equal(t, 3, s.UnreadCount)
	n, ok := s.Find(1)
	require.True(t, ok)
	assert.True(t, n.IsRead)
	require.NotNil(t, n.ReadAt)
	assert.Equal(t, fixedNow, *n.ReadAt)
}

func TestMarkAsRead_UnreadCountNeverNegative(t *testing.T) {
	f := newFakeAPI(3, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.MarkAsRead(ctx, 999))
	}
	assert.Equal(t, 0, m.Snapshot().UnreadCount)
}

func TestMarkAsRead_UpdatesLowStockCopy(t *testing.T) {
	f := newFakeAPI(3, 3)
	f.lowStock = []model.Notification{{ID: 2, Type: model.TypeLowStock}}
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, m.MarkAsRead(ctx, 2))

	s := m.Snapshot()
	assert.True(t, s.LowStock[0].IsRead)
	assert.NotNil(t, s.LowStock[0].ReadAt)
	assert.True(t, s.Notifications[1].IsRead)
	assert.Equal(t, 2, s.UnreadCount, "one record, one decrement")
}

func TestMarkAsRead_FailureLeavesStateUnchanged(t *testing.T) {
	f := newFakeAPI(3, 3)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	f.markErr = &api.Error{StatusCode: 403, Message: "Forbidden"}
	err = m.MarkAsRead(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, "Forbidden", UserMessage(err))

	s := m.Snapshot()
	assert.Equal(t, 3, s.UnreadCount)
	assert.False(t, s.Notifications[0].IsRead)
	assert.Equal(t, "Forbidden", s.Error)
}

func TestMarkAllAsRead(t *testing.T) {
	f := newFakeAPI(10, 4)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, m.Snapshot().UnreadCount)

	require.NoError(t, m.MarkAllAsRead(ctx))

	s := m.Snapshot()
	assert.Equal(t, 0, s.UnreadCount)
	require.Len(t, s.Notifications, 10)
	for _, n := range s.Notifications {
		assert.True(t, n.IsRead)
		assert.NotNil(t, n.ReadAt)
	}
}

func TestMarkAllAsRead_FailureSurfacesGenericMessage(t *testing.T) {
	f := newFakeAPI(2, 2)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	f.markErr = errors.New("timeout")
	err = m.MarkAllAsRead(ctx)
	require.Error(t, err)
	assert.Equal(t, MsgMarkAllReadFailed, UserMessage(err))
	assert.Equal(t, 2, m.Snapshot().UnreadCount)
}

func TestDelete_RemovesFromBothCollections(t *testing.T) {
	f := newFakeAPI(25, 4)
	f.lowStock = []model.Notification{{ID: 2, Type: model.TypeLowStock}, {ID: 30, Type: model.TypeLowStock}}
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, 2))

	s := m.Snapshot()
	assert.NotContains(t, ids(s.Notifications), int64(2))
	assert.Equal(t, []int64{30}, ids(s.LowStock))
	assert.Equal(t, 24, s.Pagination.Total)
	assert.Equal(t, 3, s.UnreadCount)
	assert.Equal(t, []int64{1, 3, 4, 5, 6, 7, 8, 9, 10}, ids(s.Notifications), "order is preserved")
}

func TestDelete_ReadRecordKeepsUnreadCount(t *testing.T) {
	f := newFakeAPI(10, 2)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, 9))

	s := m.Snapshot()
	assert.Equal(t, 2, s.UnreadCount)
	assert.Equal(t, 9, s.Pagination.Total)
}

func TestDelete_LastItemOnPageDoesNotNavigate(t *testing.T) {
	f := newFakeAPI(11, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.FetchPage(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, m.Snapshot().Notifications, 1)
	calls := f.calls()

	require.NoError(t, m.Delete(ctx, 11))

	s := m.Snapshot()
	assert.Empty(t, s.Notifications)
	assert.Equal(t, 10, s.Pagination.Total)
	assert.Equal(t, 2, s.Pagination.CurrentPage)
	assert.True(t, s.ShouldRetreat())
	assert.Equal(t, calls, f.calls())
}

func TestDelete_FailureKeepsRecord(t *testing.T) {
	f := newFakeAPI(3, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	err = m.Delete(ctx, 42)
	require.Error(t, err)
	assert.Equal(t, "Notification not found", UserMessage(err))
	assert.Len(t, m.Snapshot().Notifications, 3)
	assert.Equal(t, 3, m.Snapshot().Pagination.Total)
}

func TestSubscribe_ReceivesLatestSnapshot(t *testing.T) {
	f := newFakeAPI(3, 3)
	m := newTestManager(f, nil)
	ctx := context.Background()

	updates, unsubscribe := m.Subscribe()
	defer unsubscribe()

	_, err := m.Refresh(ctx)
	require.NoError(t, err)

	var last State
	select {
	case last = <-updates:
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
	assert.False(t, last.Loading)
	assert.Len(t, last.Notifications, 3)
	assert.Equal(t, 3, last.UnreadCount)

	unsubscribe()
	_, ok := <-updates
	assert.False(t, ok, "channel closed after unsubscribe")
}

func TestSnapshot_IsACopy(t *testing.T) {
	f := newFakeAPI(3, 3)
	m := newTestManager(f, nil)

	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	s := m.Snapshot()
	s.Notifications[0].IsRead = true
	s.Notifications = s.Notifications[:1]

	assert.Len(t, m.Snapshot().Notifications, 3)
	assert.False(t, m.Snapshot().Notifications[0].IsRead)
}

func TestCacheHydrateAndReset(t *testing.T) {
	cache := &memoryCache{}
	f := newFakeAPI(12, 2)
	ctx := context.Background()

	first := newTestManager(f, cache)
	_, err := first.Refresh(ctx)
	require.NoError(t, err)
	require.NotNil(t, cache.snap)

	second := newTestManager(f, cache)
	ok, err := second.Hydrate(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	s := second.Snapshot()
	assert.Len(t, s.Notifications, 10)
	assert.Equal(t, 2, s.UnreadCount)
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 2, Total: 12, PerPage: 10}, s.Pagination)
	assert.Equal(t, "1 minute ago", s.Notifications[0].TimeAgo)

	ok, err = second.Hydrate(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "hydrate only once")

	second.Reset(ctx)
	s = second.Snapshot()
	assert.Empty(t, s.Notifications)
	assert.Equal(t, 0, s.UnreadCount)
	assert.Equal(t, 10, s.Pagination.PerPage)
	assert.Nil(t, cache.snap)
}

func TestCreateAndStats(t *testing.T) {
	f := newFakeAPI(1, 0)
	m := newTestManager(f, nil)
	ctx := context.Background()

	created, err := m.Create(ctx, model.CreateNotificationRequest{
		Type:  model.TypeStockUpdated,
		Title: "Restocked",
	})
	require.NoError(t, err)
	assert.Equal(t, "Restocked", created.Title)
	assert.Equal(t, "now", created.TimeAgo)
	assert.Empty(t, m.Snapshot().Notifications, "create does not touch the list")

	stats, err := m.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(2), stats["total"])
}

func TestOpError_UnwrapsAuthError(t *testing.T) {
	f := newFakeAPI(1, 0)
	f.listErr = &api.AuthError{Message: "Unauthenticated."}
	m := newTestManager(f, nil)

	_, err := m.FetchPage(context.Background(), 1, 10)
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	assert.Equal(t, "Unauthenticated.", UserMessage(err))
}
