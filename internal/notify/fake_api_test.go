package notify

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/nhle/inventory-desk/internal/api"
	"github.com/nhle/inventory-desk/internal/model"
)

// fakeAPI simulates the notification server over an in-memory dataset.
type fakeAPI struct {
	mu       gosync.Mutex
	records  []model.Notification
	lowStock []model.Notification

	// block, when set, makes ListNotifications wait until it is closed.
	block   chan struct{}
	started chan struct{}

	listErr     error
	unreadErr   error
	lowStockErr error
	markErr     error
	deleteErr   error

	listCalls   int
	pagesAsked  []int
	unreadCalls int
}

func newFakeAPI(total int, unread int) *fakeAPI {
	f := &fakeAPI{}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= total; i++ {
		n := model.Notification{
			ID:        int64(i),
			Type:      model.TypeSaleCreated,
			Title:     fmt.Sprintf("Sale #%d", i),
			Priority:  model.PriorityMedium,
			Category:  model.CategorySales,
			IsRead:    i > unread,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute).Format(time.RFC3339),
		}
		if n.IsRead {
			at := base
			n.ReadAt = &at
		}
		f.records = append(f.records, n)
	}
	return f
}

func (f *fakeAPI) ListNotifications(ctx context.Context, page, perPage int) (*api.ListResponse, error) {
	f.mu.Lock()
	f.listCalls++
	f.pagesAsked = append(f.pagesAsked, page)
	block, started, listErr := f.block, f.started, f.listErr
	f.started = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if listErr != nil {
		return nil, listErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	total := len(f.records)
	lastPage := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	data := make([]model.Notification, end-start)
	copy(data, f.records[start:end])

	return &api.ListResponse{
		Success: true,
		Data:    data,
		Meta: model.PageMeta{
			CurrentPage: page,
			LastPage:    lastPage,
			Total:       total,
			PerPage:     perPage,
		},
	}, nil
}

func (f *fakeAPI) UnreadCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreadCalls++
	if f.unreadErr != nil {
		return 0, f.unreadErr
	}
	count := 0
	for _, n := range f.records {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeAPI) LowStock(ctx context.Context, limit int) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lowStockErr != nil {
		return nil, f.lowStockErr
	}
	out := make([]model.Notification, 0, limit)
	for _, n := range f.lowStock {
		if len(out) == limit {
			break
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeAPI) MarkRead(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].MarkRead(time.Now())
		}
	}
	return nil
}

func (f *fakeAPI) MarkAllRead(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return 0, f.markErr
	}
	count := 0
	for i := range f.records {
		if !f.records[i].IsRead {
			count++
			f.records[i].MarkRead(time.Now())
		}
	}
	return count, nil
}

func (f *fakeAPI) DeleteNotification(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return &api.Error{StatusCode: 404, Message: "Notification not found"}
}

func (f *fakeAPI) CreateNotification(ctx context.Context, req model.CreateNotificationRequest) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := model.Notification{
		ID:        int64(len(f.records) + 1000),
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}
	f.records = append([]model.Notification{n}, f.records...)
	return &n, nil
}

func (f *fakeAPI) Stats(ctx context.Context) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return map[string]any{"total": float64(len(f.records))}, nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// memoryCache is an in-memory Cache.
type memoryCache struct {
	mu    gosync.Mutex
	snap  *model.Snapshot
	saves int
}

func (c *memoryCache) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = &snap
	c.saves++
	return nil
}

func (c *memoryCache) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, nil
}

func (c *memoryCache) ClearSnapshot(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
	return nil
}
