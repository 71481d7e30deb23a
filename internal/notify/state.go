package notify

import (
	"time"

	"github.com/nhle/inventory-desk/internal/model"
)

// State is the notification store: the current page of records, the
// low-stock subset, the unread counter, and request status. Consumers
// receive State values through Manager.Snapshot and Manager.Subscribe;
// those are deep copies and may be kept freely.
type State struct {
	Notifications []model.Notification
	LowStock      []model.Notification
	UnreadCount   int
	Pagination    Pagination
	Loading       bool
	Error         string

	// LastFetched is when the current page was last loaded.
	LastFetched time.Time
}

// clone returns a deep copy of s.
func (s State) clone() State {
	c := s
	c.Notifications = cloneAll(s.Notifications)
	c.LowStock = cloneAll(s.LowStock)
	return c
}

func cloneAll(in []model.Notification) []model.Notification {
	if in == nil {
		return nil
	}
	out := make([]model.Notification, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}

// IsEmpty reports whether the current page holds no records.
func (s State) IsEmpty() bool {
	return len(s.Notifications) == 0
}

// ShouldRetreat reports whether the current page emptied out while a
// previous page exists, the situation in which a caller steps back.
func (s State) ShouldRetreat() bool {
	return len(s.Notifications) == 0 && s.Pagination.CurrentPage > 1
}

// Find returns the record with id from the main list or, failing that,
// the low-stock subset.
func (s State) Find(id int64) (model.Notification, bool) {
	if i := indexOf(s.Notifications, id); i >= 0 {
		return s.Notifications[i], true
	}
	if i := indexOf(s.LowStock, id); i >= 0 {
		return s.LowStock[i], true
	}
	return model.Notification{}, false
}

// replacePage installs a freshly fetched page, dropping the previous one.
func (s *State) replacePage(items []model.Notification, p Pagination, at time.Time) {
	s.Notifications = items
	s.Pagination = p
	s.LastFetched = at
}

// markRead flags id as read in both collections. It reports whether the
// record was found anywhere and whether it was unread before the call.
func (s *State) markRead(id int64, at time.Time) (found bool, wasUnread bool) {
	for _, list := range [][]model.Notification{s.Notifications, s.LowStock} {
		i := indexOf(list, id)
		if i < 0 {
			continue
		}
		found = true
		if !list[i].IsRead {
			wasUnread = true
			list[i].MarkRead(at)
		}
	}
	return found, wasUnread
}

// markAllRead flags every record in both collections as read.
func (s *State) markAllRead(at time.Time) {
	for i := range s.Notifications {
		s.Notifications[i].MarkRead(at)
	}
	for i := range s.LowStock {
		s.LowStock[i].MarkRead(at)
	}
	s.UnreadCount = 0
}

// remove deletes id from both collections and adjusts the counters.
// Total always drops by one because the server confirmed the delete;
// the unread counter drops only when the removed record was unread.
func (s *State) remove(id int64) {
	wasUnread := false

	if i := indexOf(s.Notifications, id); i >= 0 {
		wasUnread = !s.Notifications[i].IsRead
		s.Notifications = append(s.Notifications[:i:i], s.Notifications[i+1:]...)
	}
	if i := indexOf(s.LowStock, id); i >= 0 {
		wasUnread = wasUnread || !s.LowStock[i].IsRead
		s.LowStock = append(s.LowStock[:i:i], s.LowStock[i+1:]...)
	}

	s.Pagination.Total = nonNegative(s.Pagination.Total - 1)
	if wasUnread {
		s.decrementUnread()
	}
}

func (s *State) decrementUnread() {
	s.UnreadCount = nonNegative(s.UnreadCount - 1)
}

// reset empties the store, keeping the configured page size and the
// loading flag, which belongs to whichever fetch holds the slot.
func (s *State) reset() {
	perPage, loading := s.Pagination.PerPage, s.Loading
	*s = State{Loading: loading}
	s.Pagination.PerPage = perPage
}

func indexOf(list []model.Notification, id int64) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
