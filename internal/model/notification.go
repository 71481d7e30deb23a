package model

import "time"

// NotificationType identifies the business event behind a notification.
// The set is open: unknown values from the server are kept as-is.
type NotificationType string

const (
	TypeLowStock        NotificationType = "low_stock"
	TypeSaleCreated     NotificationType = "sale_created"
	TypePurchaseCreated NotificationType = "purchase_created"
	TypeStockUpdated    NotificationType = "stock_updated"
)

// Priority is the urgency level assigned by the server.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Category groups notifications by business area.
type Category string

const (
	CategoryGeneral   Category = "general"
	CategoryInventory Category = "inventory"
	CategorySales     Category = "sales"
	CategoryPurchases Category = "purchases"
	CategorySystem    Category = "system"
)

// Notification is a single alert surfaced to a back-office user.
type Notification struct {
	// ID is the server-assigned identifier.
	ID int64 `json:"id"`

	// Type identifies the event that produced this notification.
	Type NotificationType `json:"type"`

	// Title is the short headline.
	Title string `json:"title"`

	// Message is the human-readable body.
	Message string `json:"message"`

	// Priority is the urgency level.
	Priority Priority `json:"priority"`

	// Category is the business area.
	Category Category `json:"category"`

	// IsRead indicates whether the user has seen this notification.
	IsRead bool `json:"is_read"`

	// ReadAt is set when IsRead becomes true.
	ReadAt *time.Time `json:"read_at"`

	// CreatedAt is the ISO-8601 creation timestamp as sent by the server.
	CreatedAt string `json:"created_at"`

	// Data holds an optional free-form payload (e.g. product_id).
	Data map[string]any `json:"data,omitempty"`

	// TimeAgo is derived from CreatedAt when the record is fetched.
	TimeAgo string `json:"-"`
}

// MarkRead flags the notification as read and stamps ReadAt.
func (n *Notification) MarkRead(at time.Time) {
	n.IsRead = true
	n.ReadAt = &at
}

// Clone returns a copy that shares no mutable state with n.
func (n Notification) Clone() Notification {
	c := n
	if n.ReadAt != nil {
		t := *n.ReadAt
		c.ReadAt = &t
	}
	if n.Data != nil {
		c.Data = make(map[string]any, len(n.Data))
		for k, v := range n.Data {
			c.Data[k] = v
		}
	}
	return c
}

// ProductID returns the related product id from Data, if any.
func (n Notification) ProductID() (int64, bool) {
	v, ok := n.Data["product_id"]
	if !ok {
		return 0, false
	}
	switch id := v.(type) {
	case float64:
		return int64(id), true
	case int64:
		return id, true
	case int:
		return int64(id), true
	}
	return 0, false
}

// PageMeta is the pagination block returned with a notification list.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
	PerPage     int `json:"per_page"`
}

// CreateNotificationRequest is the admin payload for POST /notifications.
type CreateNotificationRequest struct {
	Type     NotificationType `json:"type"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
	Priority Priority         `json:"priority,omitempty"`
	Category Category         `json:"category,omitempty"`
	Data     map[string]any   `json:"data,omitempty"`
}

// Snapshot is the persisted form of the notification center state,
// used to render the last known data before the first fetch completes.
type Snapshot struct {
	Notifications []Notification
	LowStock      []Notification
	UnreadCount   int
	Meta          PageMeta
	SavedAt       time.Time
}
