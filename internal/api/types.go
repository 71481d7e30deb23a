package api

import "github.com/nhle/inventory-desk/internal/model"

// ListResponse is the response from GET /notifications.
type ListResponse struct {
	Success bool                 `json:"success"`
	Data    []model.Notification `json:"data"`
	Meta    model.PageMeta       `json:"meta"`
}

// UnreadCountResponse is the response from GET /notifications/unread-count.
type UnreadCountResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

// LowStockResponse is the response from GET /notifications/low-stock.
type LowStockResponse struct {
	Success bool                 `json:"success"`
	Data    []model.Notification `json:"data"`
	Count   int                  `json:"count"`
}

// MessageResponse is returned by mark-read and delete.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MarkAllResponse is the response from PATCH /notifications/mark-all-read.
type MarkAllResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// CreateResponse is the response from POST /notifications.
type CreateResponse struct {
	Success bool               `json:"success"`
	Data    model.Notification `json:"data"`
	Message string             `json:"message"`
}

// StatsResponse is the response from GET /notifications/stats.
// The shape of Data is owned by the server.
type StatsResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}

// errorResponse is the error body format used by the API.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
