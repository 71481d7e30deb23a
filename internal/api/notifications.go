package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/inventory-desk/internal/model"
)

// ListNotifications fetches one page of the current user's notifications.
func (c *Client) ListNotifications(
	ctx context.Context,
	page int,
	perPage int,
) (*ListResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var resp ListResponse
	if err := c.get(ctx, "/notifications?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("listing notifications page %d: %w", page, err)
	}
	if resp.Data == nil {
		resp.Data = []model.Notification{}
	}
	return &resp, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp UnreadCountResponse
	if err := c.get(ctx, "/notifications/unread-count", &resp); err != nil {
		return 0, fmt.Errorf("fetching unread count: %w", err)
	}
	return resp.Count, nil
}

// LowStock fetches up to limit low-stock notifications.
func (c *Client) LowStock(ctx context.Context, limit int) ([]model.Notification, error) {
	var resp LowStockResponse
	path := "/notifications/low-stock?limit=" + strconv.Itoa(limit)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetching low-stock notifications: %w", err)
	}
	if resp.Data == nil {
		resp.Data = []model.Notification{}
	}
	return resp.Data, nil
}

// MarkRead marks a single notification as read.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	var resp MessageResponse
	path := fmt.Sprintf("/notifications/%d/read", id)
	if err := c.patch(ctx, path, nil, &resp); err != nil {
		return fmt.Errorf("marking notification %d as read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every notification as read and returns how many
// records the server updated.
func (c *Client) MarkAllRead(ctx context.Context) (int, error) {
	var resp MarkAllResponse
	if err := c.patch(ctx, "/notifications/mark-all-read", nil, &resp); err != nil {
		return 0, fmt.Errorf("marking all notifications as read: %w", err)
	}
	return resp.Count, nil
}

// DeleteNotification removes a notification.
func (c *Client) DeleteNotification(ctx context.Context, id int64) error {
	var resp MessageResponse
	path := fmt.Sprintf("/notifications/%d", id)
	if err := c.delete(ctx, path, &resp); err != nil {
		return fmt.Errorf("deleting notification %d: %w", id, err)
	}
	return nil
}

// CreateNotification creates a notification (admin only).
func (c *Client) CreateNotification(
	ctx context.Context,
	req model.CreateNotificationRequest,
) (*model.Notification, error) {
	var resp CreateResponse
	if err := c.post(ctx, "/notifications", req, &resp); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	return &resp.Data, nil
}

// Stats returns the server's notification statistics (admin only).
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var resp StatsResponse
	if err := c.get(ctx, "/notifications/stats", &resp); err != nil {
		return nil, fmt.Errorf("fetching notification stats: %w", err)
	}
	if resp.Data == nil {
		resp.Data = map[string]any{}
	}
	return resp.Data, nil
}
