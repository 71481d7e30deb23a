package notify

import (
	"errors"
	"fmt"

	"github.com/nhle/inventory-desk/internal/api"
)

// Fallback messages shown when the server sends none.
const (
	MsgFetchFailed       = "Failed to fetch notifications"
	MsgMarkReadFailed    = "Failed to mark notification as read"
	MsgMarkAllReadFailed = "Failed to mark all notifications as read"
	MsgDeleteFailed      = "Failed to delete notification"
	MsgCreateFailed      = "Failed to create notification"
	MsgStatsFailed       = "Failed to fetch notification statistics"
)

// Operation names a manager action, used in errors and logs.
type Operation string

const (
	OpFetchPage   Operation = "fetch_page"
	OpRefresh     Operation = "refresh"
	OpMarkRead    Operation = "mark_read"
	OpMarkAllRead Operation = "mark_all_read"
	OpDelete      Operation = "delete"
	OpCreate      Operation = "create"
	OpStats       Operation = "stats"
)

// OpError is the error returned by every failing manager operation.
// Message is safe to show to the user; Err keeps the underlying cause.
type OpError struct {
	Op      Operation
	Message string
	Err     error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// newOpError wraps err, preferring the server's message over fallback.
func newOpError(op Operation, err error, fallback string) *OpError {
	msg := api.ServerMessage(err)
	if msg == "" {
		msg = fallback
	}
	return &OpError{Op: op, Message: msg, Err: err}
}

// UserMessage returns the user-facing message for err.
func UserMessage(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
