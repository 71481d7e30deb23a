package api

import (
	"errors"
	"fmt"
)

// AuthError indicates that the session is missing, invalid, or expired.
// It is returned when the API answers 401.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Error is a non-2xx response from the notification API.
type Error struct {
	StatusCode int
	Method     string
	Path       string

	// Message is the server-provided "message" field, if any.
	Message string

	// Body is the raw response body, kept for logging.
	Body string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf(
			"api error (%d) on %s %s: %s",
			e.StatusCode, e.Method, e.Path, e.Message,
		)
	}
	return fmt.Sprintf(
		"unexpected status %d on %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Body,
	)
}

// ServerMessage returns the server-provided message carried by err,
// or "" when err is not an API error or the server sent none.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return ""
}
