// Package api is a thin HTTP client for the back-office notification API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/inventory-desk/internal/model"
)

// TokenFunc returns the current session token, or "" when there is none.
type TokenFunc func() string

// Client issues authenticated JSON requests against the notification API.
// It sends the session token as a cookie, tags every request with an
// X-Request-ID, and retries HTTP 429 with exponential backoff.
type Client struct {
	baseURL    string
	cookieName string
	token      TokenFunc
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates a client from the API section of the app config.
func NewClient(cfg model.APIConfig, token TokenFunc, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if token == nil {
		token = func() string { return "" }
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cookie := cfg.SessionCookie
	if cookie == "" {
		cookie = "token"
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cookieName: cookie,
		token:      token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: cfg.MaxRetries,
		logger:     logger.Named("api"),
	}
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// post performs an HTTP POST request with a JSON body.
func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// patch performs an HTTP PATCH request with an optional JSON body.
func (c *Client) patch(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// delete performs an HTTP DELETE request.
func (c *Client) delete(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, result)
}

// do is the core HTTP method that builds the request, attaches the
// session cookie, retries on rate limiting, and maps error statuses
// to typed errors.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	requestID := uuid.New().String()
	log := c.logger.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
	)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token := c.token(); token != "" {
			req.AddCookie(&http.Cookie{Name: c.cookieName, Value: token})
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Warn("request failed", zap.Error(err))
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		log.Debug("request completed",
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt),
			zap.Duration("elapsed", time.Since(start)),
		)

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			if attempt == c.maxRetries {
				break
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			msg := decodeMessage(respBody)
			if msg == "" {
				msg = "session expired or missing; sign in again"
			}
			return &AuthError{Message: msg}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &Error{
				StatusCode: resp.StatusCode,
				Method:     method,
				Path:       path,
				Message:    decodeMessage(respBody),
				Body:       string(respBody),
			}
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf(
				"unmarshaling response from %s %s: %w",
				method, path, err,
			)
		}

		return nil
	}

	return fmt.Errorf(
		"max retries (%d) exceeded: %w", c.maxRetries, lastErr,
	)
}

// decodeMessage extracts the "message" (or "error") field from an error
// body. It returns "" for bodies that are not JSON.
func decodeMessage(body []byte) string {
	var e errorResponse
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
