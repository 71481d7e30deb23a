// Package session tracks whether the user holds a usable API session.
package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	gosync "sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/nhle/inventory-desk/internal/credential"
)

// EnvToken is the environment variable that overrides the stored token.
const EnvToken = "INVENTORY_DESK_TOKEN"

// ErrTokenExpired is returned by SetToken for a JWT whose exp has passed.
var ErrTokenExpired = errors.New("token is expired")

// ErrEmptyToken is returned by SetToken for a blank token.
var ErrEmptyToken = errors.New("token must not be empty")

// Source tells where the current token came from.
type Source string

const (
	SourceNone    Source = ""
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
)

// TokenStore persists the token between runs.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Options configures a Session.
type Options struct {
	Getenv func(string) string
	Now    func() time.Time
	Logger *zap.Logger
}

// Session holds the API session token. A token is considered valid
// until its JWT exp claim passes or the server rejects it.
type Session struct {
	store  TokenStore
	getenv func(string) string
	now    func() time.Time
	logger *zap.Logger

	mu        gosync.RWMutex
	token     string
	source    Source
	expiresAt time.Time
}

// New creates a Session. store may be nil when no keyring is available.
func New(store TokenStore, opts Options) *Session {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Session{
		store:  store,
		getenv: opts.Getenv,
		now:    opts.Now,
		logger: opts.Logger.Named("session"),
	}
}

// Load picks up a token from the environment or, failing that, the
// token store. Finding no token is not an error.
func (s *Session) Load() error {
	if token := strings.TrimSpace(s.getenv(EnvToken)); token != "" {
		s.install(token, SourceEnv)
		return nil
	}
	if s.store == nil {
		return nil
	}

	token, err := s.store.Get(credential.TokenKey)
	if errors.Is(err, credential.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading session token: %w", err)
	}
	s.install(strings.TrimSpace(token), SourceKeyring)
	return nil
}

// SetToken validates token, stores it, and makes it current.
func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if exp, ok := parseExpiry(token); ok && !s.now().Before(exp) {
		return ErrTokenExpired
	}

	if s.store != nil {
		if err := s.store.Set(credential.TokenKey, token); err != nil {
			return fmt.Errorf("saving session token: %w", err)
		}
	}
	s.install(token, SourceKeyring)
	return nil
}

// Clear forgets the token, also removing it from the token store.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.source = SourceNone
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.Delete(credential.TokenKey); err != nil {
		return fmt.Errorf("clearing session token: %w", err)
	}
	return nil
}

// Token returns the current token, or "" when none is held or the held
// one has expired. It matches api.TokenFunc.
func (s *Session) Token() string {
	if !s.Authenticated() {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a usable token is held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return false
	}
	return s.expiresAt.IsZero() || s.now().Before(s.expiresAt)
}

// Source reports where the current token came from.
func (s *Session) Source() Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// ExpiresAt returns the token's expiry, if it carries one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt, !s.expiresAt.IsZero()
}

func (s *Session) install(token string, src Source) {
	exp, _ := parseExpiry(token)

	s.mu.Lock()
	s.token = token
	s.source = src
	s.expiresAt = exp
	s.mu.Unlock()

	s.logger.Info("session token loaded",
		zap.String("source", string(src)),
		zap.Time("expires_at", exp),
	)
}

// parseExpiry reads the exp claim of a JWT without verifying the
// signature; the server remains the authority. Opaque tokens report false.
func parseExpiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
