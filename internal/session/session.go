// Package session stores the signed-in user's credentials and profile.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"todo/internal/service"
)

const (
	// AccessTTL is the access token lifetime assumed when the token carries no exp claim.
	AccessTTL = 5 * time.Minute

	// RefreshTTL is the refresh token lifetime assumed when the token carries no exp claim.
	RefreshTTL = 7 * 24 * time.Hour
)

// ErrNoSession is returned by Store.Get when nobody is signed in.
var ErrNoSession = errors.New("not logged in")

// Session is the stored credential pair plus the cached user profile.
type Session struct {
	Token         oauth2.Token `json:"token"`
	RefreshExpiry time.Time    `json:"refresh_expiry"`
	User          service.User `json:"user"`
}

// New builds a session from freshly issued tokens.
// Expiries are read from the JWT exp claims when present.
func New(access, refresh string, user service.User, now time.Time) *Session {
	accessExp, ok := tokenExpiry(access)
	if !ok {
		accessExp = now.Add(AccessTTL)
	}
	refreshExp, ok := tokenExpiry(refresh)
	if !ok {
		refreshExp = now.Add(RefreshTTL)
	}
	return &Session{
		Token: oauth2.Token{
			AccessToken:  access,
			TokenType:    "Bearer",
			RefreshToken: refresh,
			Expiry:       accessExp,
		},
		RefreshExpiry: refreshExp,
		User:          user,
	}
}

// AccessValid reports whether the access token can still be used at now.
func (s *Session) AccessValid(now time.Time) bool {
	if s == nil || s.Token.AccessToken == "" {
		return false
	}
	return s.Token.Expiry.IsZero() || now.Before(s.Token.Expiry)
}

// RefreshValid reports whether the refresh token is still within its lifetime.
func (s *Session) RefreshValid(now time.Time) bool {
	if s == nil || s.Token.RefreshToken == "" {
		return false
	}
	return s.RefreshExpiry.IsZero() || now.Before(s.RefreshExpiry)
}

// tokenExpiry extracts the exp claim without verifying the signature;
// the backend is the one that verifies.
func tokenExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Store persists the session.
type Store interface {
	// Get returns the current session or ErrNoSession.
	Get(ctx context.Context) (*Session, error)

	// Set replaces the current session.
	Set(ctx context.Context, s *Session) error

	// Clear removes the session entirely. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu sync.RWMutex
	s  *Session
}

// NewMemoryStore returns a MemoryStore holding s (which may be nil).
func NewMemoryStore(s *Session) *MemoryStore {
	return &MemoryStore{s: s}
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.s == nil {
		return nil, ErrNoSession
	}
	cp := *m.s
	return &cp, nil
}

// Set implements Store.
func (m *MemoryStore) Set(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = nil
	return nil
}
