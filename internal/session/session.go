// Package session holds the bearer credential for one client session.
//
// A Session starts empty, is initialised from the token returned by a
// successful login and is torn down on logout, on a 401 from the server, or
// when the token's expiry passes. Nothing is written to disk.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/martinsuchenak/circuits/internal/auth"
)

var (
	// ErrNoCredential is returned when no token is held.
	ErrNoCredential = errors.New("not logged in")
	// ErrExpired is returned when the held token has expired. The session is cleared.
	ErrExpired = errors.New("session expired, please log in again")
)

// Session is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	token     string
	username  string
	role      string
	expiresAt time.Time
	now       func() time.Time
}

// New returns an empty session.
func New() *Session {
	return &Session{now: time.Now}
}

// FromToken returns a session started with token, or an empty one when token is "".
func FromToken(token string) *Session {
	s := New()
	if token != "" {
		s.Start(token)
	}
	return s
}

// Start replaces the held credential. Claims are read from the token when it
// is a JWT; other tokens are held with no known expiry.
func (s *Session) Start(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.username, s.role, s.expiresAt = "", "", time.Time{}
	if claims, err := auth.Inspect(token); err == nil {
		s.username = claims.Subject
		s.role = claims.Role
		if claims.ExpiresAt != nil {
			s.expiresAt = claims.ExpiresAt.Time
		}
	}
}

// Clear drops the credential.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Session) clear() {
	s.token, s.username, s.role, s.expiresAt = "", "", "", time.Time{}
}

// Token returns the bearer credential.
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return "", ErrNoCredential
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		s.clear()
		return "", ErrExpired
	}
	return s.token, nil
}

// Active reports whether a usable credential is held.
func (s *Session) Active() bool {
	_, err := s.Token()
	return err == nil
}

// Username from the token claims, if known.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Role from the token claims, if known.
func (s *Session) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// ExpiresAt is the token expiry, zero when unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}
