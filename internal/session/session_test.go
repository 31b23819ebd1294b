package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinsuchenak/circuits/internal/auth"
)

func TestSession_Empty(t *testing.T) {
	s := New()
	_, err := s.Token()
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.False(t, s.Active())
}

func TestSession_StartWithJWT(t *testing.T) {
	token, err := auth.Generate([]byte("k"), "alice", "admin", time.Hour)
	require.NoError(t, err)

	s := New()
	s.Start(token)

	got, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.Equal(t, "alice", s.Username())
	assert.Equal(t, "admin", s.Role())
	assert.False(t, s.ExpiresAt().IsZero())
}

func TestSession_ExpiryTearsDown(t *testing.T) {
	token, err := auth.Generate([]byte("k"), "alice", "user", time.Minute)
	require.NoError(t, err)

	s := FromToken(token)
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, err = s.Token()
	assert.ErrorIs(t, err, ErrExpired)

	_, err = s.Token()
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Empty(t, s.Role())
}

func TestSession_OpaqueToken(t *testing.T) {
	s := FromToken("opaque")
	got, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "opaque", got)
	assert.True(t, s.ExpiresAt().IsZero())
}

func TestSession_Clear(t *testing.T) {
	s := FromToken("opaque")
	s.Clear()
	assert.False(t, s.Active())
	assert.False(t, FromToken("").Active())
}
