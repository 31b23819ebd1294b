package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndParse(t *testing.T) {
	token, err := Generate(secret, "alice", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParse_Rejects(t *testing.T) {
	token, err := Generate(secret, "alice", "user", time.Hour)
	require.NoError(t, err)

	_, err = Parse([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalid)

	expired, err := Generate(secret, "alice", "user", -time.Minute)
	require.NoError(t, err)
	_, err = Parse(secret, expired)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Parse(secret, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Parse(nil, token)
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestInspect_IgnoresSignature(t *testing.T) {
	token, err := Generate([]byte("server-only"), "bob", "user", time.Hour)
	require.NoError(t, err)

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.Equal(t, "user", claims.Role)

	_, err = Inspect("garbage")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}
