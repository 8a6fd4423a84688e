package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager("secret", "asg-rev", time.Hour)
	require.NoError(t, err)

	token, err := m.GenerateAccessToken("u1", "alice@example.com", "alice")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "access", claims.Type)
}

func TestManager_Rejects(t *testing.T) {
	m, err := NewManager("secret", "asg-rev", time.Hour)
	require.NoError(t, err)

	other, err := NewManager("other-secret", "asg-rev", time.Hour)
	require.NoError(t, err)
	foreign, err := other.GenerateAccessToken("u1", "alice@example.com", "alice")
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewManager("secret", "someone-else", time.Hour)
	require.NoError(t, err)
	token, err := wrongIssuer.GenerateAccessToken("u1", "alice@example.com", "alice")
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewManager("secret", "asg-rev", -time.Minute)
	require.NoError(t, err)
	token, err = expired.GenerateAccessToken("u1", "alice@example.com", "alice")
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManager_RequiresSecret(t *testing.T) {
	_, err := NewManager("", "asg-rev", time.Hour)
	assert.ErrorIs(t, err, ErrMissingKey)
}
