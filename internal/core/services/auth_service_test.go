package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_GenerateAndValidate(t *testing.T) {
	svc := NewAuthService("test-secret", 15*time.Minute, 24*time.Hour)

	token, err := svc.GenerateToken("user-1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.EqualValues(t, "user-1", claims.UserID)
}

func TestAuthService_RejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService("secret-a", 15*time.Minute, 24*time.Hour)
	verifier := NewAuthService("secret-b", 15*time.Minute, 24*time.Hour)

	token, err := issuer.GenerateToken("user-1", "alice")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RejectsExpiredToken(t *testing.T) {
	svc := NewAuthService("test-secret", -time.Minute, 24*time.Hour)

	token, err := svc.GenerateToken("user-1", "alice")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestAuthService_RejectsGarbage(t *testing.T) {
	svc := NewAuthService("test-secret", 15*time.Minute, 24*time.Hour)

	_, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RefreshToken(t *testing.T) {
	svc := NewAuthService("test-secret", 15*time.Minute, 24*time.Hour)

	refresh, err := svc.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.EqualValues(t, "user-1", claims.UserID)
}
