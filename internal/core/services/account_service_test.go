package services

import (
	"context"
	"testing"

	"streamcast/internal/core/domain"
	"streamcast/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_RegisterViewer(t *testing.T) {
	svc := NewAccountService(memory.NewUserRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "password123", "Alice", "")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleViewer, user.Role)
	assert.Empty(t, user.StreamKey)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "password123", user.PasswordHash)
}

func TestAccountService_RegisterStreamerGetsStreamKey(t *testing.T) {
	svc := NewAccountService(memory.NewUserRepository())

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "password123", "Alice", domain.RoleStreamer)
	require.NoError(t, err)
	assert.NotEmpty(t, user.StreamKey)
}

func TestAccountService_RegisterDuplicateUsername(t *testing.T) {
	svc := NewAccountService(memory.NewUserRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123", "Alice", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@example.com", "password456", "Other", "")
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestAccountService_Login(t *testing.T) {
	svc := NewAccountService(memory.NewUserRepository())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "alice@example.com", "password123", "Alice", "")
	require.NoError(t, err)

	user, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.False(t, user.LastLogin.IsZero())
}

func TestAccountService_LoginWrongPassword(t *testing.T) {
	svc := NewAccountService(memory.NewUserRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123", "Alice", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAccountService_LoginUnknownUser(t *testing.T) {
	svc := NewAccountService(memory.NewUserRepository())

	// Unknown user and wrong password are indistinguishable to the caller
	_, err := svc.Login(context.Background(), "nobody", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAccountService_UpdateProfile(t *testing.T) {
	svc := NewAccountService(memory.NewUserRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "password123", "Alice", "")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user.ID, "New Nick", "")
	require.NoError(t, err)
	assert.Equal(t, "New Nick", updated.Nickname)
	assert.Equal(t, "alice@example.com", updated.Email)
}
