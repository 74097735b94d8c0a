package ports

import (
	"context"

	"streamcast/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByStreamKey(ctx context.Context, streamKey string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	ListStreamers(ctx context.Context) ([]*domain.User, error)
}

// PresenceRegistry is the authoritative in-memory state of live sessions and
// viewer sets. Every operation is atomic with respect to concurrent callers
// and none of them block, so no context is threaded through.
type PresenceRegistry interface {
	// StartSession creates the live session for path iff none exists.
	// Returns domain.ErrAlreadyLive otherwise (first publisher wins).
	StartSession(path domain.StreamPath, publisher *domain.User) (*domain.StreamSession, error)

	// EndSession removes the live session for path. A stop for an absent
	// session is absorbed as a no-op; the returned bool reports whether a
	// session actually existed.
	EndSession(path domain.StreamPath) bool

	IsLive(path domain.StreamPath) bool
	ListLive() []domain.LiveStream

	// Join and Leave are idempotent per (path, connection) pair and return
	// the resulting viewer count. Leave reclaims empty sets.
	Join(path domain.StreamPath, id domain.ConnectionID) int
	Leave(path domain.StreamPath, id domain.ConnectionID) int

	// MoveConnection atomically leaves from (may be empty for none) and
	// joins to, so a connection is never counted on two paths at once.
	MoveConnection(from, to domain.StreamPath, id domain.ConnectionID) (fromCount, toCount int)

	ViewerCount(path domain.StreamPath) int
}
