package memory

import (
	"context"
	"sync"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"
)

type UserRepository struct {
	mu          sync.RWMutex
	users       map[domain.UserID]*domain.User
	byUsername  map[string]domain.UserID
	byStreamKey map[string]domain.UserID
}

func NewUserRepository() ports.UserRepository {
	return &UserRepository{
		users:       make(map[domain.UserID]*domain.User),
		byUsername:  make(map[string]domain.UserID),
		byStreamKey: make(map[string]domain.UserID),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return domain.ErrUserExists
	}

	copied := *user
	r.users[user.ID] = &copied
	r.byUsername[user.Username] = user.ID
	if user.StreamKey != "" {
		r.byStreamKey[user.StreamKey] = user.ID
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byUsername[username]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	copied := *r.users[id]
	return &copied, nil
}

func (r *UserRepository) GetByStreamKey(ctx context.Context, streamKey string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byStreamKey[streamKey]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	copied := *r.users[id]
	return &copied, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.users[user.ID]
	if !exists {
		return domain.ErrUserNotFound
	}

	// Keep secondary indexes in sync
	if existing.Username != user.Username {
		delete(r.byUsername, existing.Username)
		r.byUsername[user.Username] = user.ID
	}
	if existing.StreamKey != user.StreamKey {
		delete(r.byStreamKey, existing.StreamKey)
		if user.StreamKey != "" {
			r.byStreamKey[user.StreamKey] = user.ID
		}
	}

	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *UserRepository) ListStreamers(ctx context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var streamers []*domain.User
	for _, user := range r.users {
		if user.Role == domain.RoleStreamer {
			copied := *user
			streamers = append(streamers, &copied)
		}
	}
	return streamers, nil
}
