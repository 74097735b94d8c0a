package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// UserRepository stores users as JSON blobs with username and stream-key
// secondary indexes, plus a set of streamer IDs for directory listing.
type UserRepository struct {
	client *redis.Client
	prefix string
}

func NewUserRepository(client *redis.Client) ports.UserRepository {
	return &UserRepository{
		client: client,
		prefix: "streamcast:user:",
	}
}

func (r *UserRepository) userKey(id domain.UserID) string {
	return r.prefix + string(id)
}

func (r *UserRepository) usernameKey(username string) string {
	return r.prefix + "username:" + username
}

func (r *UserRepository) streamKeyKey(streamKey string) string {
	return r.prefix + "streamkey:" + streamKey
}

func (r *UserRepository) streamersKey() string {
	return r.prefix + "streamers"
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	// Claim the username index first so duplicate registrations lose the race
	ok, err := r.client.SetNX(ctx, r.usernameKey(user.Username), string(user.ID), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to index username in Redis: %w", err)
	}
	if !ok {
		return domain.ErrUserExists
	}

	if err := r.write(ctx, user); err != nil {
		return err
	}

	if user.StreamKey != "" {
		if err := r.client.Set(ctx, r.streamKeyKey(user.StreamKey), string(user.ID), 0).Err(); err != nil {
			return fmt.Errorf("failed to index stream key in Redis: %w", err)
		}
	}
	if user.Role == domain.RoleStreamer {
		if err := r.client.SAdd(ctx, r.streamersKey(), string(user.ID)).Err(); err != nil {
			return fmt.Errorf("failed to add user to streamers set: %w", err)
		}
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Redis: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getByIndex(ctx, r.usernameKey(username))
}

func (r *UserRepository) GetByStreamKey(ctx context.Context, streamKey string) (*domain.User, error) {
	return r.getByIndex(ctx, r.streamKeyKey(streamKey))
}

func (r *UserRepository) getByIndex(ctx context.Context, indexKey string) (*domain.User, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user index in Redis: %w", err)
	}
	return r.GetByID(ctx, domain.UserID(id))
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	existing, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}

	if existing.Username != user.Username {
		if err := r.client.Del(ctx, r.usernameKey(existing.Username)).Err(); err != nil {
			return fmt.Errorf("failed to drop stale username index: %w", err)
		}
		if err := r.client.Set(ctx, r.usernameKey(user.Username), string(user.ID), 0).Err(); err != nil {
			return fmt.Errorf("failed to index username in Redis: %w", err)
		}
	}
	if existing.StreamKey != user.StreamKey {
		if existing.StreamKey != "" {
			if err := r.client.Del(ctx, r.streamKeyKey(existing.StreamKey)).Err(); err != nil {
				return fmt.Errorf("failed to drop stale stream key index: %w", err)
			}
		}
		if user.StreamKey != "" {
			if err := r.client.Set(ctx, r.streamKeyKey(user.StreamKey), string(user.ID), 0).Err(); err != nil {
				return fmt.Errorf("failed to index stream key in Redis: %w", err)
			}
		}
	}

	return r.write(ctx, user)
}

func (r *UserRepository) ListStreamers(ctx context.Context) ([]*domain.User, error) {
	ids, err := r.client.SMembers(ctx, r.streamersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list streamers from Redis: %w", err)
	}

	streamers := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		user, err := r.GetByID(ctx, domain.UserID(id))
		if err == domain.ErrUserNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		streamers = append(streamers, user)
	}
	return streamers, nil
}

func (r *UserRepository) write(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := r.client.Set(ctx, r.userKey(user.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set user in Redis: %w", err)
	}
	return nil
}
