package repositories

import (
	"context"

	"streamcast/internal/core/ports"
	"streamcast/internal/infrastructure/repositories/memory"
	redisrepo "streamcast/internal/infrastructure/repositories/redis"
	"streamcast/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory creates repositories, preferring Redis-backed user storage when
// configured and reachable, with fallback to memory.
type Factory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

func NewFactory(cfg *config.Config, logger *zap.SugaredLogger) (*Factory, error) {
	factory := &Factory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory user repository",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis user repository")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory user repository")
	}

	return factory, nil
}

// CreateUserRepository returns the configured user storage backend.
func (f *Factory) CreateUserRepository() ports.UserRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewUserRepository(f.redisClient)
	}
	return memory.NewUserRepository()
}

// CreatePresenceRegistry returns the in-memory presence registry. Presence is
// single-process authoritative state, so there is no Redis variant.
func (f *Factory) CreatePresenceRegistry() ports.PresenceRegistry {
	return memory.NewPresenceRegistry()
}

// Close closes the Redis connection if one was opened.
func (f *Factory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseClient(f.redisClient)
	}
	return nil
}

// HealthCheck pings Redis when it is the active backend.
func (f *Factory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
