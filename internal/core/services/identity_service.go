package services

import (
	"context"
	"fmt"
	"time"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"
	"streamcast/pkg/cache"

	"go.uber.org/zap"
)

const streamerCacheTTL = 30 * time.Second

// identityService implements ports.IdentityGateway against user storage.
// Publish authorization is fail-closed: lookup errors, timeouts and role
// mismatches all come back as ErrNotAuthorized. Viewer identity resolution
// never fails a connection; it downgrades to anonymous instead.
type identityService struct {
	userRepo         ports.UserRepository
	authService      AuthService
	authorizeTimeout time.Duration
	streamerCache    *cache.Cache
	logger           *zap.SugaredLogger
}

func NewIdentityService(
	userRepo ports.UserRepository,
	authService AuthService,
	authorizeTimeout time.Duration,
	logger *zap.SugaredLogger,
) ports.IdentityGateway {
	return &identityService{
		userRepo:         userRepo,
		authService:      authService,
		authorizeTimeout: authorizeTimeout,
		streamerCache:    cache.New(streamerCacheTTL),
		logger:           logger,
	}
}

func (s *identityService) AuthorizePublish(ctx context.Context, streamKey string) (*domain.User, error) {
	if streamKey == "" {
		return nil, domain.ErrNotAuthorized
	}

	ctx, cancel := context.WithTimeout(ctx, s.authorizeTimeout)
	defer cancel()

	user, err := s.userRepo.GetByStreamKey(ctx, streamKey)
	if err != nil {
		// Fail closed: an ambiguous lookup must never grant a publish
		s.logger.Warnw("publish authorization lookup failed",
			"stream_key", streamKey,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthorized, err)
	}

	if !user.CanPublish() {
		s.logger.Infow("publish denied for non-streamer role",
			"username", user.Username,
			"role", user.Role,
		)
		return nil, domain.ErrNotAuthorized
	}

	return user, nil
}

func (s *identityService) ResolveViewerIdentity(ctx context.Context, token string) domain.Principal {
	if token == "" {
		return domain.Anonymous("")
	}

	claims, err := s.authService.ValidateToken(token)
	if err != nil {
		s.logger.Debugw("viewer token rejected, downgrading to anonymous", "error", err)
		return domain.Anonymous("")
	}

	ctx, cancel := context.WithTimeout(ctx, s.authorizeTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		s.logger.Debugw("viewer lookup failed, downgrading to anonymous",
			"user_id", claims.UserID,
			"error", err,
		)
		return domain.Anonymous(claims.Username)
	}

	display := user.Nickname
	if display == "" {
		display = user.Username
	}
	return domain.Principal{
		UserID:        user.ID,
		DisplayName:   display,
		Authenticated: true,
	}
}

func (s *identityService) LookupStreamerByUsername(ctx context.Context, username string) (*domain.User, error) {
	if cached, ok := s.streamerCache.Get(username); ok {
		user := cached.(domain.User)
		return &user, nil
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleStreamer && user.Role != domain.RoleAdmin {
		return nil, domain.ErrUserNotFound
	}

	s.streamerCache.Set(username, *user)
	return user, nil
}
