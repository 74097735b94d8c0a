package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultProfileImage = "/images/default-profile.png"

// AccountService manages user registration, login and profile updates.
type AccountService interface {
	Register(ctx context.Context, username, email, password, nickname string, role domain.UserRole) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, error)
	GetUser(ctx context.Context, id domain.UserID) (*domain.User, error)
	UpdateProfile(ctx context.Context, id domain.UserID, nickname, email string) (*domain.User, error)
	ListStreamers(ctx context.Context) ([]*domain.User, error)
}

type accountService struct {
	userRepo ports.UserRepository
}

func NewAccountService(userRepo ports.UserRepository) AccountService {
	return &accountService{userRepo: userRepo}
}

func (s *accountService) Register(ctx context.Context, username, email, password, nickname string, role domain.UserRole) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if role == "" {
		role = domain.RoleViewer
	}

	user := &domain.User{
		ID:           domain.UserID(uuid.New().String()),
		Username:     username,
		Email:        email,
		Nickname:     nickname,
		PasswordHash: string(hash),
		Role:         role,
		ProfileImage: defaultProfileImage,
		CreatedAt:    time.Now(),
	}

	// Streamers get a publish credential at registration time
	if user.CanPublish() {
		user.StreamKey = uuid.New().String()
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *accountService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user.LastLogin = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		// Login still succeeds if the timestamp write fails
		return user, nil
	}
	return user, nil
}

func (s *accountService) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *accountService) UpdateProfile(ctx context.Context, id domain.UserID, nickname, email string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if nickname != "" {
		user.Nickname = nickname
	}
	if email != "" {
		user.Email = email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *accountService) ListStreamers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.ListStreamers(ctx)
}
