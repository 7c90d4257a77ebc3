package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/models"
	"github.com/upb/mala-backoffice/repositories"
	"go.uber.org/zap"
)

// AuthService checks back-office credentials and loads accounts for
// session refreshes.
type AuthService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewAuthService creates a new AuthService instance
func NewAuthService(users repositories.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		logger: logger,
	}
}

// Authenticate returns the account for username if it is active and the
// password matches.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = models.NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput.WithDetail("reason", "username and password are required")
	}

	user, err := s.lookup(ctx, func() (*models.User, error) {
		return s.users.GetByUsername(ctx, username)
	})
	if err != nil {
		return nil, err
	}

	if !VerifyPassword(user.PasswordHash, password) {
		s.logger.Info("password mismatch", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// LoadUser re-reads an account by ID. Deactivated accounts are refused.
func (s *AuthService) LoadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.lookup(ctx, func() (*models.User, error) {
		return s.users.GetByID(ctx, id)
	})
}

func (s *AuthService) lookup(ctx context.Context, get func() (*models.User, error)) (*models.User, error) {
	user, err := get()
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to load user", zap.Error(err))
		return nil, ErrDatabaseError.Wrap(err)
	}
	if !user.Active {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// SeedAdmin creates an administrator holding every catalog permission
// unless an account with that username already exists. It reports whether
// an account was created.
func (s *AuthService) SeedAdmin(ctx context.Context, username, password, name string) (bool, error) {
	username = models.NormalizeUsername(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return false, ErrInvalidInput.WithDetail("reason", "seed username and password are required")
	}

	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return false, ErrDatabaseError.Wrap(err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(username, hash, auth.RoleAdmin, name, auth.Catalog...)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return false, nil
		}
		return false, ErrDatabaseError.Wrap(err)
	}

	s.logger.Info("seeded admin account", zap.String("username", username))
	return true, nil
}
