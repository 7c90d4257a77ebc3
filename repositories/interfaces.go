package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/mala-backoffice/models"
)

// ErrNotFound is wrapped by repositories when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is wrapped by repositories when a unique constraint is violated
var ErrDuplicate = errors.New("duplicate record")

// UserRepository handles back-office account data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByUsername retrieves a user by username, ignoring case
	GetByUsername(ctx context.Context, username string) (*models.User, error)

}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users UserRepository
}
