// Package memory keeps accounts in process memory. It backs local runs
// without PostgreSQL and the HTTP-level tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/models"
	"github.com/upb/mala-backoffice/repositories"
)

// UserRepository implements repositories.UserRepository over a map.
type UserRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*models.User
	byName map[string]uuid.UUID
}

// NewUserRepository creates an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:   make(map[uuid.UUID]*models.User),
		byName: make(map[string]uuid.UUID),
	}
}

// NewRepositories returns the memory-backed repository set
func NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{Users: NewUserRepository()}
}

// Create stores a copy of user. Usernames are unique ignoring case.
func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	name := models.NormalizeUsername(user.Username)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("user %q: %w", name, repositories.ErrDuplicate)
	}
	if _, ok := r.byID[user.ID]; ok {
		return fmt.Errorf("user %s: %w", user.ID, repositories.ErrDuplicate)
	}
	r.byID[user.ID] = clone(user)
	r.byName[name] = user.ID
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	return clone(u), nil
}

// GetByUsername retrieves a user by username, ignoring case
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	name := models.NormalizeUsername(username)

	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", name, repositories.ErrNotFound)
	}
	return clone(r.byID[id]), nil
}

// Update replaces a stored account. Tests use it to change roles,
// permissions or the active flag between requests.
func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[user.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", user.ID, repositories.ErrNotFound)
	}
	delete(r.byName, models.NormalizeUsername(old.Username))
	r.byID[user.ID] = clone(user)
	r.byName[models.NormalizeUsername(user.Username)] = user.ID
	return nil
}

func clone(u *models.User) *models.User {
	c := *u
	c.Permissions = make(auth.PermissionSet, len(u.Permissions))
	for p := range u.Permissions {
		c.Permissions[p] = struct{}{}
	}
	return &c
}
