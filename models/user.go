package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/mala-backoffice/internal/auth"
)

// User represents a back-office account (staff member or administrator)
type User struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	Username     string             `json:"username" db:"username"`
	PasswordHash string             `json:"-" db:"password_hash"`
	Role         auth.Role          `json:"role" db:"role"`
	Name         string             `json:"name" db:"name"`
	Active       bool               `json:"active" db:"active"`
	Permissions  auth.PermissionSet `json:"permissions" db:"permissions"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new active User instance
func NewUser(username, passwordHash string, role auth.Role, name string, perms ...auth.Permission) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New(),
		Username:     NormalizeUsername(username),
		PasswordHash: passwordHash,
		Role:         role,
		Name:         name,
		Active:       true,
		Permissions:  auth.NewPermissionSet(perms...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeUsername trims and lower-cases a username for lookups
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == auth.RoleAdmin
}

// Session builds the authorization snapshot for this user
func (u *User) Session() auth.Session {
	perms := make(auth.PermissionSet, len(u.Permissions))
	for p := range u.Permissions {
		perms[p] = struct{}{}
	}
	return auth.Session{
		Username:    u.Username,
		Role:        u.Role,
		Permissions: perms,
	}
}

// Profile is the public view of a user returned after login
type Profile struct {
	ID          uuid.UUID          `json:"id"`
	Username    string             `json:"username"`
	Role        auth.Role          `json:"role"`
	Name        string             `json:"name"`
	Active      bool               `json:"active"`
	Permissions auth.PermissionSet `json:"permissions"`
}

// Profile returns the public view of the user
func (u *User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		Name:        u.Name,
		Active:      u.Active,
		Permissions: u.Permissions,
	}
}
