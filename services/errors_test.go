package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name:    "error with wrapped error",
			err:     ErrUserNotFound.Wrap(errors.New("db error")),
			wantMsg: "not_found: user not found (db error)",
		},
		{
			name:    "error without wrapped error",
			err:     ErrInvalidCredentials,
			wantMsg: "validation: invalid password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same sentinel", ErrAccountDisabled, ErrAccountDisabled, true},
		{"wrapped copy", ErrDatabaseError.Wrap(errors.New("x")), ErrDatabaseError, true},
		{"detail copy", ErrInvalidInput.WithDetail("k", "v"), ErrInvalidInput, true},
		{"same type different message", ErrInvalidCredentials, ErrInvalidInput, false},
		{"fmt wrapped", fmt.Errorf("login: %w", ErrUserNotFound), ErrUserNotFound, true},
		{"plain error", errors.New("boom"), ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetailDoesNotMutateSentinel(t *testing.T) {
	withDetail := ErrInvalidInput.WithDetail("field", "username")

	assert.Equal(t, "username", withDetail.Details["field"])
	assert.NotContains(t, ErrInvalidInput.Details, "field")
}

func TestErrorTypeHelpers(t *testing.T) {
	assert.True(t, IsNotFoundError(ErrUserNotFound))
	assert.True(t, IsValidationError(ErrInvalidCredentials))
	assert.True(t, IsUnauthorizedError(ErrNoSession))
	assert.True(t, IsForbiddenError(ErrAccountDisabled))
	assert.True(t, IsConflictError(ErrDuplicateUsername))
	assert.True(t, IsInternalError(WrapInternal("x", errors.New("y"))))
	assert.False(t, IsNotFoundError(errors.New("not found")))

	assert.Equal(t, ErrorTypeForbidden, GetErrorType(fmt.Errorf("wrap: %w", ErrForbidden)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}
