package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/mala-backoffice/services"
	"github.com/upb/mala-backoffice/utils"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{"not found error", services.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"validation error", services.ErrInvalidCredentials, http.StatusBadRequest, "bad_request"},
		{"unauthorized error", services.ErrNoSession, http.StatusUnauthorized, "unauthorized"},
		{"forbidden error", services.ErrAccountDisabled, http.StatusForbidden, "forbidden"},
		{"conflict error", services.ErrDuplicateUsername, http.StatusConflict, "conflict"},
		{"internal error", services.ErrDatabaseError.Wrap(errors.New("conn reset")), http.StatusInternalServerError, "internal_error"},
		{"unknown error", errors.New("some unknown error"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expectedError, response.Error)
			assert.NotEmpty(t, response.Message)
		})
	}
}

func TestHandleServiceErrorHidesInternalCause(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, services.ErrDatabaseError.Wrap(errors.New("password=hunter2")), zap.NewNop())

	assert.NotContains(t, w.Body.String(), "hunter2")
}

func TestHandleServiceErrorNil(t *testing.T) {
	w := httptest.NewRecorder()
	HandleServiceError(w, nil, zap.NewNop())
	assert.Equal(t, 0, w.Body.Len())
}

func TestHandleValidationError(t *testing.T) {
	t.Run("field errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleValidationError(w, utils.ValidateStruct(&LoginRequest{}), zap.NewNop())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Validation failed", response.Message)
		assert.Contains(t, response.Details, "username")
		assert.Contains(t, response.Details, "password")
	})

	t.Run("generic error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleValidationError(w, errors.New("request body is empty"), zap.NewNop())

		var response utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "request body is empty", response.Message)
	})
}
