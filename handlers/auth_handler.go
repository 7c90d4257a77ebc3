package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/upb/mala-backoffice/config"
	"github.com/upb/mala-backoffice/internal/audit"
	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/internal/observability"
	"github.com/upb/mala-backoffice/middleware"
	"github.com/upb/mala-backoffice/models"
	"github.com/upb/mala-backoffice/services"
	"github.com/upb/mala-backoffice/utils"
	"go.uber.org/zap"
)

// Authenticator checks credentials and reloads accounts
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	LoadUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionRegistry is the live session store
type SessionRegistry interface {
	Begin(id uuid.UUID)
	Resolve(id uuid.UUID, s auth.Session)
	Clear(id uuid.UUID)
	Watch(ctx context.Context, id uuid.UUID) <-chan auth.Session
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(id, userID uuid.UUID, ttl time.Duration) (string, time.Time, error)
}

// LoginRequest is the body of POST /api/login
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	User      models.Profile `json:"user"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// SessionResponse describes the caller's session
type SessionResponse struct {
	Authenticated        bool               `json:"authenticated"`
	Loading              bool               `json:"loading"`
	Username             string             `json:"username,omitempty"`
	Role                 auth.Role          `json:"role,omitempty"`
	Permissions          auth.PermissionSet `json:"permissions"`
	AvailablePermissions []auth.Permission  `json:"available_permissions"`
	Landing              string             `json:"landing,omitempty"`
}

// AuthHandler handles login, logout and session endpoints
type AuthHandler struct {
	auth     Authenticator
	registry SessionRegistry
	tokens   TokenIssuer
	cfg      config.SessionConfig
	landing  func(auth.Role) string
	metrics  observability.Metrics
	audit    *audit.Recorder
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	authenticator Authenticator,
	registry SessionRegistry,
	tokens TokenIssuer,
	cfg config.SessionConfig,
	landing func(auth.Role) string,
	metrics observability.Metrics,
	recorder *audit.Recorder,
	logger *zap.Logger,
) *AuthHandler {
	if landing == nil {
		landing = auth.LandingPath
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &AuthHandler{
		auth:     authenticator,
		registry: registry,
		tokens:   tokens,
		cfg:      cfg,
		landing:  landing,
		metrics:  metrics,
		audit:    recorder,
		logger:   logger,
	}
}

// HandleLogin handles POST /api/login.
// A caller that already holds a session sees it loading while the account
// is checked. Success always starts a fresh session ID and signs the old
// one out, so a token obtained before login never gains the new identity.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.WithRequest(ctx, h.logger)

	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.metrics.RecordLogin("invalid_input")
		HandleValidationError(w, err, logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		h.metrics.RecordLogin("invalid_input")
		HandleValidationError(w, err, logger)
		return
	}

	previous, hadPrevious := middleware.SessionIDFromContext(ctx)
	if hadPrevious {
		h.registry.Begin(previous)
	}
	signOutPrevious := func() {
		if hadPrevious {
			h.registry.Clear(previous)
		}
	}

	user, err := h.auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		signOutPrevious()
		h.expireCookie(w)
		h.metrics.RecordLogin(loginOutcome(err))
		h.record(audit.ActionLogin, models.NormalizeUsername(req.Username), r, loginOutcome(err))
		logger.Info("login failed",
			zap.String("username", models.NormalizeUsername(req.Username)),
			zap.Error(err))
		HandleServiceError(w, err, logger)
		return
	}

	id := uuid.New()
	token, expires, err := h.tokens.Issue(id, user.ID, h.cfg.TTL)
	if err != nil {
		signOutPrevious()
		h.metrics.RecordLogin("error")
		HandleServiceError(w, services.WrapInternal("failed to issue session token", err), logger)
		return
	}

	signOutPrevious()
	h.registry.Resolve(id, user.Session())
	h.setCookie(w, token, expires)
	h.metrics.RecordLogin("success")
	h.record(audit.ActionLogin, user.Username, r, "success")
	logger.Info("login succeeded",
		zap.String("username", user.Username),
		zap.String("role", user.Role.String()))

	_ = utils.WriteJSON(w, http.StatusOK, LoginResponse{
		User:      user.Profile(),
		Token:     token,
		ExpiresAt: expires,
	})
}

// HandleLogout handles POST /api/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	if id, ok := middleware.SessionIDFromContext(r.Context()); ok {
		h.registry.Clear(id)
	}
	h.expireCookie(w)
	if s.Authenticated() {
		h.record(audit.ActionLogout, s.Username, r, "success")
	}
	utils.WriteNoContent(w)
}

// HandleSession handles GET /api/session
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteJSON(w, http.StatusOK, h.describe(middleware.SessionFromContext(r.Context())))
}

// HandleWait handles GET /api/session/wait. It holds the request until
// the session stops loading or the timeout passes, then reports the
// latest snapshot.
func (h *AuthHandler) HandleWait(w http.ResponseWriter, r *http.Request) {
	current := middleware.SessionFromContext(r.Context())
	id, ok := middleware.SessionIDFromContext(r.Context())
	if !ok || !current.Loading {
		_ = utils.WriteJSON(w, http.StatusOK, h.describe(current))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout(r))
	defer cancel()

	for s := range h.registry.Watch(ctx, id) {
		current = s
		if !s.Loading {
			cancel()
			break
		}
	}

	_ = utils.WriteJSON(w, http.StatusOK, h.describe(current))
}

// HandleRefresh handles POST /api/session/refresh. The account is re-read
// so role and permission changes apply without signing in again.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.WithRequest(ctx, h.logger)

	id, ok := middleware.SessionIDFromContext(ctx)
	claims := middleware.ClaimsFromContext(ctx)
	if !ok || claims == nil {
		HandleServiceError(w, services.ErrNoSession, logger)
		return
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		HandleServiceError(w, services.ErrNoSession, logger)
		return
	}

	// A signed token alone is not enough: the session must still be live,
	// so a token kept after logout cannot sign back in.
	previous := middleware.SessionFromContext(ctx)
	if previous.Loading {
		_ = utils.WriteAccepted(w, DefaultRetryAfter, PendingResponse{Status: "pending"})
		return
	}
	if !previous.Authenticated() {
		h.expireCookie(w)
		HandleServiceError(w, services.ErrNoSession, logger)
		return
	}

	h.registry.Begin(id)
	user, err := h.auth.LoadUser(ctx, userID)
	if err != nil {
		if services.IsNotFoundError(err) || services.IsForbiddenError(err) {
			h.registry.Clear(id)
			h.expireCookie(w)
		} else {
			h.registry.Resolve(id, previous)
		}
		HandleServiceError(w, err, logger)
		return
	}

	s := user.Session()
	h.registry.Resolve(id, s)
	logger.Debug("session refreshed", zap.String("username", s.Username))
	_ = utils.WriteJSON(w, http.StatusOK, h.describe(s))
}

func (h *AuthHandler) describe(s auth.Session) SessionResponse {
	resp := SessionResponse{
		Authenticated:        s.Authenticated(),
		Loading:              s.Loading,
		Permissions:          s.Permissions,
		AvailablePermissions: auth.AvailablePermissions(s),
	}
	if resp.Permissions == nil {
		resp.Permissions = auth.PermissionSet{}
	}
	if resp.Authenticated {
		resp.Username = s.Username
		resp.Role = s.Role
		resp.Landing = h.landing(s.Role)
	}
	return resp
}

// waitTimeout reads ?timeout= as a duration ("10s") or whole seconds,
// capped by the configured maximum
func (h *AuthHandler) waitTimeout(r *http.Request) time.Duration {
	limit := h.cfg.WaitTimeout
	if limit <= 0 {
		limit = 25 * time.Second
	}
	raw := r.URL.Query().Get("timeout")
	if raw == "" {
		return limit
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return limit
		}
		d = time.Duration(secs) * time.Second
	}
	if d <= 0 || d > limit {
		return limit
	}
	return d
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(h.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) record(action, principal string, r *http.Request, status string) {
	if h.audit == nil {
		return
	}
	h.audit.Record(audit.Event{
		Principal: principal,
		Action:    action,
		Path:      r.URL.Path,
		Status:    status,
	})
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, services.ErrUserNotFound):
		return "unknown_user"
	case errors.Is(err, services.ErrAccountDisabled):
		return "inactive"
	case errors.Is(err, services.ErrInvalidCredentials):
		return "bad_password"
	default:
		return "error"
	}
}
