package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/internal/observability"
	"github.com/upb/mala-backoffice/internal/session"
	"go.uber.org/zap"
)

// TokenParser verifies session tokens
type TokenParser interface {
	Parse(token string) (uuid.UUID, *session.Claims, error)
}

// SessionStore looks up live sessions by ID
type SessionStore interface {
	Snapshot(id uuid.UUID) (auth.Session, bool)
}

// SessionMiddleware attaches the caller's session snapshot to every request
type SessionMiddleware struct {
	tokens     TokenParser
	store      SessionStore
	cookieName string
	logger     *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(tokens TokenParser, store SessionStore, cookieName string, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		tokens:     tokens,
		store:      store,
		cookieName: cookieName,
		logger:     logger,
	}
}

// LoadSession never rejects a request. Missing, invalid or expired tokens
// and unknown session IDs all yield the anonymous session; the guards
// decide what anonymous callers may see.
func (m *SessionMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		current := auth.Anonymous()

		if token := m.ExtractToken(r); token != "" {
			id, claims, err := m.tokens.Parse(token)
			if err != nil {
				observability.WithRequest(ctx, m.logger).Debug("ignoring session token", zap.Error(err))
			} else {
				ctx = WithSessionID(ctx, id)
				ctx = WithClaims(ctx, claims)
				if s, ok := m.store.Snapshot(id); ok {
					current = s
				}
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, current)))
	})
}

// ExtractToken reads the session token from the Authorization header
// ("Bearer TOKEN") or the session cookie. The header takes precedence.
func (m *SessionMiddleware) ExtractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
