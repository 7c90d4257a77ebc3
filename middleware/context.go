package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/internal/session"
)

// Context key type to avoid collisions
type contextKey string

const (
	// SessionKey is the context key for the auth.Session snapshot
	SessionKey contextKey = "session"

	// SessionIDKey is the context key for the registry session ID
	SessionIDKey contextKey = "session_id"

	// ClaimsKey is the context key for verified session token claims
	ClaimsKey contextKey = "claims"
)

// SessionFromContext returns the session snapshot attached to ctx, or the
// anonymous session when there is none.
func SessionFromContext(ctx context.Context) auth.Session {
	if val := ctx.Value(SessionKey); val != nil {
		if s, ok := val.(auth.Session); ok {
			return s
		}
	}
	return auth.Anonymous()
}

// WithSession adds a session snapshot to the context
func WithSession(ctx context.Context, s auth.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionIDFromContext retrieves the registry session ID from context
func SessionIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if val := ctx.Value(SessionIDKey); val != nil {
		if id, ok := val.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

// WithSessionID adds a registry session ID to the context
func WithSessionID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

// ClaimsFromContext retrieves verified token claims from context
func ClaimsFromContext(ctx context.Context) *session.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*session.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds verified token claims to the context
func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
