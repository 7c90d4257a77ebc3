package middleware

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/upb/mala-backoffice/internal/audit"
	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/internal/observability"
	"go.uber.org/zap"
)

// Views renders the guard outcomes that do not reach the protected handler
type Views interface {
	// Pending is shown while the session is still loading.
	Pending(w http.ResponseWriter, r *http.Request)
	// Redirect sends an anonymous caller to the login page.
	Redirect(w http.ResponseWriter, r *http.Request, location string)
	// Denied explains a role or permission refusal.
	Denied(w http.ResponseWriter, r *http.Request, d auth.Decision)
}

// GuardMiddleware turns auth.Guard decisions into HTTP responses
type GuardMiddleware struct {
	guard   auth.Guard
	views   Views
	metrics observability.Metrics
	audit   *audit.Recorder
	logger  *zap.Logger
}

// NewGuardMiddleware creates a new GuardMiddleware
func NewGuardMiddleware(guard auth.Guard, views Views, metrics observability.Metrics, recorder *audit.Recorder, logger *zap.Logger) *GuardMiddleware {
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &GuardMiddleware{
		guard:   guard,
		views:   views,
		metrics: metrics,
		audit:   recorder,
		logger:  logger,
	}
}

type guardOptions struct {
	name     string
	fallback http.Handler
}

// Option customises a single guard
type Option func(*guardOptions)

// WithFallback renders h instead of the default denial view
func WithFallback(h http.Handler) Option {
	return func(o *guardOptions) { o.fallback = h }
}

// WithName labels the guard in logs and metrics. The chi route pattern is
// used otherwise.
func WithName(name string) Option {
	return func(o *guardOptions) { o.name = name }
}

// Protect applies the role layer and then the permission layer of rule
func (m *GuardMiddleware) Protect(rule auth.RouteRule, opts ...Option) func(http.Handler) http.Handler {
	return m.middleware(func(s auth.Session) auth.Decision {
		return m.guard.Evaluate(s, rule)
	}, opts)
}

// ProtectRoute guards a route table entry, labelled by its view name
func (m *GuardMiddleware) ProtectRoute(route auth.Route, opts ...Option) func(http.Handler) http.Handler {
	return m.Protect(route.Rule, append([]Option{WithName(route.View)}, opts...)...)
}

// RequireRoles admits signed-in callers whose role is in the list. An
// empty list admits any signed-in caller.
func (m *GuardMiddleware) RequireRoles(roles ...auth.Role) func(http.Handler) http.Handler {
	return m.middleware(func(s auth.Session) auth.Decision {
		return m.guard.CheckRoles(s, roles...)
	}, nil)
}

// RequirePermission checks only the permission layer. It is meant to be
// nested inside RequireRoles.
func (m *GuardMiddleware) RequirePermission(req auth.Requirement, opts ...Option) func(http.Handler) http.Handler {
	return m.middleware(func(s auth.Session) auth.Decision {
		return m.guard.CheckPermission(s, req)
	}, opts)
}

func (m *GuardMiddleware) middleware(decide func(auth.Session) auth.Decision, opts []Option) func(http.Handler) http.Handler {
	var o guardOptions
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := SessionFromContext(r.Context())
			d := decide(s)
			name := o.name
			if name == "" {
				name = routeName(r)
			}

			logger := observability.WithRequest(r.Context(), m.logger).With(
				zap.String("route", name),
				zap.String("state", d.State.String()),
				zap.String("username", s.Username),
			)
			m.metrics.RecordGuardDecision(name, d.State.String(), string(d.Reason))

			switch d.State {
			case auth.StateGranted:
				logger.Debug("access granted")
				next.ServeHTTP(w, r)

			case auth.StateUnresolved:
				logger.Debug("session loading, holding route")
				m.views.Pending(w, r)

			case auth.StateRedirecting:
				location := loginLocation(d.RedirectTo, r)
				logger.Debug("redirecting to login", zap.String("location", location))
				m.views.Redirect(w, r, location)

			default:
				logger.Warn("access denied",
					zap.String("reason", string(d.Reason)),
					zap.String("required", d.Required.String()))
				if m.audit != nil {
					m.audit.Record(audit.Event{
						Principal: s.Username,
						Action:    audit.ActionAccessDenied,
						Path:      r.URL.Path,
						Status:    string(d.Reason),
						Metadata:  map[string]string{"route": name},
					})
				}
				if o.fallback != nil {
					o.fallback.ServeHTTP(w, r)
					return
				}
				m.views.Denied(w, r, d)
			}
		})
	}
}

// loginLocation appends the requested URL as the "from" parameter so the
// login page can send the user back.
func loginLocation(loginPath string, r *http.Request) string {
	q := url.Values{}
	q.Set("from", r.URL.RequestURI())
	return loginPath + "?" + q.Encode()
}

func routeName(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}
