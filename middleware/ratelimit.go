package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/upb/mala-backoffice/internal/observability"
	"github.com/upb/mala-backoffice/utils"
	"go.uber.org/zap"
)

// LoginRateLimit throttles sign-in attempts per client IP, taken from
// RemoteAddr. Forwarded headers only count when the router mounts RealIP.
// A limit of zero or less returns a pass-through middleware.
func LoginRateLimit(limit int, window time.Duration, metrics observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}

	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordLogin("throttled")
			observability.WithRequest(r.Context(), logger).Warn("login throttled",
				zap.String("remote_addr", r.RemoteAddr))
			_ = utils.WriteError(w, http.StatusTooManyRequests, "Too many sign-in attempts, try again later", nil)
		}),
	)
}
