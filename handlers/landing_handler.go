package handlers

import (
	"net/http"

	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/internal/observability"
	"github.com/upb/mala-backoffice/middleware"
	"github.com/upb/mala-backoffice/utils"
	"go.uber.org/zap"
)

// httpNavigator turns landing navigation into redirects. Replace uses
// 303 See Other, Push uses 302 Found. Only the first call writes.
type httpNavigator struct {
	w       http.ResponseWriter
	r       *http.Request
	written bool
}

func (n *httpNavigator) Replace(path string) { n.redirect(path, http.StatusSeeOther) }
func (n *httpNavigator) Push(path string)    { n.redirect(path, http.StatusFound) }

func (n *httpNavigator) redirect(path string, code int) {
	if n.written {
		return
	}
	n.written = true
	http.Redirect(n.w, n.r, path, code)
}

// LandingHandler serves the root path: anonymous visitors get the public
// home page, signed-in users are sent to their role's landing page.
type LandingHandler struct {
	paths   func(auth.Role) string
	views   middleware.Views
	metrics observability.Metrics
	logger  *zap.Logger
}

// NewLandingHandler creates a new LandingHandler
func NewLandingHandler(paths func(auth.Role) string, views middleware.Views, metrics observability.Metrics, logger *zap.Logger) *LandingHandler {
	if paths == nil {
		paths = auth.LandingPath
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &LandingHandler{paths: paths, views: views, metrics: metrics, logger: logger}
}

// ServeHTTP handles GET /
func (h *LandingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	nav := &httpNavigator{w: w, r: r}
	landing := auth.NewLanding(nav, h.paths)

	state := landing.Observe(s)
	h.metrics.RecordLanding(state.String())

	switch state {
	case auth.LandingPending:
		h.views.Pending(w, r)
	case auth.LandingPublic:
		_ = utils.WriteJSON(w, http.StatusOK, ViewResponse{
			View:  "public.home",
			Links: auth.NavLinks(s, r.URL.Path),
		})
	case auth.LandingNavigating:
		landing.Complete()
		observability.WithRequest(r.Context(), h.logger).Debug("landing redirect",
			zap.String("username", s.Username),
			zap.String("target", landing.Target()))
	}
}
