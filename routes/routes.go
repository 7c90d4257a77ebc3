package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/mala-backoffice/app"
	"github.com/upb/mala-backoffice/handlers"
	"github.com/upb/mala-backoffice/internal/observability"
	"github.com/upb/mala-backoffice/middleware"
	"github.com/upb/mala-backoffice/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	if deps.Config.Server.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(observability.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)
	r.Use(chimw.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location", "Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	health := handlers.NewHealthHandler(healthChecker(deps), deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.MetricsRegistry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	authHandler := handlers.NewAuthHandler(
		deps.AuthService,
		deps.Registry,
		deps.Tokens,
		deps.Config.Session,
		deps.LandingPath,
		deps.Metrics,
		deps.Audit,
		deps.Logger.Named("auth"),
	)

	// Everything below sees the caller's session
	r.Group(func(r chi.Router) {
		r.Use(deps.SessionMiddleware.LoadSession)

		// Public pages
		r.Handle("/", handlers.NewLandingHandler(deps.LandingPath, deps.Views, deps.Metrics, deps.Logger))
		r.Get("/menu", handlers.Page("public.menu"))
		r.Get("/news", handlers.Page("public.news"))
		r.Get(deps.Config.Navigation.LoginPath, handlers.Page("public.login"))

		// Session API
		r.Route("/api", func(r chi.Router) {
			r.With(middleware.LoginRateLimit(
				deps.Config.Session.LoginAttempts,
				deps.Config.Session.LoginWindow,
				deps.Metrics,
				deps.Logger,
			)).Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/session", authHandler.HandleSession)
			r.Get("/session/wait", authHandler.HandleWait)
			r.Post("/session/refresh", authHandler.HandleRefresh)
			r.Get("/navigation", handlers.NewNavigationHandler(deps.Guard, deps.Routes).ServeHTTP)
		})

		// Back-office pages, each behind its route rule
		for _, route := range deps.Routes {
			r.With(deps.GuardMiddleware.ProtectRoute(route)).Get(route.Path, handlers.Page(route.View))
		}
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}

// healthChecker avoids handing a typed nil to the readiness handler
// when the app runs without a database.
func healthChecker(deps *app.Dependencies) handlers.HealthChecker {
	if deps.DB == nil {
		return nil
	}
	return deps.DB
}
