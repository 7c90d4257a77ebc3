package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/upb/mala-backoffice/config"
	"github.com/upb/mala-backoffice/handlers"
	"github.com/upb/mala-backoffice/internal/audit"
	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/internal/observability"
	"github.com/upb/mala-backoffice/internal/session"
	"github.com/upb/mala-backoffice/middleware"
	"github.com/upb/mala-backoffice/repositories"
	"github.com/upb/mala-backoffice/repositories/postgres"
	"github.com/upb/mala-backoffice/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users repositories.UserRepository

	// Observability
	Metrics         observability.Metrics
	MetricsRegistry *prometheus.Registry
	Audit           *audit.Recorder

	// Sessions and authorization
	Registry *session.Registry
	Tokens   *session.TokenCodec
	Guard    auth.Guard
	Routes   auth.RouteTable
	Views    *handlers.Views

	// Services
	AuthService *services.AuthService

	// Middleware
	SessionMiddleware *middleware.SessionMiddleware
	GuardMiddleware   *middleware.GuardMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	deps.initRepositories()

	if err := deps.initCore(cfg); err != nil {
		_ = deps.RepoFactory.Close()
		return nil, err
	}

	if err := deps.seedAdmin(ctx, cfg.Seed); err != nil {
		_ = deps.RepoFactory.Close()
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesWithUsers wires everything except the database, using
// the given user repository. Tests and tools use it to run without
// PostgreSQL.
func NewDependenciesWithUsers(ctx context.Context, cfg *config.Config, logger *zap.Logger, users repositories.UserRepository) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		Users:  users,
	}
	if err := deps.initCore(cfg); err != nil {
		return nil, err
	}
	if err := deps.seedAdmin(ctx, cfg.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}
	return deps, nil
}

// initDatabase initializes the PostgreSQL database connection and factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if cfg.Database.AutoCreateSchema {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return err
		}
	}

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()
	d.Users = repos.Users
	d.Logger.Info("repositories initialized")
}

// initCore wires observability, sessions, services and middleware
func (d *Dependencies) initCore(cfg *config.Config) error {
	if err := d.initObservability(cfg); err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	tokens, err := session.NewTokenCodec(cfg.Session.Secret, cfg.Session.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize session tokens: %w", err)
	}
	d.Tokens = tokens
	d.Registry = session.NewRegistry(cfg.Session.TTL, d.Logger.Named("session"))

	d.Guard = auth.Guard{LoginPath: cfg.Navigation.LoginPath}
	d.Routes = auth.BackOffice
	d.Views = handlers.NewViews(handlers.DefaultRetryAfter)

	d.AuthService = services.NewAuthService(d.Users, d.Logger)

	d.SessionMiddleware = middleware.NewSessionMiddleware(d.Tokens, d.Registry, cfg.Session.CookieName, d.Logger)
	d.GuardMiddleware = middleware.NewGuardMiddleware(d.Guard, d.Views, d.Metrics, d.Audit, d.Logger.Named("guard"))

	d.Logger.Info("auth initialized",
		zap.String("login_path", d.Guard.LoginPath),
		zap.Int("protected_routes", len(d.Routes)))
	return nil
}

func (d *Dependencies) initObservability(cfg *config.Config) error {
	d.Audit = audit.NewRecorder(d.Logger)

	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NopMetrics{}
		return nil
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return err
	}
	metrics, err := observability.NewPrometheusMetrics(reg)
	if err != nil {
		return err
	}
	d.MetricsRegistry = reg
	d.Metrics = metrics
	return nil
}

func (d *Dependencies) seedAdmin(ctx context.Context, seed config.SeedConfig) error {
	if seed.AdminPassword == "" {
		return nil
	}
	created, err := d.AuthService.SeedAdmin(ctx, seed.AdminUsername, seed.AdminPassword, seed.AdminName)
	if err != nil {
		return err
	}
	if !created {
		d.Logger.Debug("admin account already present", zap.String("username", seed.AdminUsername))
	}
	return nil
}

// LandingPath returns the configured landing page for a role
func (d *Dependencies) LandingPath(r auth.Role) string {
	if r == auth.RoleStaff {
		return d.Config.Navigation.StaffLandingPath
	}
	return d.Config.Navigation.AdminLandingPath
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
