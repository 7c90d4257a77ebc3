package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/mala-backoffice/config"
	"github.com/upb/mala-backoffice/internal/auth"
	"github.com/upb/mala-backoffice/internal/observability"
	"github.com/upb/mala-backoffice/repositories/memory"
	"github.com/upb/mala-backoffice/repositories/postgres"
	"github.com/upb/mala-backoffice/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestNewDependencies(t *testing.T) {
	t.Run("successful initialization with all components", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		logger := zaptest.NewLogger(t)

		// Skip if database not available
		if !isDatabaseAvailable(t, cfg) {
			t.Skip("database not available")
		}

		cfg.Database.AutoCreateSchema = true
		deps, err := NewDependencies(ctx, cfg, logger)
		require.NoError(t, err)
		require.NotNil(t, deps)

		// Verify infrastructure
		assert.NotNil(t, deps.Config)
		assert.NotNil(t, deps.DB)
		assert.NotNil(t, deps.Logger)
		assert.NotNil(t, deps.Users)
		assert.NotNil(t, deps.SessionMiddleware)
		assert.NotNil(t, deps.GuardMiddleware)

		// Cleanup
		err = deps.Close(ctx)
		assert.NoError(t, err)
	})

	t.Run("database connection failure", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Database.Host = "invalid-host-that-does-not-exist"
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, cfg, logger)
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})
}

func TestNewDependenciesWithUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("wires core components", func(t *testing.T) {
		cfg := testConfig(t)
		deps, err := NewDependenciesWithUsers(ctx, cfg, zaptest.NewLogger(t), memory.NewUserRepository())
		require.NoError(t, err)

		assert.Nil(t, deps.DB)
		assert.NotNil(t, deps.Registry)
		assert.NotNil(t, deps.Tokens)
		assert.NotNil(t, deps.AuthService)
		assert.NotNil(t, deps.Audit)
		assert.NotNil(t, deps.Views)
		assert.Equal(t, "/login", deps.Guard.LoginPath)
		assert.Equal(t, auth.BackOffice, deps.Routes)
		assert.IsType(t, observability.NopMetrics{}, deps.Metrics)
		assert.Nil(t, deps.MetricsRegistry)
		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("prometheus metrics when enabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Observability.MetricsEnabled = true
		deps, err := NewDependenciesWithUsers(ctx, cfg, zaptest.NewLogger(t), memory.NewUserRepository())
		require.NoError(t, err)

		require.NotNil(t, deps.MetricsRegistry)
		assert.IsType(t, &observability.PrometheusMetrics{}, deps.Metrics)

		families, err := deps.MetricsRegistry.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})

	t.Run("missing session secret", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Session.Secret = ""
		deps, err := NewDependenciesWithUsers(ctx, cfg, zaptest.NewLogger(t), memory.NewUserRepository())
		assert.Error(t, err)
		assert.Nil(t, deps)
	})

	t.Run("seeds admin once", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Seed.AdminPassword = "s3cret"
		users := memory.NewUserRepository()

		deps, err := NewDependenciesWithUsers(ctx, cfg, zaptest.NewLogger(t), users)
		require.NoError(t, err)

		admin, err := users.GetByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, admin.Role)
		for _, p := range auth.Catalog {
			assert.True(t, admin.Permissions.Has(p), p)
		}

		user, err := deps.AuthService.Authenticate(ctx, "ADMIN", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, user.ID)

		// A second start leaves the existing account alone
		cfg.Seed.AdminPassword = "other"
		_, err = NewDependenciesWithUsers(ctx, cfg, zaptest.NewLogger(t), users)
		require.NoError(t, err)
		_, err = deps.AuthService.Authenticate(ctx, "admin", "other")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("no seed without password", func(t *testing.T) {
		users := memory.NewUserRepository()
		_, err := NewDependenciesWithUsers(ctx, testConfig(t), zaptest.NewLogger(t), users)
		require.NoError(t, err)

		_, err = users.GetByUsername(ctx, "admin")
		assert.Error(t, err)
	})
}

func TestLandingPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Navigation.StaffLandingPath = "/staff/orders"
	deps := &Dependencies{Config: cfg}

	assert.Equal(t, "/staff/orders", deps.LandingPath(auth.RoleStaff))
	assert.Equal(t, "/admin", deps.LandingPath(auth.RoleAdmin))
}

// Test helpers

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "mala",
			Password:        "mala",
			Database:        "mala_test",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Session: config.SessionConfig{
			Secret:      config.DevSessionSecret,
			Issuer:      "mala-backoffice",
			TTL:         time.Hour,
			CookieName:  "mala_session",
			WaitTimeout: 5 * time.Second,
		},
		Navigation: config.NavigationConfig{
			LoginPath:        "/login",
			StaffLandingPath: "/staff/workflow",
			AdminLandingPath: "/admin",
		},
		Seed: config.SeedConfig{
			AdminUsername: "admin",
			AdminName:     "Administrator",
		},
		Observability: config.ObservabilityConfig{
			LogLevel:       "debug",
			LogFormat:      "json",
			MetricsEnabled: false,
		},
	}
}

func isDatabaseAvailable(t *testing.T, cfg *config.Config) bool {
	t.Helper()
	factory, err := postgres.NewRepositoryFactory(cfg, zap.NewNop())
	if err != nil {
		return false
	}
	defer factory.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return factory.GetDB().PingContext(ctx) == nil
}
