package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/mala-backoffice/app"
	"github.com/upb/mala-backoffice/config"
	"github.com/upb/mala-backoffice/repositories/memory"
	"github.com/upb/mala-backoffice/routes"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	// Setup
	os.Setenv("ENVIRONMENT", "test")
	os.Setenv("LOG_LEVEL", "error")

	// Run tests
	code := m.Run()

	// Teardown
	os.Exit(code)
}

func TestInitLogger(t *testing.T) {
	t.Run("default json logger", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "info")
		t.Setenv("LOG_FORMAT", "json")

		logger, err := initLogger()
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer logger.Sync()
	})

	t.Run("development console logger", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_FORMAT", "console")

		logger, err := initLogger()
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer logger.Sync()
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "invalid")
		t.Setenv("LOG_FORMAT", "json")

		logger, err := initLogger()
		assert.Error(t, err)
		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("defaults when not set", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "")
		t.Setenv("LOG_FORMAT", "")

		logger, err := initLogger()
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer logger.Sync()
	})
}

func TestApplicationStartup(t *testing.T) {
	t.Run("successful startup without database", func(t *testing.T) {
		deps := testDependencies(t)

		// Setup routes
		handler := routes.SetupRoutes(deps)
		require.NotNil(t, handler)

		// Create test server
		ts := httptest.NewServer(handler)
		defer ts.Close()

		// Test health check endpoint
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var body map[string]interface{}
		err = json.NewDecoder(resp.Body).Decode(&body)
		require.NoError(t, err)
		assert.Equal(t, "healthy", body["status"])
	})
}

func TestReadinessCheck(t *testing.T) {
	t.Run("not ready without database", func(t *testing.T) {
		ts := httptest.NewServer(routes.SetupRoutes(testDependencies(t)))
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/readyz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body map[string]interface{}
		err = json.NewDecoder(resp.Body).Decode(&body)
		require.NoError(t, err)
		assert.Equal(t, "not_ready", body["status"])
	})
}

func TestProtectedEndpoints(t *testing.T) {
	ts := httptest.NewServer(routes.SetupRoutes(testDependencies(t)))
	defer ts.Close()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"staff billing", "GET", "/staff/billing", http.StatusSeeOther},
		{"staff orders", "GET", "/staff/orders", http.StatusSeeOther},
		{"staff workflow", "GET", "/staff/workflow", http.StatusSeeOther},
		{"admin dashboard", "GET", "/admin", http.StatusSeeOther},
		{"admin users", "GET", "/admin/users", http.StatusSeeOther},
		{"admin payments", "GET", "/admin/payments", http.StatusSeeOther},
		{"public menu", "GET", "/menu", http.StatusOK},
		{"public news", "GET", "/news", http.StatusOK},
		{"login page", "GET", "/login", http.StatusOK},
		{"anonymous session", "GET", "/api/session", http.StatusOK},
		{"refresh without session", "POST", "/api/session/refresh", http.StatusUnauthorized},
		{"not found", "GET", "/api/nonexistent", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			require.NoError(t, err)

			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "endpoint: %s %s", tc.method, tc.path)
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	ts := httptest.NewServer(routes.SetupRoutes(testDependencies(t)))
	defer ts.Close()

	t.Run("OPTIONS preflight request", func(t *testing.T) {
		req, err := http.NewRequest("OPTIONS", ts.URL+"/api/session", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "GET")
		req.Header.Set("Access-Control-Request-Headers", "Authorization")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestServeGracefulShutdown(t *testing.T) {
	cfg := testConfig()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := newServer(cfg.Server, routes.SetupRoutes(testDependencies(t)))

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, ln, cfg.Server, zaptest.NewLogger(t)) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeListenerError(t *testing.T) {
	cfg := testConfig()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	err = serve(context.Background(), newServer(cfg.Server, http.NotFoundHandler()), ln, cfg.Server, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error")
}

// Test helpers

func testDependencies(t *testing.T) *app.Dependencies {
	t.Helper()
	deps, err := app.NewDependenciesWithUsers(context.Background(), testConfig(), zaptest.NewLogger(t), memory.NewUserRepository())
	require.NoError(t, err)
	return deps
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 2 * time.Second,
			AllowedOrigins:  []string{"http://localhost:*"},
		},
		Session: config.SessionConfig{
			Secret:      config.DevSessionSecret,
			Issuer:      "mala-backoffice",
			TTL:         time.Hour,
			CookieName:  "mala_session",
			WaitTimeout: 2 * time.Second,
		},
		Navigation: config.NavigationConfig{
			LoginPath:        "/login",
			StaffLandingPath: "/staff/workflow",
			AdminLandingPath: "/admin",
		},
		Observability: config.ObservabilityConfig{
			LogLevel:  "error",
			LogFormat: "json",
		},
	}
}
