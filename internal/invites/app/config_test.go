package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.Equal(t, 5*time.Second, cfg.StoreTimeout)
	require.Equal(t, DriverSQLite, cfg.DBDriver)
	require.False(t, cfg.EnforceEmailMatch)
	require.Equal(t, []string{cfg.AppOrigin}, cfg.CORSAllowedOrigins)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://clubhouse@localhost/clubhouse")
	t.Setenv("APP_ORIGIN", "https://club.example")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://club.example,https://admin.club.example")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("INVITE_ENFORCE_EMAIL_MATCH", "true")
	t.Setenv("RATE_LIMIT_STRICT_PER_MINUTE", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, DriverPostgres, cfg.DBDriver)
	require.Equal(t, []string{"https://club.example", "https://admin.club.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
	require.True(t, cfg.EnforceEmailMatch)

	limits := cfg.Limits()
	require.Equal(t, 2, limits.Strict.Requests)
	require.Equal(t, 2, limits.Strict.Burst)
	require.Equal(t, time.Minute, limits.Strict.Window)
	require.Equal(t, 20, limits.Moderate.Requests)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		DBDriver:     DriverSQLite,
		DatabaseFile: "clubhouse.db",
		JWTSecret:    "secret",
		AppOrigin:    "https://club.example",
		StoreTimeout: time.Second,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "unknown DB_DRIVER"},
		{"postgres without url", func(c *Config) { c.DBDriver = DriverPostgres }, "DATABASE_URL"},
		{"sqlite without file", func(c *Config) { c.DatabaseFile = "" }, "DATABASE_FILE"},
		{"no jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"no origin", func(c *Config) { c.AppOrigin = "" }, "APP_ORIGIN"},
		{"zero store timeout", func(c *Config) { c.StoreTimeout = 0 }, "STORE_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestNewWiresSQLiteApplication(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_FILE", filepath.Join(dir, "clubhouse.db"))
	t.Setenv("PEPPER_FILE", filepath.Join(dir, "pepper"))
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	application, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.closeBackends() })

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)

	require.FileExists(t, filepath.Join(dir, "pepper"))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{DBDriver: DriverSQLite, DatabaseFile: "x.db"})
	require.ErrorContains(t, err, "JWT_SECRET")
}
