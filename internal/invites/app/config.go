package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	invitehttp "github.com/aussiebroadwan/clubhouse/internal/invites/http"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                  string        `env:"ENV" envDefault:"dev"`          // dev, staging, prod
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`   // debug, info, warn, error
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`  // json, text
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`

	DBDriver     string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseFile string `env:"DATABASE_FILE" envDefault:"clubhouse.db"`
	DatabaseURL  string `env:"DATABASE_URL"` // Required when DB_DRIVER=postgres
	PepperFile   string `env:"PEPPER_FILE" envDefault:"pepper"`

	// Bearer tokens come from the identity provider; this service only verifies them.
	JWTSecret   string        `env:"JWT_SECRET"`
	JWTIssuer   string        `env:"JWT_ISSUER"`
	JWTAudience string        `env:"JWT_AUDIENCE" envDefault:"clubhouse"`
	JWTLeeway   time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`

	AppOrigin          string   `env:"APP_ORIGIN" envDefault:"http://localhost:5173"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	StoreTimeout      time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	EnforceEmailMatch bool          `env:"INVITE_ENFORCE_EMAIL_MATCH" envDefault:"false"`

	// Empty keeps redemption lockouts in process memory.
	RedisURL          string `env:"REDIS_URL"`
	TrustProxyHeaders bool   `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	RateLimitStrict   int `env:"RATE_LIMIT_STRICT_PER_MINUTE" envDefault:"5"`
	RateLimitModerate int `env:"RATE_LIMIT_MODERATE_PER_MINUTE" envDefault:"20"`
	RateLimitLenient  int `env:"RATE_LIMIT_LENIENT_PER_MINUTE" envDefault:"100"`
	RateLimitPublic   int `env:"RATE_LIMIT_PUBLIC_PER_MINUTE" envDefault:"1000"`
}

// LoadConfig reads a .env file from the working directory when one exists,
// then parses the environment over the defaults.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{cfg.AppOrigin}
	}
	return cfg, nil
}

// Validate checks the settings the HTTP server needs. Commands that only
// touch the database (migrate, bootstrap) call ValidateStore instead.
func (c Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AppOrigin == "" {
		return errors.New("APP_ORIGIN is required")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	return nil
}

func (c Config) ValidateStore() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return errors.New("DATABASE_FILE is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q (want %s or %s)", c.DBDriver, DriverSQLite, DriverPostgres)
	}
	return nil
}

// Limits converts the per-minute settings into router profiles. Bursts match
// the per-minute count.
func (c Config) Limits() invitehttp.Limits {
	perMinute := func(n int) httpx.RateLimitConfig {
		return httpx.RateLimitConfig{Requests: n, Window: time.Minute, Burst: n}
	}
	return invitehttp.Limits{
		Strict:   perMinute(c.RateLimitStrict),
		Moderate: perMinute(c.RateLimitModerate),
		Lenient:  perMinute(c.RateLimitLenient),
		Public:   perMinute(c.RateLimitPublic),
	}
}
