package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	invitehttp "github.com/aussiebroadwan/clubhouse/internal/invites/http"
	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store/drivers/postgres"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store/drivers/sqlite"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
	"github.com/aussiebroadwan/clubhouse/pkg/lockout"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

const sqliteBusyTimeout = 5 * time.Second

// Application encapsulates the invite service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	hasher cryptox.PasswordHasher
	redis  *redis.Client

	inviteService       *service.InviteService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *invitehttp.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "clubhouse-invites",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates an Application with every dependency initialized and the
// schema migrated.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	hasher, err := NewHasher(cfg)
	if err != nil {
		return nil, err
	}
	app.hasher = hasher

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	lo, err := app.initLockout()
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	verifier, err := jwtx.NewHS256Verifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTLeeway)
	if err != nil {
		app.closeBackends()
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	app.initServices()
	app.initHTTP(verifier, lo)

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("invite service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"db_driver", app.cfg.DBDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeBackends()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests, stops housekeeping and closes the
// database and Redis connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down invite service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("invite service stopped")
	return nil
}

// Handler exposes the fully wired router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Store exposes the opened store.
func (app *Application) Store() store.Store { return app.db }

// OpenStore opens the configured driver without migrating it.
func OpenStore(cfg Config) (store.Store, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	if cfg.DBDriver == DriverPostgres {
		st, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	st, err := sqlite.NewStore(sqlite.DSN(cfg.DatabaseFile, sqliteBusyTimeout))
	if err != nil {
		return nil, err
	}
	return st, nil
}

// NewHasher loads (or creates) the pepper file and returns the argon2id hasher.
func NewHasher(cfg Config) (cryptox.PasswordHasher, error) {
	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	return cryptox.Argon2Hasher{Pepper: pepper}, nil
}

func (app *Application) initDatabase() error {
	db, err := OpenStore(app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DBDriver)
	return nil
}

// initLockout picks the Redis backend when REDIS_URL is set so that every
// instance shares one view of failed redemptions.
func (app *Application) initLockout() (lockout.Lockout, error) {
	if app.cfg.RedisURL == "" {
		app.logger.Info("redemption lockout using in-memory backend")
		return lockout.NewMemory(lockout.DefaultPolicy), nil
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.StoreTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	app.redis = rdb

	app.logger.Info("redemption lockout using redis backend", "addr", opts.Addr)
	return lockout.NewRedis(rdb, lockout.DefaultPolicy, app.logger), nil
}

func (app *Application) initServices() {
	app.inviteService = &service.InviteService{
		Store:             app.db,
		Hasher:            app.hasher,
		Origin:            app.cfg.AppOrigin,
		StoreTimeout:      app.cfg.StoreTimeout,
		EnforceEmailMatch: app.cfg.EnforceEmailMatch,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	app.housekeepingService.StoreTimeout = app.cfg.StoreTimeout
}

func (app *Application) initHTTP(verifier jwtx.Verifier, lo lockout.Lockout) {
	router := invitehttp.NewRouter(verifier, BuildVersion, app.db, app.logger)

	router.InviteService = app.inviteService
	router.Lockout = lo
	router.Limits = app.cfg.Limits()
	router.TrustProxy = app.cfg.TrustProxyHeaders
	router.CORSOrigins = app.cfg.CORSAllowedOrigins
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) closeBackends() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}
