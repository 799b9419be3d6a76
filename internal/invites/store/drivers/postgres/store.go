// Package postgres is the gorm-backed store for deployments running several
// service instances against one PostgreSQL database. Row locks taken by the
// conditional UPDATE serialise concurrent redemptions of the same invite.
package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL using a libpq style DSN or URL.
func Open(dsn string) (*Store, error) {
	return New(postgres.Open(dsn))
}

// New builds a store over any gorm dialector. Production uses Open; tests
// run the same code over an embedded SQLite dialector.
func New(d gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return mapErr(sqlDB.PingContext(ctx))
}

// ApplyMigrations brings the schema up to date with the models.
func (s *Store) ApplyMigrations() error {
	return s.db.AutoMigrate(
		&teamModel{},
		&accountModel{},
		&inviteModel{},
		&membershipModel{},
	)
}

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, mapErr(tx.Error)
	}
	return &txStore{db: tx}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(err)
	}
	committed = true
	return nil
}

func (s *Store) Teams() store.Teams             { return &teamsRepo{db: s.db} }
func (s *Store) Accounts() store.Accounts       { return &accountsRepo{db: s.db} }
func (s *Store) Memberships() store.Memberships { return &membershipsRepo{db: s.db} }
func (s *Store) Invites() store.Invites         { return &invitesRepo{db: s.db} }

var errNestedTx = errors.New("postgres: nested transactions are not supported")

type txStore struct {
	db *gorm.DB
}

func (t *txStore) Commit() error   { return t.db.Commit().Error }
func (t *txStore) Rollback() error { return t.db.Rollback().Error }

func (t *txStore) Close() error               { return nil }
func (t *txStore) Ping(context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error     { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) {
	return nil, errNestedTx
}

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error {
	return errNestedTx
}

func (t *txStore) Teams() store.Teams             { return &teamsRepo{db: t.db} }
func (t *txStore) Accounts() store.Accounts       { return &accountsRepo{db: t.db} }
func (t *txStore) Memberships() store.Memberships { return &membershipsRepo{db: t.db} }
func (t *txStore) Invites() store.Invites         { return &invitesRepo{db: t.db} }

// PostgreSQL error codes that indicate contention rather than a bad request.
var retryableCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled (statement_timeout)
	"57P01": true, // admin_shutdown
	"08006": true, // connection_failure
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", store.ErrAlreadyExists, err)
	case errors.Is(err, driver.ErrBadConn):
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return fmt.Errorf("%w: %w", store.ErrAlreadyExists, err)
		}
		if retryableCodes[pgErr.Code] {
			return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
		}
	}

	// SQLite dialectors used in tests may not translate constraint errors.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", store.ErrAlreadyExists, err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return err
}
