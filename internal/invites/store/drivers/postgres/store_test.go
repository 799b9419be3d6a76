package postgres_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store/drivers/postgres"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store/storetest"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// The gorm code paths are exercised in-process over a pure-Go SQLite
// dialector; the real PostgreSQL run below adds the concurrency check.
func TestStoreBehaviourOverSQLite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		path := filepath.Join(t.TempDir(), "gorm.db")
		s, err := postgres.New(sqlite.Open(path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.ApplyMigrations())
		return s
	}, storetest.Options{})
}

func TestStoreBehaviourOverPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	dsn := startPostgres(t)

	n := 0
	storetest.Run(t, func(t *testing.T) store.Store {
		// One schema per subtest keeps the suite's fixtures independent.
		n++
		schema := fmt.Sprintf("suite_%d", n)
		admin, err := gorm.Open(gormpg.Open(dsn), &gorm.Config{})
		require.NoError(t, err)
		require.NoError(t, admin.WithContext(context.Background()).Exec("CREATE SCHEMA "+schema).Error)
		sqlDB, err := admin.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		s, err := postgres.Open(dsn + "&search_path=" + schema)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.ApplyMigrations())
		return s
	}, storetest.Options{Concurrent: true})
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "clubhouse",
				"POSTGRES_PASSWORD": "clubhouse",
				"POSTGRES_DB":       "clubhouse",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://clubhouse:clubhouse@%s:%s/clubhouse?sslmode=disable", host, port.Port())
}
