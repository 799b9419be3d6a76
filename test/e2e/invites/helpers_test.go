package invites_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/clubhouse/internal/invites/app"
	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
	"github.com/aussiebroadwan/clubhouse/pkg/invitesdk"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
)

/*
 * End-to-end tests run the fully wired application in process against a
 * PostgreSQL container and drive it through the SDK.
 */

const (
	jwtSecret   = "e2e-secret"
	jwtIssuer   = "https://idp.e2e"
	jwtAudience = "clubhouse"
	appOrigin   = "https://app.clubhouse.e2e"

	adminEmail    = "admin@club.e2e"
	adminPassword = "Admin123!secret"
)

type env struct {
	client  *invitesdk.SDKClient
	admin   *invitesdk.Session
	adminID string
	teamID  string
}

// setup starts PostgreSQL, builds the application the way serve does and
// bootstraps one team with an admin.
func setup(t *testing.T) env {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	dir := t.TempDir()
	cfg := app.Config{
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "json",
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Hour,
		DBDriver:             app.DriverPostgres,
		DatabaseURL:          startPostgres(t),
		PepperFile:           filepath.Join(dir, "pepper"),
		JWTSecret:            jwtSecret,
		JWTIssuer:            jwtIssuer,
		JWTAudience:          jwtAudience,
		AppOrigin:            appOrigin,
		CORSAllowedOrigins:   []string{appOrigin},
		StoreTimeout:         5 * time.Second,
		// Tests make many rapid requests from one address.
		RateLimitStrict:   1000,
		RateLimitModerate: 1000,
		RateLimitLenient:  1000,
		RateLimitPublic:   1000,
	}

	application, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Store().Close() })

	hasher, err := app.NewHasher(cfg)
	require.NoError(t, err)
	boot := &service.BootstrapService{Store: application.Store(), Hasher: hasher}
	res, err := boot.Bootstrap(context.Background(), service.BootstrapRequest{
		TeamName:      "Thunder U12",
		AdminName:     "Sam Admin",
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	client := invitesdk.NewSDKClient(srv.URL)
	return env{
		client:  client,
		admin:   client.NewSession(bearer(t, res.Admin.ID)),
		adminID: res.Admin.ID,
		teamID:  res.Team.ID,
	}
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

// bearer mints a token the way the identity provider would.
func bearer(t *testing.T, subject string) string {
	t.Helper()
	tok, err := jwtx.SignHS256(jwtSecret, jwtx.NewClaims(subject, "", jwtIssuer, []string{jwtAudience}, time.Hour, time.Now()))
	require.NoError(t, err)
	return tok
}

// join redeems token for a new member and returns the membership.
func join(t *testing.T, e env, token, name string) invitesdk.MembershipInfo {
	t.Helper()
	resp, err := e.client.JoinTeam(context.Background(), invitesdk.JoinTeamRequest{
		FullName: name,
		Password: "correct horse battery",
		Token:    token,
	})
	require.NoError(t, err)
	return resp.Membership
}
