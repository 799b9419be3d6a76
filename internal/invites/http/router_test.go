package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	invitehttp "github.com/aussiebroadwan/clubhouse/internal/invites/http"
	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store/drivers/sqlite"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/invitesdk"
	"github.com/aussiebroadwan/clubhouse/pkg/jwtx"
	"github.com/aussiebroadwan/clubhouse/pkg/lockout"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	jwtSecret   = "test-secret"
	jwtIssuer   = "https://idp.test"
	jwtAudience = "clubhouse"
	appOrigin   = "https://app.clubhouse.test"
)

type harness struct {
	client *invitesdk.SDKClient
	router *invitehttp.Router
	svc    *service.InviteService
}

func newHarness(t *testing.T) harness {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "clubhouse.db"), 5*time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	now := time.Now().UTC()
	require.NoError(t, st.Teams().CreateTeam(ctx, domain.Team{ID: "T1", Name: "Thunder U12", CreatedAt: now, UpdatedAt: now}))
	for _, m := range []struct {
		id   string
		role domain.Role
	}{{"coach-1", domain.RoleCoach}, {"parent-1", domain.RoleParent}} {
		require.NoError(t, st.Accounts().CreateAccount(ctx, domain.Account{
			ID: m.id, Email: m.id + "@club.test", FullName: m.id, PasswordHash: "h", CreatedAt: now, UpdatedAt: now,
		}))
		require.NoError(t, st.Memberships().CreateMembership(ctx, domain.Membership{
			ID: "m-" + m.id, AccountID: m.id, TeamID: "T1", Role: m.role, CreatedAt: now,
		}))
	}

	verifier, err := jwtx.NewHS256Verifier(jwtSecret, jwtIssuer, jwtAudience, 0)
	require.NoError(t, err)

	svc := &service.InviteService{
		Store:  st,
		Hasher: cryptox.Argon2Hasher{Pepper: "pepper"},
		Origin: appOrigin,
	}

	router := invitehttp.NewRouter(verifier, "test", st, slogx.Discard())
	router.InviteService = svc
	router.Lockout = lockout.NewMemory(lockout.Policy{
		Threshold: 2,
		Base:      time.Minute,
		Max:       time.Hour,
		Retention: time.Hour,
	})
	// Every route gets the public profile so only the lockout can refuse.
	generous := invitehttp.DefaultLimits.Public
	router.Limits = invitehttp.Limits{Strict: generous, Moderate: generous, Lenient: generous, Public: generous}
	router.CORSOrigins = []string{appOrigin}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return harness{client: invitesdk.NewSDKClient(srv.URL), router: router, svc: svc}
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	tok, err := jwtx.SignHS256(jwtSecret, jwtx.NewClaims(subject, "", jwtIssuer, []string{jwtAudience}, time.Hour, time.Now()))
	require.NoError(t, err)
	return tok
}

func TestAthleteJoinsTeam(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	coach := h.client.NewSession(bearer(t, "coach-1"))

	sent, err := coach.SendInvite(ctx, invitesdk.SendInviteRequest{
		Email:  "a@x.com",
		Role:   "athlete",
		TeamID: "T1",
		SentBy: "coach-1",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sent.InviteLink, appOrigin+"/join-team?token="))
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), sent.ExpiresAt, time.Minute)

	preview, err := h.client.PreviewInvite(ctx, sent.Token)
	require.NoError(t, err)
	require.Equal(t, "Thunder U12", preview.TeamName)
	require.Equal(t, "athlete", preview.Role)
	require.Equal(t, "pending", preview.Status)

	joined, err := h.client.JoinTeam(ctx, invitesdk.JoinTeamRequest{
		FullName:    "Alex Athlete",
		Password:    "correct horse battery",
		PhoneNumber: "0400 000 000",
		Token:       sent.Token,
	})
	require.NoError(t, err)
	require.NotEmpty(t, joined.Message)
	require.Equal(t, "T1", joined.Membership.TeamID)
	require.Equal(t, "athlete", joined.Membership.Role)
	require.Equal(t, sent.InviteID, joined.Membership.InviteID)

	_, err = h.client.JoinTeam(ctx, invitesdk.JoinTeamRequest{
		FullName: "Someone Else",
		Email:    "other@x.com",
		Password: "correct horse battery",
		Token:    sent.Token,
	})
	require.ErrorIs(t, err, invitesdk.ErrConflict)

	invites, err := coach.ListTeamInvites(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, invites, 1)
	require.Equal(t, "consumed", invites[0].Status)
	require.Equal(t, joined.Membership.AccountID, invites[0].ConsumedBy)
}

func TestSendInviteErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	valid := invitesdk.SendInviteRequest{Email: "a@x.com", Role: "athlete", TeamID: "T1"}

	t.Run("missing bearer", func(t *testing.T) {
		_, err := h.client.NewSession("").SendInvite(ctx, valid)
		require.ErrorIs(t, err, invitesdk.ErrUnauthenticated)
	})

	t.Run("forged bearer", func(t *testing.T) {
		tok, err := jwtx.SignHS256("other-secret", jwtx.NewClaims("coach-1", "", jwtIssuer, []string{jwtAudience}, time.Hour, time.Now()))
		require.NoError(t, err)
		_, err = h.client.NewSession(tok).SendInvite(ctx, valid)
		require.ErrorIs(t, err, invitesdk.ErrUnauthenticated)
	})

	t.Run("parent may not invite", func(t *testing.T) {
		_, err := h.client.NewSession(bearer(t, "parent-1")).SendInvite(ctx, valid)
		require.ErrorIs(t, err, invitesdk.ErrForbidden)
	})

	t.Run("sent_by must be the caller", func(t *testing.T) {
		req := valid
		req.SentBy = "parent-1"
		_, err := h.client.NewSession(bearer(t, "coach-1")).SendInvite(ctx, req)
		require.ErrorIs(t, err, invitesdk.ErrForbidden)
	})

	t.Run("empty email", func(t *testing.T) {
		req := valid
		req.Email = ""
		_, err := h.client.NewSession(bearer(t, "coach-1")).SendInvite(ctx, req)
		require.ErrorIs(t, err, invitesdk.ErrInvalidRequest)
		require.ErrorContains(t, err, "email is required")
	})

	t.Run("unknown role", func(t *testing.T) {
		req := valid
		req.Role = "owner"
		_, err := h.client.NewSession(bearer(t, "coach-1")).SendInvite(ctx, req)
		require.ErrorIs(t, err, invitesdk.ErrInvalidRequest)
	})
}

func TestJoinTeamErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		_, err := h.client.JoinTeam(ctx, invitesdk.JoinTeamRequest{Token: "tok", Password: "correct horse battery"})
		require.ErrorIs(t, err, invitesdk.ErrInvalidRequest)
		require.ErrorContains(t, err, "full_name is required")
	})

	t.Run("revoked invite is gone", func(t *testing.T) {
		coach := h.client.NewSession(bearer(t, "coach-1"))
		sent, err := coach.SendInvite(ctx, invitesdk.SendInviteRequest{Email: "b@x.com", Role: "parent", TeamID: "T1"})
		require.NoError(t, err)

		require.ErrorIs(t, h.client.NewSession(bearer(t, "parent-1")).RevokeInvite(ctx, sent.InviteID), invitesdk.ErrForbidden)
		require.NoError(t, coach.RevokeInvite(ctx, sent.InviteID))

		preview, err := h.client.PreviewInvite(ctx, sent.Token)
		require.NoError(t, err)
		require.Equal(t, "expired", preview.Status)

		_, err = h.client.JoinTeam(ctx, invitesdk.JoinTeamRequest{
			FullName: "Pat Parent", Password: "correct horse battery", Token: sent.Token,
		})
		require.ErrorIs(t, err, invitesdk.ErrExpired)
	})

	t.Run("preview of unknown token", func(t *testing.T) {
		_, err := h.client.PreviewInvite(ctx, "nope")
		require.ErrorIs(t, err, invitesdk.ErrNotFound)
	})
}

func TestJoinTeamLockout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	guess := invitesdk.JoinTeamRequest{FullName: "Eve", Password: "correct horse battery", Token: "guess"}

	for range 2 {
		_, err := h.client.JoinTeam(ctx, guess)
		require.ErrorIs(t, err, invitesdk.ErrNotFound)
	}

	_, err := h.client.JoinTeam(ctx, guess)
	require.ErrorIs(t, err, invitesdk.ErrRateLimited)

	var apiErr *invitesdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Positive(t, apiErr.RetryAfter)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	live, err := h.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := h.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/invite/send", nil)
	req.Header.Set("Origin", appOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rec := httptest.NewRecorder()

	h.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, appOrigin, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/invite/send", nil)
	req.Header.Set("Origin", "https://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()

	h.router.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
