package invites_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/clubhouse/pkg/invitesdk"
)

func TestCoachInvitesAthlete(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	// The admin brings in a coach, who then invites an athlete.
	coachInvite, err := e.admin.SendInvite(ctx, invitesdk.SendInviteRequest{
		Email: "coach@club.e2e", Role: "coach", TeamID: e.teamID, SentBy: e.adminID,
	})
	require.NoError(t, err)
	coach := join(t, e, coachInvite.Token, "Casey Coach")
	require.Equal(t, "coach", coach.Role)

	coachSession := e.client.NewSession(bearer(t, coach.AccountID))
	sent, err := coachSession.SendInvite(ctx, invitesdk.SendInviteRequest{
		Email: "a@x.com", Role: "athlete", TeamID: e.teamID,
	})
	require.NoError(t, err)
	require.Contains(t, sent.InviteLink, appOrigin+"/join-team?token=")
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), sent.ExpiresAt, time.Minute)

	athlete := join(t, e, sent.Token, "Alex Athlete")
	require.Equal(t, "athlete", athlete.Role)
	require.Equal(t, e.teamID, athlete.TeamID)

	_, err = e.client.JoinTeam(ctx, invitesdk.JoinTeamRequest{
		FullName: "Alex Again", Password: "correct horse battery", Token: sent.Token,
	})
	require.ErrorIs(t, err, invitesdk.ErrConflict)

	// Coaches may not hand out admin.
	_, err = coachSession.SendInvite(ctx, invitesdk.SendInviteRequest{
		Email: "boss@x.com", Role: "admin", TeamID: e.teamID,
	})
	require.ErrorIs(t, err, invitesdk.ErrForbidden)

	invites, err := e.admin.ListTeamInvites(ctx, e.teamID)
	require.NoError(t, err)
	require.Len(t, invites, 2)
	for _, inv := range invites {
		require.Equal(t, "consumed", inv.Status)
	}
}

func TestConcurrentRedemption(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	sent, err := e.admin.SendInvite(ctx, invitesdk.SendInviteRequest{
		Email: "race@x.com", Role: "parent", TeamID: e.teamID,
	})
	require.NoError(t, err)

	const attempts = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.client.JoinTeam(ctx, invitesdk.JoinTeamRequest{
				FullName: "Racer",
				Email:    "race@x.com",
				Password: "correct horse battery",
				Token:    sent.Token,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, invitesdk.ErrConflict):
				conflicts++
			default:
				t.Errorf("attempt %d: unexpected error: %v", i, err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, attempts-1, conflicts)
}

func TestRevokedInviteCannotBeRedeemed(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	sent, err := e.admin.SendInvite(ctx, invitesdk.SendInviteRequest{
		Email: "gone@x.com", Role: "parent", TeamID: e.teamID,
	})
	require.NoError(t, err)
	require.NoError(t, e.admin.RevokeInvite(ctx, sent.InviteID))

	_, err = e.client.JoinTeam(ctx, invitesdk.JoinTeamRequest{
		FullName: "Late Parent", Password: "correct horse battery", Token: sent.Token,
	})
	require.ErrorIs(t, err, invitesdk.ErrExpired)

	preview, err := e.client.PreviewInvite(ctx, sent.Token)
	require.NoError(t, err)
	require.Equal(t, "expired", preview.Status)
}

func TestHealthEndpoints(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	ready, err := e.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)
}
