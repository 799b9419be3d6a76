package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingExpiresOverdueInvites(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	old, err := f.svc.IssueInvite(ctx, "coach-1", "old@x.com", domain.RoleAthlete, "T1")
	require.NoError(t, err)
	f.advance(3 * 24 * time.Hour)
	fresh, err := f.svc.IssueInvite(ctx, "coach-1", "fresh@x.com", domain.RoleAthlete, "T1")
	require.NoError(t, err)
	redeemed, err := f.svc.IssueInvite(ctx, "coach-1", "done@x.com", domain.RoleAthlete, "T1")
	require.NoError(t, err)
	_, err = f.svc.RedeemInvite(ctx, redeemReq(redeemed.Token))
	require.NoError(t, err)

	f.advance(5 * 24 * time.Hour)

	hk := NewHousekeepingService(f.store, slogx.Discard(), time.Hour)
	hk.Now = f.svc.Now

	n, err := hk.ExpireOverdue(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := f.store.Invites().GetInviteByID(ctx, old.Invite.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InviteStatusExpired, got.Status)

	got, err = f.store.Invites().GetInviteByID(ctx, fresh.Invite.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InviteStatusPending, got.Status)

	got, err = f.store.Invites().GetInviteByID(ctx, redeemed.Invite.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InviteStatusConsumed, got.Status, "consumed invites never move")

	n, err = hk.ExpireOverdue(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	hk := NewHousekeepingService(s, slogx.Discard(), 0)
	require.Equal(t, time.Hour, hk.Interval)

	hk.Start()
	hk.Stop()
}
