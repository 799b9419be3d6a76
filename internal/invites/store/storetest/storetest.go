// Package storetest is a behavioural suite every store driver must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

// Factory returns a fresh, migrated store for one subtest.
type Factory func(t *testing.T) store.Store

type Options struct {
	// Concurrent enables the racing-redeemer check. Only drivers whose
	// transactions serialise writers should turn it on.
	Concurrent bool
}

func Run(t *testing.T, newStore Factory, opts Options) {
	t.Run("Teams", func(t *testing.T) { testTeams(t, newStore(t)) })
	t.Run("Accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("Memberships", func(t *testing.T) { testMemberships(t, newStore(t)) })
	t.Run("WithTxRollsBack", func(t *testing.T) { testWithTxRollsBack(t, newStore(t)) })
	t.Run("InviteLifecycle", func(t *testing.T) { testInviteLifecycle(t, newStore(t)) })
	t.Run("ConsumeRespectsExpiry", func(t *testing.T) { testConsumeRespectsExpiry(t, newStore(t)) })
	t.Run("ExpireInvites", func(t *testing.T) { testExpireInvites(t, newStore(t)) })
	if opts.Concurrent {
		t.Run("ConcurrentConsumeHasOneWinner", func(t *testing.T) { testConcurrentConsume(t, newStore(t)) })
	}
}

func seedTeam(t *testing.T, s store.Store, id string) domain.Team {
	t.Helper()
	team := domain.Team{ID: id, Name: "Team " + id, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Teams().CreateTeam(context.Background(), team))
	return team
}

func seedAccount(t *testing.T, s store.Store, id, email string) domain.Account {
	t.Helper()
	a := domain.Account{ID: id, Email: email, FullName: "Name " + id, PasswordHash: "h", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Accounts().CreateAccount(context.Background(), a))
	return a
}

func seedInvite(t *testing.T, s store.Store, id, hash, teamID string, created time.Time) domain.Invite {
	t.Helper()
	inv := domain.NewInvite(id, hash, "a@x.com", domain.RoleAthlete, teamID, "coach-1", created)
	require.NoError(t, s.Invites().CreateInvite(context.Background(), inv))
	return inv
}

func testTeams(t *testing.T, s store.Store) {
	ctx := context.Background()

	empty, err := s.Teams().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	team := seedTeam(t, s, "T1")

	got, err := s.Teams().GetTeamByID(ctx, "T1")
	require.NoError(t, err)
	require.Equal(t, team.Name, got.Name)
	require.True(t, team.CreatedAt.Equal(got.CreatedAt))

	empty, err = s.Teams().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)

	_, err = s.Teams().GetTeamByID(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Teams().CreateTeam(ctx, team), store.ErrAlreadyExists)
}

func testAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()

	acct := domain.Account{
		ID: "A1", Email: "Jo@Example.com", FullName: "Jo Bloggs", PhoneNumber: "0400 000 000",
		PasswordHash: "$argon2id$stub", CreatedAt: t0, UpdatedAt: t0,
	}
	require.NoError(t, s.Accounts().CreateAccount(ctx, acct))

	got, err := s.Accounts().GetAccountByEmail(ctx, "jo@example.com")
	require.NoError(t, err)
	require.Equal(t, "A1", got.ID)
	require.Equal(t, "jo@example.com", got.Email)
	require.Equal(t, "0400 000 000", got.PhoneNumber)
	require.True(t, t0.Equal(got.CreatedAt))

	got, err = s.Accounts().GetAccountByID(ctx, "A1")
	require.NoError(t, err)
	require.Equal(t, "Jo Bloggs", got.FullName)

	dup := acct
	dup.ID = "A2"
	dup.Email = "JO@EXAMPLE.COM"
	require.ErrorIs(t, s.Accounts().CreateAccount(ctx, dup), store.ErrAlreadyExists)

	_, err = s.Accounts().GetAccountByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testMemberships(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedTeam(t, s, "T1")
	seedAccount(t, s, "A1", "a@x.com")

	m := domain.Membership{ID: "M1", AccountID: "A1", TeamID: "T1", Role: domain.RoleCoach, CreatedAt: t0}
	require.NoError(t, s.Memberships().CreateMembership(ctx, m))

	got, err := s.Memberships().GetMembership(ctx, "A1", "T1")
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)
	require.Equal(t, domain.RoleCoach, got.Role)
	require.Empty(t, got.InviteID)

	dup := m
	dup.ID = "M2"
	require.ErrorIs(t, s.Memberships().CreateMembership(ctx, dup), store.ErrAlreadyExists)

	list, err := s.Memberships().ListMembershipsByTeam(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = s.Memberships().GetMembership(ctx, "A1", "T2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testWithTxRollsBack(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Teams().CreateTeam(ctx, domain.Team{ID: "T9", Name: "x", CreatedAt: t0, UpdatedAt: t0}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Teams().GetTeamByID(ctx, "T9")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.WithTx(ctx, func(store.Tx) error { return nil })
	})
	require.Error(t, err, "nested transactions are unsupported")
}

func testInviteLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedTeam(t, s, "T1")
	inv := seedInvite(t, s, "I1", "hash-1", "T1", t0)

	got, err := s.Invites().GetInviteByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, inv.ID, got.ID)
	require.Equal(t, domain.RoleAthlete, got.Role)
	require.Equal(t, domain.InviteStatusPending, got.Status)
	require.Nil(t, got.ConsumedAt)
	require.True(t, inv.ExpiresAt.Equal(got.ExpiresAt))

	got, err = s.Invites().GetInviteByID(ctx, "I1")
	require.NoError(t, err)
	require.Equal(t, 7*24*time.Hour, got.ExpiresAt.Sub(got.CreatedAt))

	dup := inv
	dup.ID = "I2"
	require.ErrorIs(t, s.Invites().CreateInvite(ctx, dup), store.ErrAlreadyExists)

	now := t0.Add(time.Hour)
	got, err = s.Invites().ConsumeInvite(ctx, "hash-1", "A1", now)
	require.NoError(t, err)
	require.Equal(t, domain.InviteStatusConsumed, got.Status)
	require.Equal(t, "A1", got.ConsumedBy)
	require.NotNil(t, got.ConsumedAt)
	require.True(t, now.Equal(*got.ConsumedAt))

	_, err = s.Invites().ConsumeInvite(ctx, "hash-1", "A2", now)
	require.ErrorIs(t, err, store.ErrConflict)

	require.ErrorIs(t, s.Invites().ExpireInvite(ctx, "I1", now), store.ErrConflict,
		"a consumed invite never becomes expired")

	_, err = s.Invites().ConsumeInvite(ctx, "nope", "A1", now)
	require.ErrorIs(t, err, store.ErrConflict)
	_, err = s.Invites().GetInviteByTokenHash(ctx, "nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testConsumeRespectsExpiry(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedTeam(t, s, "T1")
	inv := seedInvite(t, s, "I1", "hash-1", "T1", t0)

	late := inv.ExpiresAt.Add(time.Millisecond)
	_, err := s.Invites().ConsumeInvite(ctx, "hash-1", "A1", late)
	require.ErrorIs(t, err, store.ErrConflict, "past the expiry instant is too late")

	got, err := s.Invites().GetInviteByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, domain.InviteStatusPending, got.Status)
	require.Equal(t, domain.InviteStatusExpired, got.EffectiveStatus(late))

	consumed, err := s.Invites().ConsumeInvite(ctx, "hash-1", "A1", inv.ExpiresAt)
	require.NoError(t, err, "the expiry instant itself is still in time")
	require.Equal(t, domain.InviteStatusConsumed, consumed.Status)
}

func testExpireInvites(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedTeam(t, s, "T1")
	seedInvite(t, s, "I1", "h1", "T1", t0)
	seedInvite(t, s, "I2", "h2", "T1", t0.Add(time.Hour))
	seedInvite(t, s, "I3", "h3", "T1", t0.Add(48*time.Hour))

	require.NoError(t, s.Invites().ExpireInvite(ctx, "I3", t0.Add(49*time.Hour)))
	require.ErrorIs(t, s.Invites().ExpireInvite(ctx, "I3", t0.Add(49*time.Hour)), store.ErrConflict)
	require.ErrorIs(t, s.Invites().ExpireInvite(ctx, "missing", t0), store.ErrConflict)

	// I1 expires at exactly t0+7d and is not overdue yet.
	n, err := s.Invites().ExpireOverdueInvites(ctx, t0.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	// Only I1 is overdue at created+7d+30m.
	n, err = s.Invites().ExpireOverdueInvites(ctx, t0.Add(7*24*time.Hour+30*time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	list, err := s.Invites().ListInvitesByTeam(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, []string{"I3", "I2", "I1"}, []string{list[0].ID, list[1].ID, list[2].ID})
	require.Equal(t, domain.InviteStatusExpired, list[0].Status)
	require.Equal(t, domain.InviteStatusPending, list[1].Status)
	require.Equal(t, domain.InviteStatusExpired, list[2].Status)

	none, err := s.Invites().ListInvitesByTeam(ctx, "T2")
	require.NoError(t, err)
	require.Empty(t, none)
}

func testConcurrentConsume(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedTeam(t, s, "T1")
	seedInvite(t, s, "I1", "hash-race", "T1", t0)

	const racers = 8
	var (
		wg        sync.WaitGroup
		winners   atomic.Int32
		conflicts atomic.Int32
	)
	start := make(chan struct{})
	for i := range racers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			err := s.WithTx(ctx, func(tx store.Tx) error {
				_, err := tx.Invites().ConsumeInvite(ctx, "hash-race", "acct", t0.Add(time.Minute))
				return err
			})
			switch {
			case err == nil:
				winners.Add(1)
			case errors.Is(err, store.ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("racer %d: unexpected error: %v", i, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 1, winners.Load())
	require.EqualValues(t, racers-1, conflicts.Load())
}
