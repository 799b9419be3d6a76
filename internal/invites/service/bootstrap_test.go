package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()
	svc := &BootstrapService{Store: s, Hasher: cryptox.Argon2Hasher{Pepper: "p"}}

	done, err := svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.False(t, done)

	req := BootstrapRequest{
		TeamName:      "Thunder U12",
		AdminName:     "Sam Admin",
		AdminEmail:    "Sam@Club.test",
		AdminPassword: "long enough password",
	}

	res, err := svc.Bootstrap(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "sam@club.test", res.Admin.Email)
	require.Equal(t, domain.RoleAdmin, res.Membership.Role)
	require.Equal(t, res.Team.ID, res.Membership.TeamID)
	require.Empty(t, res.Membership.InviteID)

	m, err := s.Memberships().GetMembership(ctx, res.Admin.ID, res.Team.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, m.Role)

	done, err = svc.IsBootstrapped(ctx)
	require.NoError(t, err)
	require.True(t, done)

	_, err = svc.Bootstrap(ctx, req)
	require.ErrorIs(t, err, ErrAlreadyBootstrapped)

	t.Run("bootstrapped admin can invite", func(t *testing.T) {
		invites := &InviteService{Store: s, Hasher: svc.Hasher, Origin: "https://app.test"}
		_, err := invites.IssueInvite(ctx, res.Admin.ID, "coach@club.test", domain.RoleCoach, res.Team.ID)
		require.NoError(t, err)
	})
}

func TestBootstrapValidation(t *testing.T) {
	t.Parallel()
	svc := &BootstrapService{Store: untouchableStore{t}, Hasher: cryptox.Argon2Hasher{}}

	_, err := svc.Bootstrap(context.Background(), BootstrapRequest{
		TeamName:      "Thunder",
		AdminName:     "Sam",
		AdminEmail:    "sam@club.test",
		AdminPassword: "short",
	})
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorContains(t, err, "admin_password must be at least 8 characters")
}
