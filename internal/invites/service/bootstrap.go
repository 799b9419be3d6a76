package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/idx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// BootstrapRequest describes the first team and the admin who runs it.
type BootstrapRequest struct {
	TeamName      string `json:"team_name" validate:"required,max=120"`
	AdminName     string `json:"admin_name" validate:"required,max=200"`
	AdminEmail    string `json:"admin_email" validate:"required,email,max=254"`
	AdminPassword string `json:"admin_password" validate:"required,min=8,max=256"`
}

type BootstrapResult struct {
	Team       domain.Team
	Admin      domain.Account
	Membership domain.Membership
}

// BootstrapService seeds an empty database so the first admin can start
// issuing invites.
type BootstrapService struct {
	Store  store.Store
	Hasher cryptox.PasswordHasher
	Now    func() time.Time
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Teams().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

func (s *BootstrapService) Bootstrap(ctx context.Context, req BootstrapRequest) (BootstrapResult, error) {
	l := slogx.FromContext(ctx)

	req.TeamName = strings.TrimSpace(req.TeamName)
	req.AdminName = strings.TrimSpace(req.AdminName)
	req.AdminEmail = normalizeEmail(req.AdminEmail)
	if err := validate.Struct(req); err != nil {
		return BootstrapResult{}, validationError(err)
	}

	passHash, err := s.Hasher.Hash(req.AdminPassword)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return BootstrapResult{}, err
	}

	now := s.now()
	res := BootstrapResult{
		Team: domain.Team{
			ID:        idx.NewAt(now).String(),
			Name:      req.TeamName,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Admin: domain.Account{
			ID:           idx.NewAt(now).String(),
			Email:        req.AdminEmail,
			FullName:     req.AdminName,
			PasswordHash: passHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
	res.Membership = domain.Membership{
		ID:        idx.NewAt(now).String(),
		AccountID: res.Admin.ID,
		TeamID:    res.Team.ID,
		Role:      domain.RoleAdmin,
		CreatedAt: now,
	}

	// The emptiness check runs inside the transaction so two concurrent
	// bootstraps cannot both pass it.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Teams().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrAlreadyBootstrapped
		}

		if err := tx.Teams().CreateTeam(ctx, res.Team); err != nil {
			l.Error("failed to create team", slog.Any("error", err))
			return err
		}
		if err := tx.Accounts().CreateAccount(ctx, res.Admin); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAccountExists
			}
			l.Error("failed to create admin account", slog.Any("error", err))
			return err
		}
		if err := tx.Memberships().CreateMembership(ctx, res.Membership); err != nil {
			l.Error("failed to create admin membership", slog.Any("error", err))
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyBootstrapped) {
			l.Warn("attempted bootstrap on already-bootstrapped system")
		}
		return BootstrapResult{}, storageErr(err)
	}

	l.Info("successfully bootstrapped system",
		slog.String("team_id", res.Team.ID),
		slog.String("admin_account_id", res.Admin.ID),
	)
	return res, nil
}

func (s *BootstrapService) now() time.Time {
	clock := s.Now
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Millisecond)
}
