package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/internal/invites/policy"
	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
	"github.com/aussiebroadwan/clubhouse/pkg/cryptox"
	"github.com/aussiebroadwan/clubhouse/pkg/idx"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

// DefaultStoreTimeout bounds every storage call when none is configured.
const DefaultStoreTimeout = 5 * time.Second

// InviteService issues, redeems and manages team invites.
type InviteService struct {
	Store  store.Store
	Hasher cryptox.PasswordHasher

	// Origin is the client app base URL used in join links.
	Origin string

	StoreTimeout time.Duration

	// EnforceEmailMatch rejects redemptions whose email differs from the
	// invited address.
	EnforceEmailMatch bool

	// Now overrides the clock in tests.
	Now func() time.Time
}

// IssuedInvite is returned once per issuance. Token is never stored and
// cannot be recovered later.
type IssuedInvite struct {
	Token  string
	Link   string
	Invite domain.Invite
}

type issueInput struct {
	RequesterID string      `json:"sent_by" validate:"required,max=64"`
	Email       string      `json:"email" validate:"required,email,max=254"`
	Role        domain.Role `json:"role" validate:"required,role"`
	TeamID      string      `json:"team_id" validate:"required,max=64"`
}

// RedeemRequest carries the new member's details. Email is optional and
// defaults to the invited address.
type RedeemRequest struct {
	Token       string `json:"token" validate:"required,max=512"`
	FullName    string `json:"full_name" validate:"required,max=200"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=256"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=32"`
}

// InvitePreview is what the join page shows before the form is submitted.
type InvitePreview struct {
	Invite   domain.Invite
	TeamName string
	Status   domain.InviteStatus
}

// IssueInvite creates a pending invite for email to join teamID with role,
// on behalf of requesterID. Input is validated and the requester authorized
// before anything is written.
func (s *InviteService) IssueInvite(
	ctx context.Context,
	requesterID string,
	email string,
	role domain.Role,
	teamID string,
) (IssuedInvite, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input
	in := issueInput{
		RequesterID: strings.TrimSpace(requesterID),
		Email:       normalizeEmail(email),
		Role:        domain.Role(strings.ToLower(strings.TrimSpace(role.String()))),
		TeamID:      strings.TrimSpace(teamID),
	}
	if err := validate.Struct(in); err != nil {
		log.Warn("invite issuance rejected", slog.Any("error", err))
		return IssuedInvite{}, validationError(err)
	}

	// 2. Authorize against the requester's membership on the team
	requester, err := s.membership(ctx, in.RequesterID, in.TeamID)
	if err != nil {
		return IssuedInvite{}, err
	}
	if !policy.CanInvite(requester, in.TeamID, in.Role) {
		log.Warn("invite issuance not permitted",
			slog.String("requester_id", in.RequesterID),
			slog.String("team_id", in.TeamID),
			slog.String("requester_role", requester.Role.String()),
			slog.String("role", in.Role.String()),
		)
		return IssuedInvite{}, ErrUnauthorized
	}

	// 3. Generate the token; only its fingerprint is persisted
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invite token", slog.Any("error", err))
		return IssuedInvite{}, err
	}

	now := s.now()
	invite := domain.NewInvite(
		idx.NewAt(now).String(),
		cryptox.FingerprintToken(token),
		in.Email,
		in.Role,
		in.TeamID,
		in.RequesterID,
		now,
	)

	// 4. Single insert
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.Store.Invites().CreateInvite(sctx, invite); err != nil {
		log.Error("failed to create invite",
			slog.String("invite_id", invite.ID),
			slog.Any("error", err),
		)
		return IssuedInvite{}, storageErr(err)
	}

	log.Info("invite issued",
		slog.String("invite_id", invite.ID),
		slog.String("team_id", invite.TeamID),
		slog.String("role", invite.Role.String()),
		slog.String("sent_by", invite.SentBy),
		slog.Time("expires_at", invite.ExpiresAt),
	)

	return IssuedInvite{
		Token:  token,
		Link:   BuildJoinLink(s.Origin, token),
		Invite: invite,
	}, nil
}

// RedeemInvite consumes the invite behind req.Token and creates the account
// and its team membership in one transaction. Either all three effects
// happen or none do, so a failed attempt may be retried with the same token.
func (s *InviteService) RedeemInvite(ctx context.Context, req RedeemRequest) (domain.Membership, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input
	req.Token = strings.TrimSpace(req.Token)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = normalizeEmail(req.Email)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if err := validate.Struct(req); err != nil {
		log.Warn("invite redemption rejected", slog.Any("error", err))
		return domain.Membership{}, validationError(err)
	}

	// 2. Hash outside the transaction so the write lock is held briefly
	passwordHash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.Membership{}, err
	}

	fingerprint := cryptox.FingerprintToken(req.Token)
	now := s.now()
	accountID := idx.NewAt(now).String()

	var (
		membership domain.Membership
		invite     domain.Invite
	)

	// 3. Consume, create account, create membership
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err = s.Store.WithTx(sctx, func(tx store.Tx) error {
		inv, err := tx.Invites().ConsumeInvite(sctx, fingerprint, accountID, now)
		if errors.Is(err, store.ErrConflict) {
			return classifyUnredeemable(sctx, tx, fingerprint)
		}
		if err != nil {
			return err
		}
		invite = inv

		email := inv.Email
		if req.Email != "" {
			if s.EnforceEmailMatch && req.Email != normalizeEmail(inv.Email) {
				return ErrEmailMismatch
			}
			email = req.Email
		}

		account := domain.Account{
			ID:           accountID,
			Email:        email,
			FullName:     req.FullName,
			PhoneNumber:  req.PhoneNumber,
			PasswordHash: passwordHash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Accounts().CreateAccount(sctx, account); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAccountExists
			}
			return err
		}

		membership = domain.Membership{
			ID:        idx.NewAt(now).String(),
			AccountID: account.ID,
			TeamID:    inv.TeamID,
			Role:      inv.Role,
			InviteID:  inv.ID,
			CreatedAt: now,
		}
		return tx.Memberships().CreateMembership(sctx, membership)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound),
			errors.Is(err, ErrExpired),
			errors.Is(err, ErrAlreadyConsumed),
			errors.Is(err, ErrEmailMismatch),
			errors.Is(err, ErrAccountExists):
			log.Warn("invite redemption refused", slog.Any("error", err))
			return domain.Membership{}, err
		}
		log.Error("invite redemption failed", slog.Any("error", err))
		return domain.Membership{}, storageErr(err)
	}

	log.Info("invite redeemed",
		slog.String("invite_id", invite.ID),
		slog.String("account_id", membership.AccountID),
		slog.String("membership_id", membership.ID),
		slog.String("team_id", membership.TeamID),
		slog.String("role", membership.Role.String()),
	)

	return membership, nil
}

// classifyUnredeemable explains why the conditional consume matched nothing.
func classifyUnredeemable(ctx context.Context, tx store.Tx, fingerprint string) error {
	inv, err := tx.Invites().GetInviteByTokenHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if inv.Status == domain.InviteStatusConsumed {
		return ErrAlreadyConsumed
	}
	return ErrExpired
}

// LookupInvite resolves a token for display without consuming it.
func (s *InviteService) LookupInvite(ctx context.Context, token string) (InvitePreview, error) {
	log := slogx.FromContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return InvitePreview{}, validationError(errors.New("token is required"))
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	inv, err := s.Store.Invites().GetInviteByTokenHash(sctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return InvitePreview{}, ErrNotFound
		}
		log.Error("failed to fetch invite", slog.Any("error", err))
		return InvitePreview{}, storageErr(err)
	}

	team, err := s.Store.Teams().GetTeamByID(sctx, inv.TeamID)
	if err != nil {
		log.Error("failed to fetch team for invite",
			slog.String("invite_id", inv.ID),
			slog.Any("error", err),
		)
		return InvitePreview{}, storageErr(err)
	}

	return InvitePreview{
		Invite:   inv,
		TeamName: team.Name,
		Status:   inv.EffectiveStatus(s.now()),
	}, nil
}

// ListTeamInvites returns a team's invites, newest first, for its managers.
func (s *InviteService) ListTeamInvites(ctx context.Context, requesterID, teamID string) ([]domain.Invite, error) {
	requesterID = strings.TrimSpace(requesterID)
	teamID = strings.TrimSpace(teamID)
	if requesterID == "" || teamID == "" {
		return nil, validationError(errors.New("requester and team_id are required"))
	}

	requester, err := s.membership(ctx, requesterID, teamID)
	if err != nil {
		return nil, err
	}
	if !policy.Can(requester, policy.ActionManageInvites, teamID) {
		return nil, ErrUnauthorized
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	invites, err := s.Store.Invites().ListInvitesByTeam(sctx, teamID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list invites",
			slog.String("team_id", teamID),
			slog.Any("error", err),
		)
		return nil, storageErr(err)
	}
	return invites, nil
}

// RevokeInvite retires a pending invite so its token can no longer be
// redeemed. Revoking an invite that already expired is a no-op.
func (s *InviteService) RevokeInvite(ctx context.Context, requesterID, inviteID string) error {
	log := slogx.FromContext(ctx)

	requesterID = strings.TrimSpace(requesterID)
	inviteID = strings.TrimSpace(inviteID)
	if requesterID == "" || inviteID == "" {
		return validationError(errors.New("requester and invite id are required"))
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	inv, err := s.Store.Invites().GetInviteByID(sctx, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return storageErr(err)
	}

	requester, err := s.membership(ctx, requesterID, inv.TeamID)
	if err != nil {
		return err
	}
	if !policy.Can(requester, policy.ActionManageInvites, inv.TeamID) {
		return ErrUnauthorized
	}

	err = s.Store.Invites().ExpireInvite(sctx, inv.ID, s.now())
	if errors.Is(err, store.ErrConflict) {
		current, gerr := s.Store.Invites().GetInviteByID(sctx, inv.ID)
		if gerr != nil {
			return storageErr(gerr)
		}
		if current.Status == domain.InviteStatusConsumed {
			return ErrAlreadyConsumed
		}
		return nil
	}
	if err != nil {
		log.Error("failed to revoke invite",
			slog.String("invite_id", inv.ID),
			slog.Any("error", err),
		)
		return storageErr(err)
	}

	log.Info("invite revoked",
		slog.String("invite_id", inv.ID),
		slog.String("team_id", inv.TeamID),
		slog.String("revoked_by", requesterID),
	)
	return nil
}

// membership loads the requester's membership on a team. Not being a member
// is an authorization failure, not a lookup failure.
func (s *InviteService) membership(ctx context.Context, accountID, teamID string) (domain.Membership, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	m, err := s.Store.Memberships().GetMembership(sctx, accountID, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("requester is not a member of the team",
				slog.String("requester_id", accountID),
				slog.String("team_id", teamID),
			)
			return domain.Membership{}, ErrUnauthorized
		}
		slogx.FromContext(ctx).Error("failed to fetch membership", slog.Any("error", err))
		return domain.Membership{}, storageErr(err)
	}
	return m, nil
}

func (s *InviteService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// now is millisecond precision UTC, the resolution both drivers persist.
func (s *InviteService) now() time.Time {
	clock := s.Now
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Millisecond)
}
