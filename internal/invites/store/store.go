package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict means a conditional update matched no row: the record was
	// not in the state the caller required.
	ErrConflict = errors.New("store: conditional update matched no row")

	// ErrUnavailable marks contention or connectivity failures that are worth
	// retrying (lock timeouts, serialization failures, dropped connections).
	ErrUnavailable = errors.New("store: temporarily unavailable")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Repositories hang off it so a Tx exposes exactly the same
// surface as the root store.
type Store interface {
	Teams() Teams
	Accounts() Accounts
	Memberships() Memberships
	Invites() Invites

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Repositories used inside fn must come from tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Teams interface {
	CreateTeam(ctx context.Context, t domain.Team) error
	GetTeamByID(ctx context.Context, id string) (domain.Team, error)

	// IsEmpty returns true if there are no teams.
	IsEmpty(ctx context.Context) (bool, error)
}

type Accounts interface {
	// CreateAccount inserts an account; ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)
}

type Memberships interface {
	// CreateMembership inserts a membership; ErrAlreadyExists when the account
	// already belongs to the team.
	CreateMembership(ctx context.Context, m domain.Membership) error

	// GetMembership returns the account's membership on a team.
	GetMembership(ctx context.Context, accountID, teamID string) (domain.Membership, error)

	ListMembershipsByTeam(ctx context.Context, teamID string) ([]domain.Membership, error)
}

type Invites interface {
	// CreateInvite writes a new pending invite keyed by its token fingerprint.
	CreateInvite(ctx context.Context, inv domain.Invite) error

	GetInviteByTokenHash(ctx context.Context, hash string) (domain.Invite, error)
	GetInviteByID(ctx context.Context, id string) (domain.Invite, error)

	// ListInvitesByTeam returns the team's invites, newest first.
	ListInvitesByTeam(ctx context.Context, teamID string) ([]domain.Invite, error)

	// ConsumeInvite atomically moves a pending, unexpired invite to consumed
	// and returns the updated record. ErrConflict when no row qualified.
	ConsumeInvite(ctx context.Context, hash, consumedBy string, now time.Time) (domain.Invite, error)

	// ExpireInvite atomically moves a pending invite to expired.
	// ErrConflict when it was not pending.
	ExpireInvite(ctx context.Context, id string, now time.Time) error

	// ExpireOverdueInvites moves every pending invite whose expiry has passed
	// to expired and returns how many changed.
	ExpireOverdueInvites(ctx context.Context, now time.Time) (int64, error)
}
