package domain

import (
	"errors"
	"time"
)

// InviteTTL is how long an invite stays redeemable after issuance.
const InviteTTL = 7 * 24 * time.Hour

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusConsumed InviteStatus = "consumed"
	InviteStatusExpired  InviteStatus = "expired"
)

var ErrUnknownStatus = errors.New("unknown invite status")

func ParseInviteStatus(s string) (InviteStatus, error) {
	switch st := InviteStatus(s); st {
	case InviteStatusPending, InviteStatusConsumed, InviteStatusExpired:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// Invite is a single-use, time-limited authorization to join a team with a
// role. Only the fingerprint of the token is kept.
//
// Status only ever moves pending -> consumed or pending -> expired.
type Invite struct {
	ID         string
	TokenHash  string
	Email      string
	Role       Role
	TeamID     string
	SentBy     string
	Status     InviteStatus
	ConsumedBy string // account id, empty until consumed
	ConsumedAt *time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewInvite builds a pending invite that expires exactly InviteTTL after now.
func NewInvite(id, tokenHash, email string, role Role, teamID, sentBy string, now time.Time) Invite {
	return Invite{
		ID:        id,
		TokenHash: tokenHash,
		Email:     email,
		Role:      role,
		TeamID:    teamID,
		SentBy:    sentBy,
		Status:    InviteStatusPending,
		ExpiresAt: now.Add(InviteTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsExpired reports whether now is past the expiry instant. An invite is
// still redeemable at exactly ExpiresAt.
func (i Invite) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// EffectiveStatus is the status a reader should act on: a pending invite past
// its expiry is expired even if nothing has swept it yet.
func (i Invite) EffectiveStatus(now time.Time) InviteStatus {
	if i.Status == InviteStatusPending && i.IsExpired(now) {
		return InviteStatusExpired
	}
	return i.Status
}

// Redeemable reports whether the invite can still be consumed.
func (i Invite) Redeemable(now time.Time) bool {
	return i.EffectiveStatus(now) == InviteStatusPending
}
