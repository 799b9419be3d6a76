package domain

import "time"

// Membership binds an account to a team. Role is copied from the invite at
// redemption time and never re-derived from it.
type Membership struct {
	ID        string
	AccountID string
	TeamID    string
	Role      Role
	InviteID  string // empty for bootstrap memberships
	CreatedAt time.Time
}
