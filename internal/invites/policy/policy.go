// Package policy provides authorization decisions for team invites.
package policy

import "github.com/aussiebroadwan/clubhouse/internal/invites/domain"

// Action is something a member may attempt on their team.
type Action int

const (
	// ActionIssueInvite allows issuing invites for the team.
	ActionIssueInvite Action = iota + 1
	// ActionManageInvites allows listing and revoking the team's invites.
	ActionManageInvites
)

// Can reports whether requester may perform action on teamID. Only coaches
// and admins of that same team qualify.
func Can(requester domain.Membership, action Action, teamID string) bool {
	if teamID == "" || requester.TeamID != teamID || requester.AccountID == "" {
		return false
	}
	switch action {
	case ActionIssueInvite, ActionManageInvites:
		return requester.Role.Manages()
	}
	return false
}

// CanGrant reports whether a member holding granter may hand out role.
// Admin is only grantable by admins; coaches may invite anyone else.
func CanGrant(granter, role domain.Role) bool {
	if !role.Valid() || !granter.Manages() {
		return false
	}
	if role == domain.RoleAdmin {
		return granter == domain.RoleAdmin
	}
	return true
}

// CanInvite combines Can and CanGrant for invite issuance.
func CanInvite(requester domain.Membership, teamID string, role domain.Role) bool {
	return Can(requester, ActionIssueInvite, teamID) && CanGrant(requester.Role, role)
}
