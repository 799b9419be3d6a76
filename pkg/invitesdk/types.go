package invitesdk

import "time"

// ============================================================================
// Common Response Types
// ============================================================================

// ErrorResponse is the body of every non-2xx response.
// Client code should use the APIError type from errors.go instead.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ============================================================================
// Invite Issuance
// ============================================================================

// SendInviteRequest asks for an invite to be issued. SentBy is optional; when
// present it must match the authenticated caller.
type SendInviteRequest struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	TeamID string `json:"team_id"`
	SentBy string `json:"sent_by,omitempty"`
}

// SendInviteResponse carries the join link. The token is shown exactly once.
type SendInviteResponse struct {
	InviteLink string    `json:"inviteLink"`
	Token      string    `json:"token"`
	InviteID   string    `json:"invite_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ============================================================================
// Invite Redemption
// ============================================================================

type JoinTeamRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Token       string `json:"token"`
}

type JoinTeamResponse struct {
	Message    string         `json:"message"`
	Membership MembershipInfo `json:"membership"`
}

type MembershipInfo struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	TeamID    string    `json:"team_id"`
	Role      string    `json:"role"`
	InviteID  string    `json:"invite_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InvitePreviewResponse is what the join page needs to render before the
// form is submitted.
type InvitePreviewResponse struct {
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ============================================================================
// Invite Management
// ============================================================================

type InviteInfo struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	TeamID     string     `json:"team_id"`
	SentBy     string     `json:"sent_by"`
	Status     string     `json:"status"`
	ConsumedBy string     `json:"consumed_by,omitempty"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

type ListInvitesResponse struct {
	Invites []InviteInfo `json:"invites"`
}

// ============================================================================
// Health
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
