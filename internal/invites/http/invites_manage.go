package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/invitesdk"
)

type TeamInvitesHandler struct {
	InviteService *service.InviteService
}

// ServeHTTP lists a team's invites for its coaches and admins.
//
//	GET /teams/{team_id}/invites -> {invites: [...]}
func (h *TeamInvitesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requesterID, _ := httpx.UserIDFromContext(ctx)

	invites, err := h.InviteService.ListTeamInvites(ctx, requesterID, r.PathValue("team_id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to list invites")
		return
	}

	now := time.Now()
	resp := invitesdk.ListInvitesResponse{Invites: make([]invitesdk.InviteInfo, 0, len(invites))}
	for _, inv := range invites {
		resp.Invites = append(resp.Invites, toInviteInfo(inv, now))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type InviteRevokeHandler struct {
	InviteService *service.InviteService
}

// ServeHTTP revokes a pending invite.
//
//	DELETE /invites/{id} -> 204
func (h *InviteRevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requesterID, _ := httpx.UserIDFromContext(ctx)

	if err := h.InviteService.RevokeInvite(ctx, requesterID, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "failed to revoke invite")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toInviteInfo(inv domain.Invite, now time.Time) invitesdk.InviteInfo {
	return invitesdk.InviteInfo{
		ID:         inv.ID,
		Email:      inv.Email,
		Role:       inv.Role.String(),
		TeamID:     inv.TeamID,
		SentBy:     inv.SentBy,
		Status:     string(inv.EffectiveStatus(now)),
		ConsumedBy: inv.ConsumedBy,
		ConsumedAt: inv.ConsumedAt,
		CreatedAt:  inv.CreatedAt,
		ExpiresAt:  inv.ExpiresAt,
	}
}

func toMembershipInfo(m domain.Membership) invitesdk.MembershipInfo {
	return invitesdk.MembershipInfo{
		ID:        m.ID,
		AccountID: m.AccountID,
		TeamID:    m.TeamID,
		Role:      m.Role.String(),
		InviteID:  m.InviteID,
		CreatedAt: m.CreatedAt,
	}
}
