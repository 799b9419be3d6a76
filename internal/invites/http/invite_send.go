package http

import (
	"net/http"

	"github.com/aussiebroadwan/clubhouse/internal/invites/domain"
	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/invitesdk"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

type InviteSendHandler struct {
	InviteService *service.InviteService
}

// ServeHTTP issues an invite on behalf of the authenticated caller.
//
//	POST /invite/send {email, role, team_id, sent_by} -> {inviteLink, token, invite_id, expires_at}
func (h *InviteSendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requesterID, ok := httpx.UserIDFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req invitesdk.SendInviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	// sent_by is accepted for compatibility but the token decides who is asking.
	if req.SentBy != "" && req.SentBy != requesterID {
		slogx.FromContext(ctx).Warn("sent_by does not match authenticated caller",
			"sent_by", req.SentBy,
			"subject", requesterID,
		)
		httpx.WriteError(w, http.StatusForbidden, "sent_by must match the authenticated user")
		return
	}

	issued, err := h.InviteService.IssueInvite(ctx, requesterID, req.Email, domain.Role(req.Role), req.TeamID)
	if err != nil {
		writeServiceError(w, r, err, "failed to send invite")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, invitesdk.SendInviteResponse{
		InviteLink: issued.Link,
		Token:      issued.Token,
		InviteID:   issued.Invite.ID,
		ExpiresAt:  issued.Invite.ExpiresAt,
	})
}
