package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/clubhouse/internal/invites/service"
	"github.com/aussiebroadwan/clubhouse/pkg/httpx"
	"github.com/aussiebroadwan/clubhouse/pkg/invitesdk"
	"github.com/aussiebroadwan/clubhouse/pkg/lockout"
	"github.com/aussiebroadwan/clubhouse/pkg/slogx"
)

const joinSuccessMessage = "Successfully joined the team"

type JoinTeamHandler struct {
	InviteService *service.InviteService
	Lockout       lockout.Lockout
	TrustProxy    bool
}

// ServeHTTP redeems an invite token for a new account and team membership.
//
//	POST /join-team {full_name, email, password, phone_number, token} -> {message, membership}
func (h *JoinTeamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := "join:" + httpx.ClientIP(r, h.TrustProxy)

	if locked, remaining := h.Lockout.IsLocked(ctx, key); locked {
		slogx.FromContext(ctx).Warn("redemption attempt while locked out", "key", key)
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
		httpx.WriteError(w, http.StatusTooManyRequests, "too many failed attempts, try again later")
		return
	}

	var req invitesdk.JoinTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	m, err := h.InviteService.RedeemInvite(ctx, service.RedeemRequest{
		Token:       req.Token,
		FullName:    req.FullName,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		// Only token failures count; a typo in the form should not lock anyone out.
		if errors.Is(err, service.ErrNotFound) ||
			errors.Is(err, service.ErrExpired) ||
			errors.Is(err, service.ErrAlreadyConsumed) {
			h.Lockout.RecordFailure(ctx, key)
		}
		writeServiceError(w, r, err, "failed to join team")
		return
	}
	h.Lockout.RecordSuccess(ctx, key)

	httpx.WriteJSON(w, http.StatusOK, invitesdk.JoinTeamResponse{
		Message:    joinSuccessMessage,
		Membership: toMembershipInfo(m),
	})
}

// HandlePreview describes the invite behind a token without consuming it.
//
//	GET /join-team?token=... -> {team_id, team_name, email, role, status, expires_at}
func (h *JoinTeamHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.InviteService.LookupInvite(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		writeServiceError(w, r, err, "failed to look up invite")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, invitesdk.InvitePreviewResponse{
		TeamID:    preview.Invite.TeamID,
		TeamName:  preview.TeamName,
		Email:     preview.Invite.Email,
		Role:      preview.Invite.Role.String(),
		Status:    string(preview.Status),
		ExpiresAt: preview.Invite.ExpiresAt,
	})
}
