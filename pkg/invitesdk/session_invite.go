package invitesdk

import (
	"context"
	"net/http"
	"net/url"
)

// SendInvite issues an invite on behalf of the session's member, who must
// coach or administer the team.
func (s *Session) SendInvite(ctx context.Context, req SendInviteRequest) (*SendInviteResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/invite/send", body)
	if err != nil {
		return nil, err
	}

	var sendResp SendInviteResponse
	if err := decodeJSON(resp, &sendResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &sendResp, nil
}

// ListTeamInvites returns the team's invites, newest first.
func (s *Session) ListTeamInvites(ctx context.Context, teamID string) ([]InviteInfo, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/teams/"+url.PathEscape(teamID)+"/invites", nil)
	if err != nil {
		return nil, err
	}

	var listResp ListInvitesResponse
	if err := decodeJSON(resp, &listResp, http.StatusOK); err != nil {
		return nil, err
	}

	return listResp.Invites, nil
}

// RevokeInvite retires a pending invite.
func (s *Session) RevokeInvite(ctx context.Context, inviteID string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/invites/"+url.PathEscape(inviteID), nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}
