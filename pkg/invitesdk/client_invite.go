package invitesdk

import (
	"context"
	"net/http"
	"net/url"
)

// JoinTeam redeems an invite token, creating the account and its team
// membership. This is a public endpoint (no authentication required).
func (c *SDKClient) JoinTeam(ctx context.Context, req JoinTeamRequest) (*JoinTeamResponse, error) {
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/join-team", body)
	if err != nil {
		return nil, err
	}

	var joinResp JoinTeamResponse
	if err := decodeJSON(resp, &joinResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &joinResp, nil
}

// PreviewInvite shows what a token grants without consuming it.
func (c *SDKClient) PreviewInvite(ctx context.Context, token string) (*InvitePreviewResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/join-team?token="+url.QueryEscape(token), nil)
	if err != nil {
		return nil, err
	}

	var preview InvitePreviewResponse
	if err := decodeJSON(resp, &preview, http.StatusOK); err != nil {
		return nil, err
	}

	return &preview, nil
}
