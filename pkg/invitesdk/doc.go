/*
Package invitesdk provides a client SDK for the clubhouse team invite service.

# SDKClient vs Session

  - SDKClient: public operations (joining a team, previewing an invite, health)
  - Session: operations performed by a signed-in coach or admin

	client := invitesdk.NewSDKClient("https://api.clubhouse.example")

	// A coach issues an invite with their identity-provider access token
	session := client.NewSession(accessToken)
	sent, err := session.SendInvite(ctx, invitesdk.SendInviteRequest{
		Email:  "athlete@example.com",
		Role:   "athlete",
		TeamID: teamID,
	})

	// The invitee opens sent.InviteLink and submits the join form
	joined, err := client.JoinTeam(ctx, invitesdk.JoinTeamRequest{
		Token:    token,
		FullName: "Alex Athlete",
		Password: "correct horse battery",
	})

# Error Handling

Every non-2xx response is returned as an *APIError. Match it with errors.Is
against the predefined values:

	_, err := client.JoinTeam(ctx, req)
	switch {
	case errors.Is(err, invitesdk.ErrConflict):
		// the invite was already used
	case errors.Is(err, invitesdk.ErrExpired):
		// ask the coach for a new invite
	}

Errors for which APIError.Temporary reports true may be retried after
RetryAfter. Retrying JoinTeam with the same token never creates a second
account.
*/
package invitesdk
