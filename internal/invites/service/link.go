package service

import (
	"net/url"
	"strings"
)

// JoinPath is where the client app renders the redemption form.
const JoinPath = "/join-team"

// BuildJoinLink renders {origin}/join-team?token={token}.
func BuildJoinLink(origin, token string) string {
	return strings.TrimRight(origin, "/") + JoinPath + "?token=" + url.QueryEscape(token)
}
