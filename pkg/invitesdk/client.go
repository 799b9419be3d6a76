package invitesdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the clubhouse invite service. It covers the
// public endpoints and creates Sessions for the authenticated ones.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new invite service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Session makes requests on behalf of a signed-in team member, using the
// access token their identity provider issued.
type Session struct {
	client      *SDKClient
	accessToken string
}

// NewSession wraps an identity-provider access token.
func (c *SDKClient) NewSession(accessToken string) *Session {
	return &Session{client: c, accessToken: accessToken}
}
