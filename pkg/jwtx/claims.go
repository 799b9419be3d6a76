package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of identity-provider access-token claims this service
// reads. The subject is the account ID of the caller.
type Claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`

	// Role is the provider-level role (e.g. "authenticated"), not a team role.
	Role string `json:"role,omitempty"`
}

// NewClaims builds claims for subject valid for ttl from now.
func NewClaims(subject, email, issuer string, audience []string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  "authenticated",
	}
}
