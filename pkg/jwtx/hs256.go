package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSecret  = errors.New("jwtx: signing secret is empty")
	ErrMalformed = errors.New("jwtx: malformed or unverifiable token")
	ErrNoSubject = errors.New("jwtx: token has no subject")
)

// Verifier validates a bearer token and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256Verifier checks tokens signed with the identity provider's shared
// secret. Issuer and audience are only enforced when set.
type HS256Verifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

func NewHS256Verifier(secret, issuer, audience string, leeway time.Duration) (*HS256Verifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &HS256Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		leeway:   leeway,
	}, nil
}

func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if claims.Subject == "" {
		return Claims{}, ErrNoSubject
	}
	return claims, nil
}

// SignHS256 produces a token the HS256Verifier accepts. Production tokens come
// from the identity provider; this exists for local tooling and tests.
func SignHS256(secret string, claims Claims) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
