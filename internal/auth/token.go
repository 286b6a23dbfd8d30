package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the session-token claims the client cares about. The token
// is minted and verified server-side; the client only inspects it to
// know which account it belongs to and when it expires.
type Claims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Session wraps a bearer token with its decoded claims.
type Session struct {
	Token  string
	Claims Claims
}

// NewSession parses the token's claims without verifying the signature.
// Verification happens on the server with every request; parsing here only
// serves expiry warnings and log context.
func NewSession(token string) (*Session, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &Session{Token: token, Claims: *claims}, nil
}

// Expired reports whether the token's expiry has passed. Tokens without
// an exp claim never expire from the client's point of view.
func (s *Session) Expired() bool {
	return s.expiresWithin(0)
}

// ExpiresWithin reports whether the token expires inside the window, so
// the UI can prompt for re-login before the server starts rejecting calls.
func (s *Session) ExpiresWithin(window time.Duration) bool {
	return s.expiresWithin(window)
}

func (s *Session) expiresWithin(window time.Duration) bool {
	exp := s.Claims.ExpiresAt
	if exp == nil {
		return false
	}
	return exp.Before(time.Now().Add(window))
}
