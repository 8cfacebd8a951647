// Package auth provides the authentication context injected into the
// transport client. Tokens are never held in package-level state; callers
// pass a TokenSource explicitly.
package auth

import (
	"errors"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrSessionExpired reports that the identity-provider session is no longer
// valid and the user has to sign in again.
var ErrSessionExpired = errors.New("identity session expired")

// TokenSource yields the bearer token for authenticated requests. An empty
// token with a nil error means the caller is unauthenticated and the request
// should be sent without an Authorization header.
type TokenSource interface {
	Token() (string, error)
}

// Anonymous is the token source for reporter flows, which never authenticate.
var Anonymous TokenSource = anonymousSource{}

type anonymousSource struct{}

func (anonymousSource) Token() (string, error) { return "", nil }

// StaticTokenSource wraps a fixed token string.
type StaticTokenSource string

func (s StaticTokenSource) Token() (string, error) { return string(s), nil }

// SessionTokenSource holds the token obtained from the identity provider and
// refuses to hand it out once its exp claim has passed. The token itself is
// not verified here; the backend is the authority on signature validity.
type SessionTokenSource struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time
}

// NewSessionTokenSource creates an empty source; call SetToken after login.
func NewSessionTokenSource() *SessionTokenSource {
	return &SessionTokenSource{now: time.Now}
}

// SetToken stores a freshly issued token, reading its exp claim when present.
func (s *SessionTokenSource) SetToken(token string) error {
	var expiresAt time.Time

	if token != "" {
		claims := jwt.MapClaims{}
		_, _, err := jwt.NewParser().ParseUnverified(token, claims)
		if err != nil {
			return err
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			expiresAt = exp.Time
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
	return nil
}

// Token returns the stored token, or ErrSessionExpired when it is missing or
// past its expiry.
func (s *SessionTokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" {
		return "", ErrSessionExpired
	}
	if !s.expiresAt.IsZero() && s.now().After(s.expiresAt) {
		return "", ErrSessionExpired
	}
	return s.token, nil
}
