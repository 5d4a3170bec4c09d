// Package auth checks admin credentials.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
)

var (
	// ErrMissingCredentials means no token was presented.
	ErrMissingCredentials = errors.New("admin token required")
	// ErrInvalidCredentials means the token was presented but is wrong.
	ErrInvalidCredentials = errors.New("invalid admin token")
)

type Authenticator interface {
	// Authenticate returns the actor name for a valid token.
	Authenticate(token string) (actor string, err error)
}

// StaticToken accepts a single shared secret.
type StaticToken struct {
	digest [sha256.Size]byte
	actor  string
}

// NewStaticToken panics on an empty secret; running the admin API without
// one would leave it open.
func NewStaticToken(secret string) *StaticToken {
	if secret == "" {
		panic("auth: admin token not configured")
	}
	return &StaticToken{digest: sha256.Sum256([]byte(secret)), actor: "admin"}
}

func (s *StaticToken) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrMissingCredentials
	}
	got := sha256.Sum256([]byte(token))
	if subtle.ConstantTimeCompare(got[:], s.digest[:]) != 1 {
		return "", ErrInvalidCredentials
	}
	return s.actor, nil
}
