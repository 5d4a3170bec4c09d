// Package identity verifies author references against the external
// identity provider. Only references are stored, never credentials.
package identity

import (
	"context"
	"errors"
)

// ErrUnavailable wraps provider failures. A failed verification is fatal to
// the submission that needed it.
var ErrUnavailable = errors.New("identity provider unavailable")

// Identity is what the provider knows about an author reference.
type Identity struct {
	Verified          bool
	AuthoritativeName string
	ProfileRef        string
}

// Verifier checks an author reference.
type Verifier interface {
	Verify(ctx context.Context, authorRef string) (Identity, error)
}

// Passthrough accepts every reference without supplying a name. It is only
// wired when unverified authors are explicitly allowed.
type Passthrough struct{}

func (Passthrough) Verify(_ context.Context, authorRef string) (Identity, error) {
	return Identity{Verified: authorRef != ""}, nil
}

// Deny rejects every reference; used when no provider is configured.
type Deny struct{}

func (Deny) Verify(context.Context, string) (Identity, error) {
	return Identity{}, nil
}
