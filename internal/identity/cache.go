package identity

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached remembers successful verifications for a while. Negative answers
// and errors are never cached.
type Cached struct {
	next  Verifier
	store *cache.Cache
}

func NewCached(next Verifier, ttl time.Duration) *Cached {
	return &Cached{next: next, store: cache.New(ttl, 2*ttl)}
}

func (c *Cached) Verify(ctx context.Context, authorRef string) (Identity, error) {
	if v, ok := c.store.Get(authorRef); ok {
		return v.(Identity), nil
	}
	id, err := c.next.Verify(ctx, authorRef)
	if err != nil {
		return id, err
	}
	if id.Verified {
		c.store.SetDefault(authorRef, id)
	}
	return id, nil
}
