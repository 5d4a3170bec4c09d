// Package shortcode generates human-shareable confession codes such as STC-7K2Q.
package shortcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strings"
)

const (
	DefaultPrefix      = "STC"
	DefaultMaxAttempts = 5
	SuffixLength       = 4

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrCodeSpaceExhausted means every attempt collided with an existing code.
var ErrCodeSpaceExhausted = errors.New("short code space exhausted")

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces codes unique against Exists.
type Generator struct {
	Prefix      string
	MaxAttempts int
	Exists      ExistsFunc
	Rand        io.Reader
}

func New(prefix string, exists ExistsFunc) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Generator{
		Prefix:      strings.ToUpper(prefix),
		MaxAttempts: DefaultMaxAttempts,
		Exists:      exists,
		Rand:        rand.Reader,
	}
}

// Generate returns a code not reported by Exists, retrying on collision.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	attempts := g.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	for i := 0; i < attempts; i++ {
		code, err := g.candidate()
		if err != nil {
			return "", err
		}
		taken, err := g.Exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check short code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func (g *Generator) candidate() (string, error) {
	r := g.Rand
	if r == nil {
		r = rand.Reader
	}
	limit := big.NewInt(int64(len(alphabet)))
	suffix := make([]byte, SuffixLength)
	for i := range suffix {
		n, err := rand.Int(r, limit)
		if err != nil {
			return "", fmt.Errorf("random short code: %w", err)
		}
		suffix[i] = alphabet[n.Int64()]
	}
	return g.Prefix + "-" + string(suffix), nil
}

// Normalize trims and upper-cases a user-supplied code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether an already normalized code is well formed for prefix.
func Valid(prefix, code string) bool {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(strings.ToUpper(prefix)) + `-[A-Z0-9]{4}$`)
	return re.MatchString(code)
}
