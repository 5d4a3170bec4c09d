package confession

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zeebo/xxh3"

	"github.com/sujalbistaa/v4ult/internal/models"
)

// Locked replaces the identity field until the confession is paid.
const Locked = "LOCKED"

// Price is the fixed reveal fee shown to viewers.
type Price struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

// Artwork is the alias-derived card metadata. It never carries the real name.
type Artwork struct {
	Alias    string `json:"alias"`
	Monogram string `json:"monogram"`
	Hue      int    `json:"hue"`
}

// Preview is everything a viewer may see for a short code.
type Preview struct {
	ShortCode  string  `json:"shortCode"`
	Category   string  `json:"category"`
	ViewCount  int64   `json:"viewCount"`
	Artwork    Artwork `json:"artwork"`
	Body       string  `json:"body"`
	Identity   string  `json:"identity"`
	SocialLink string  `json:"socialLink,omitempty"`
	Price      *Price  `json:"price,omitempty"`
	Paid       bool    `json:"paid"`
}

// PreviewFor applies the disclosure rule: identity is shown only once state is
// paid. Target name, scores and author reference are never included.
func PreviewFor(c *models.Confession, state models.PaymentState, price Price) Preview {
	p := Preview{
		ShortCode: c.ShortCode,
		Category:  c.Category,
		ViewCount: c.ViewCount,
		Artwork:   ArtworkFor(c.DisplayAlias),
		Body:      c.Body,
	}
	if state != models.PaymentPaid {
		p.Identity = Locked
		p.Price = &price
		return p
	}
	p.Paid = true
	p.Identity = c.ClaimedSenderName
	p.SocialLink = c.ProfileRef
	return p
}

// ArtworkFor derives stable card metadata from a display alias.
func ArtworkFor(alias string) Artwork {
	alias = strings.TrimSpace(alias)
	a := Artwork{Alias: alias}
	if r, _ := utf8.DecodeRuneInString(alias); r != utf8.RuneError {
		a.Monogram = string(unicode.ToUpper(r))
	}
	a.Hue = int(xxh3.HashString(strings.ToLower(alias)) % 360)
	return a
}
