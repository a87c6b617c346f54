// Package catalog provides the local phone dataset used as a fallback when
// the remote search service is unavailable or returns too few results. It is
// intentionally small, but engineered with production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and an explicit Store lifecycle
//   - Deterministic scoring and sorting (stable order for ties)
//   - Negative caching so a missing or broken CSV is not re-read on every call
//
// Scoring favors exact-phrase matches: a row whose normalized text contains
// the whole normalized query scores 100, plus one point per query token found
// in the row. Rows matching zero tokens are excluded.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Listing is a single sellable phone configuration.
type Listing struct {
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Variant string `json:"variant,omitempty"`
	Price   int    `json:"price"`
	Image   string `json:"image,omitempty"`
}

// Key returns the case/whitespace-normalized dedup key for the listing.
// Two listings with the same key describe the same phone configuration.
func (l Listing) Key() string {
	return NormalizeText(l.Brand) + "|" + NormalizeText(l.Model) + "|" + NormalizeText(l.Variant)
}

// foldMarks strips combining diacritical marks so "Pixel Pró" and "Pixel Pro"
// normalize to the same text.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText lower-cases s, strips diacritics and collapses every
// non-alphanumeric run into a single space, trimming the ends. It is the
// shared normalization for dedup keys, search queries, and row text.
func NormalizeText(s string) string {
	if folded, _, err := transform.String(foldMarks, s); err == nil {
		s = folded
	}
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
