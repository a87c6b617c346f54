package catalog

import (
	"sort"
	"strings"
)

// maxResults caps a ranked result set.
const maxResults = 50

// Search ranks rows against a free-text query. The query and each row's
// concatenated brand/model/variant text are normalized the same way; a row
// qualifies only if at least one query token is a substring of the row text.
// Score = 100 when the full normalized query is a substring, plus the number
// of matching tokens. Results are sorted by descending score (stable for
// ties) and truncated to the top 50.
func Search(rows []Listing, query string) []Listing {
	q := NormalizeText(query)
	if q == "" {
		return nil
	}
	tokens := strings.Fields(q)

	type scored struct {
		score   int
		listing Listing
	}
	var buf []scored

	for _, r := range rows {
		full := NormalizeText(r.Brand + " " + r.Model + " " + r.Variant)
		if full == "" {
			continue
		}

		// Require at least one token match to avoid garbage results.
		matches := 0
		for _, t := range tokens {
			if strings.Contains(full, t) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		score := matches
		if strings.Contains(full, q) {
			score += 100
		}
		buf = append(buf, scored{score: score, listing: r})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool { return buf[a].score > buf[b].score })

	n := len(buf)
	if n > maxResults {
		n = maxResults
	}
	out := make([]Listing, n)
	for i := 0; i < n; i++ {
		out[i] = buf[i].listing
	}
	return out
}

// Merge deduplicates primary and secondary listings by normalized key.
// Primary entries are kept; on a key collision the price resolves to the
// higher of the two and the image is taken from whichever side has one.
// Partial upstream data has historically under-priced some models, hence
// the max-of-two rule.
func Merge(primary, secondary []Listing) []Listing {
	idx := make(map[string]int, len(primary)+len(secondary))
	out := make([]Listing, 0, len(primary)+len(secondary))

	add := func(l Listing) {
		key := l.Key()
		i, ok := idx[key]
		if !ok {
			idx[key] = len(out)
			out = append(out, l)
			return
		}
		if l.Price > out[i].Price {
			out[i].Price = l.Price
		}
		if out[i].Image == "" {
			out[i].Image = l.Image
		}
	}

	for _, l := range primary {
		add(l)
	}
	for _, l := range secondary {
		add(l)
	}
	return out
}
