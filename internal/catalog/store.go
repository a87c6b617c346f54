package catalog

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Store reads the catalog CSV at Path and caches the parsed rows for TTL.
// A failed or empty read is cached too (negative caching), so repeated calls
// within the window do not hammer a missing file. Safe for concurrent use.
type Store struct {
	Path string
	TTL  time.Duration

	// Now is the clock; defaults to time.Now. Override in tests.
	Now func() time.Time

	mu     sync.Mutex
	loaded bool
	rows   []Listing
	ts     time.Time
}

// NewStore returns a Store for the CSV at path, re-read at most once per ttl.
func NewStore(path string, ttl time.Duration) *Store {
	return &Store{Path: path, TTL: ttl, Now: time.Now}
}

// Load returns the cached rows, re-reading the CSV when the TTL window has
// passed. The context is checked before the file read; a canceled context
// returns the context error without disturbing the cached rows.
func (s *Store) Load(ctx context.Context) ([]Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.loaded && now.Sub(s.ts) < s.TTL {
		return s.rows, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := s.read()
	s.loaded = true
	s.rows = rows
	s.ts = now
	return rows, nil
}

// Invalidate drops the cached rows so the next Load re-reads the file.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.rows = nil
	s.mu.Unlock()
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// read parses the CSV at s.Path. Any failure yields an empty slice; a single
// bad row is skipped, not fatal.
func (s *Store) read() []Listing {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Listing
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		l := Listing{
			Brand:   field(rec, "brand"),
			Model:   field(rec, "model"),
			Variant: field(rec, "variant"),
			Image:   field(rec, "image"),
		}
		if l.Image == "" {
			l.Image = field(rec, "link")
		}
		if p, err := strconv.Atoi(field(rec, "price")); err == nil && p >= 0 {
			l.Price = p
		}
		if l.Brand == "" && l.Model == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
