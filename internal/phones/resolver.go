// Package phones resolves free-text queries into candidate phone listings.
// It prefers the remote search service but guarantees a usable result set by
// blending in the local catalog: a failing or empty remote answer falls back
// to the catalog entirely, and a sparse remote answer is enriched with local
// matches. Results are memoized in memory and in the durable key/value store,
// and concurrent lookups for the same normalized query share one in-flight
// request.
package phones

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/reprice/go-reprice-backend/internal/catalog"
)

// sparseThreshold is the remote result-set size below which local catalog
// matches are merged in.
const sparseThreshold = 20

// KV is the durable cache the resolver persists search results to.
type KV interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type cacheEntry struct {
	TS   int64             `json:"ts"`
	Data []catalog.Listing `json:"data"`
}

// Resolver merges remote search results with the local catalog fallback.
// Construct once per process; all fields are read-only after construction.
type Resolver struct {
	// SearchURL is the remote search endpoint; queries are appended as ?q=.
	// Empty disables the remote call and serves catalog-only results.
	SearchURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	Catalog *catalog.Store
	KV      KV

	// TTL bounds both memory and persisted entries.
	TTL time.Duration

	// CacheVersion is embedded in persisted keys so a logic or schema
	// change invalidates all prior entries on first use.
	CacheVersion int

	Logger zerolog.Logger

	// Now is the clock; defaults to time.Now. Override in tests.
	Now func() time.Time

	mu     sync.Mutex
	memory map[string]cacheEntry
	flight singleflight.Group
}

// Resolve returns the ranked listings for query, consulting the memory cache,
// then the persisted cache, then the network. Concurrent calls for the same
// normalized query are coalesced into a single upstream request.
func (r *Resolver) Resolve(ctx context.Context, query string) ([]catalog.Listing, error) {
	key := normalizeQuery(query)
	if key == "" {
		return nil, nil
	}

	if data, ok := r.fromMemory(key); ok {
		searchLookups.WithLabelValues("memory").Inc()
		return data, nil
	}
	if data, ok := r.fromStore(ctx, key); ok {
		searchLookups.WithLabelValues("store").Inc()
		return data, nil
	}

	v, err, _ := r.flight.Do(key, func() (any, error) {
		// Re-check memory: a concurrent winner may have resolved the key
		// between our miss and entering the group.
		if data, ok := r.fromMemory(key); ok {
			searchLookups.WithLabelValues("memory").Inc()
			return data, nil
		}
		searchLookups.WithLabelValues("network").Inc()
		data := r.fetch(ctx, query)
		r.remember(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.Listing), nil
}

// fetch performs the remote search with full catalog fallback. It never
// returns an error: every failure path degrades to the local catalog.
func (r *Resolver) fetch(ctx context.Context, query string) []catalog.Listing {
	remote, err := r.remoteSearch(ctx, query)
	if err != nil {
		r.Logger.Warn().Err(err).Str("query", query).Msg("remote search failed, using catalog fallback")
		return r.localSearch(ctx, query)
	}

	if len(remote) == 0 {
		return r.localSearch(ctx, query)
	}
	if len(remote) < sparseThreshold {
		if local := r.localSearch(ctx, query); len(local) > 0 {
			return catalog.Merge(remote, local)
		}
	}
	return remote
}

func (r *Resolver) localSearch(ctx context.Context, query string) []catalog.Listing {
	rows, err := r.Catalog.Load(ctx)
	if err != nil {
		return nil
	}
	return catalog.Search(rows, query)
}

func (r *Resolver) remoteSearch(ctx context.Context, query string) ([]catalog.Listing, error) {
	if r.SearchURL == "" {
		return nil, fmt.Errorf("remote search disabled")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.SearchURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 503 is common while the upstream spins up.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("remote search status %d", resp.StatusCode)
	}

	var data []catalog.Listing
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Resolver) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return http.DefaultClient
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Resolver) fresh(e cacheEntry) bool {
	return r.now().Sub(time.UnixMilli(e.TS)) < r.TTL
}

func (r *Resolver) fromMemory(key string) ([]catalog.Listing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.memory[key]
	if !ok || !r.fresh(e) {
		return nil, false
	}
	return e.Data, true
}

func (r *Resolver) fromStore(ctx context.Context, key string) ([]catalog.Listing, bool) {
	if r.KV == nil {
		return nil, false
	}
	raw, ok := r.KV.Get(ctx, r.storageKey(key))
	if !ok {
		return nil, false
	}
	var e cacheEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || !r.fresh(e) {
		return nil, false
	}
	r.mu.Lock()
	if r.memory == nil {
		r.memory = make(map[string]cacheEntry)
	}
	r.memory[key] = e
	r.mu.Unlock()
	return e.Data, true
}

func (r *Resolver) remember(ctx context.Context, key string, data []catalog.Listing) {
	e := cacheEntry{TS: r.now().UnixMilli(), Data: data}

	r.mu.Lock()
	if r.memory == nil {
		r.memory = make(map[string]cacheEntry)
	}
	r.memory[key] = e
	r.mu.Unlock()

	if r.KV == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := r.KV.Set(ctx, r.storageKey(key), string(raw), r.TTL); err != nil {
		r.Logger.Warn().Err(err).Msg("persist search cache failed")
	}
}

func (r *Resolver) storageKey(key string) string {
	return fmt.Sprintf("phoneSearch:v%d:%s", r.CacheVersion, key)
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
