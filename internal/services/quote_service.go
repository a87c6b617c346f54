// Package services – QuoteService
//
// This file implements the QuoteService, which owns the server-side registry
// of live quote sessions. Each session tracks one device's pricing exchange
// with the external pricing engine, including warm-up retries and fallback
// endpoint handling; the service hands out opaque session IDs and maps them
// back to sessions on later reads, condition updates, and manual retries.
// Idle sessions are evicted opportunistically on access so the registry does
// not grow without bound.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reprice/go-reprice-backend/internal/quote"
)

// defaultSessionIdle is how long an untouched quote session survives.
const defaultSessionIdle = 30 * time.Minute

// QuoteService manages quote sessions keyed by opaque ID.
type QuoteService struct {
	// Client performs the pricing exchanges for every session.
	Client *quote.Client
	// Logger is attached to each created session.
	Logger zerolog.Logger

	// IdleTTL is the eviction horizon for untouched sessions.
	IdleTTL time.Duration

	// MaxAttempts and Delay override the per-session retry policy when set;
	// zero values keep the quote package defaults.
	MaxAttempts int
	Delay       func(attempt int) time.Duration

	// now is overridable in tests.
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*quoteEntry
}

type quoteEntry struct {
	session *quote.Session
	touched time.Time
}

// NewQuoteService constructs a QuoteService around the given pricing client.
func NewQuoteService(client *quote.Client, logger zerolog.Logger) *QuoteService {
	return &QuoteService{
		Client:   client,
		Logger:   logger,
		IdleTTL:  defaultSessionIdle,
		now:      time.Now,
		sessions: make(map[string]*quoteEntry),
	}
}

// Start opens a new quote session for the given device and condition answers
// and begins pricing immediately. It returns the session ID and the first
// observable snapshot.
func (s *QuoteService) Start(ctx context.Context, modelName string, answers quote.ConditionAnswers) (string, quote.Snapshot, error) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" || !answers.ScreenCondition.Valid() {
		return "", quote.Snapshot{}, ErrInvalidQuote
	}

	sess := quote.NewSession(s.Client, s.Logger)
	if s.MaxAttempts > 0 {
		sess.MaxAttempts = s.MaxAttempts
	}
	if s.Delay != nil {
		sess.Delay = s.Delay
	}
	sess.SetInputs(ctx, modelName, answers)

	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	s.evictLocked(now)
	s.sessions[id] = &quoteEntry{session: sess, touched: now}
	s.mu.Unlock()

	return id, sess.Snapshot(), nil
}

// Get returns the current snapshot for a session.
func (s *QuoteService) Get(id string) (quote.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return quote.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Update replaces the session's inputs. An unchanged input set keeps any held
// quote; a changed one clears it and re-prices.
func (s *QuoteService) Update(ctx context.Context, id, modelName string, answers quote.ConditionAnswers) (quote.Snapshot, error) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" || !answers.ScreenCondition.Valid() {
		return quote.Snapshot{}, ErrInvalidQuote
	}

	sess, err := s.lookup(id)
	if err != nil {
		return quote.Snapshot{}, err
	}
	sess.SetInputs(ctx, modelName, answers)
	return sess.Snapshot(), nil
}

// Retry clears a failed or retry-exhausted session and prices again.
func (s *QuoteService) Retry(ctx context.Context, id string) (quote.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return quote.Snapshot{}, err
	}
	sess.Retry(ctx)
	return sess.Snapshot(), nil
}

// Close shuts down every live session. Used at server shutdown.
func (s *QuoteService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.sessions {
		e.session.Close()
		delete(s.sessions, id)
	}
}

// lookup finds a session, refreshes its idle clock, and sweeps stale ones.
func (s *QuoteService) lookup(id string) (*quote.Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked(now)
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrQuoteNotFound
	}
	e.touched = now
	return e.session, nil
}

// evictLocked closes and removes sessions idle past the TTL. Caller holds mu.
func (s *QuoteService) evictLocked(now time.Time) {
	if s.IdleTTL <= 0 {
		return
	}
	for id, e := range s.sessions {
		if now.Sub(e.touched) > s.IdleTTL {
			e.session.Close()
			delete(s.sessions, id)
		}
	}
}
