package quote

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the session's position in the quote lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateRequesting  State = "requesting"
	StateReady       State = "ready"
	StateWarmingUp   State = "warming_up"
	StateUnsupported State = "unsupported"
	StateFailed      State = "failed"
)

// Session owns the authoritative quote key for one pricing conversation and
// drives the retry state machine. All methods are safe for concurrent use.
//
// Invariants:
//   - A displayed quote always corresponds to the current key: changing any
//     input clears the quote before a new request starts, and an in-flight
//     response for a superseded key is discarded on arrival (generation
//     counter, not active request abortion).
//   - A quote already held for the current key suppresses re-entry into the
//     requesting state, so unrelated re-evaluations cost no network calls.
type Session struct {
	// MaxAttempts caps automatic warm-up retries; defaults to MaxRetries.
	MaxAttempts int

	// Delay computes the backoff before retry n; defaults to NextDelay.
	// Override in tests to avoid real sleeps.
	Delay func(attempt int) time.Duration

	client *Client
	logger zerolog.Logger

	mu            sync.Mutex
	gen           uint64
	key           string
	req           Request
	haveInputs    bool
	state         State
	quote         *Quote
	lastQuotedKey string
	attempt       int
	exhausted     bool
	errMsg        string
	upstreamLive  *bool
	timer         *time.Timer
	closed        bool
}

// NewSession returns an idle Session backed by client.
func NewSession(client *Client, logger zerolog.Logger) *Session {
	return &Session{
		MaxAttempts: MaxRetries,
		Delay:       NextDelay,
		client:      client,
		logger:      logger,
		state:       StateIdle,
	}
}

// Snapshot is a point-in-time view of the session. UpstreamLive is only set
// while warming up: it reports the last health probe so a poller can tell a
// waking service from a dead one.
type Snapshot struct {
	Key            string `json:"key"`
	State          State  `json:"state"`
	Quote          *Quote `json:"quote,omitempty"`
	Attempt        int    `json:"attempt"`
	RetryExhausted bool   `json:"retry_exhausted"`
	Error          string `json:"error,omitempty"`
	UpstreamLive   *bool  `json:"upstream_live,omitempty"`
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Key:            s.key,
		State:          s.state,
		Quote:          s.quote,
		Attempt:        s.attempt,
		RetryExhausted: s.exhausted,
		Error:          s.errMsg,
		UpstreamLive:   s.upstreamLive,
	}
}

// SetInputs replaces the model and condition answers. An unchanged key is a
// no-op, preserving any quote already held. A changed key clears the quote,
// resets the retry counter, cancels any pending backoff timer, invalidates
// in-flight responses, and triggers a fresh request.
func (s *Session) SetInputs(ctx context.Context, modelName string, answers ConditionAnswers) {
	req := Request{ModelName: modelName, Answers: answers}
	newKey := Key(req)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.haveInputs && newKey == s.key {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.gen++
	s.req = req
	s.key = newKey
	s.haveInputs = true
	s.quote = nil
	s.attempt = 0
	s.exhausted = false
	s.errMsg = ""
	s.upstreamLive = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.Evaluate(ctx)
}

// Evaluate starts a pricing request when the session is eligible: inputs are
// set, no quote is held for the current key, no request is outstanding, and
// pricing is not known-unsupported. Safe to call redundantly.
func (s *Session) Evaluate(ctx context.Context) {
	s.mu.Lock()
	if s.closed || !s.haveInputs || s.state == StateRequesting {
		s.mu.Unlock()
		return
	}
	if s.quote != nil && s.lastQuotedKey == s.key {
		s.state = StateReady
		s.mu.Unlock()
		return
	}
	if s.exhausted || s.state == StateUnsupported || s.state == StateFailed {
		// Terminal until a manual Retry or an input change.
		s.mu.Unlock()
		return
	}
	if s.state == StateWarmingUp {
		// The armed backoff timer owns the next attempt.
		s.mu.Unlock()
		return
	}
	if !s.client.Supported(ctx) {
		s.state = StateUnsupported
		s.mu.Unlock()
		return
	}
	s.state = StateRequesting
	gen := s.gen
	req := s.req
	s.mu.Unlock()

	go s.run(gen, req)
}

// Retry clears a failed or exhausted-warm-up state and requests again with a
// reset attempt counter. It does not revive an unsupported endpoint; only a
// new base URL (fresh Client state) can do that.
func (s *Session) Retry(ctx context.Context) {
	s.mu.Lock()
	if s.closed || s.state == StateUnsupported || s.state == StateRequesting {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.attempt = 0
	s.exhausted = false
	s.errMsg = ""
	s.upstreamLive = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.Evaluate(ctx)
}

// Close cancels pending timers and invalidates in-flight responses. The
// session is unusable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	s.stopTimerLocked()
}

// run performs one exchange and commits its outcome unless the session moved
// on (generation mismatch) while the request was in flight.
func (s *Session) run(gen uint64, req Request) {
	outcome, q, err := s.client.Fetch(context.Background(), req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		pricingStale.Inc()
		return
	}
	pricingExchanges.WithLabelValues(outcome.String()).Inc()

	switch outcome {
	case OutcomeReady:
		s.state = StateReady
		s.quote = q
		s.lastQuotedKey = s.key
		s.attempt = 0
		s.exhausted = false
		s.errMsg = ""
		s.upstreamLive = nil

	case OutcomeWarmingUp:
		s.state = StateWarmingUp
		s.attempt++
		go s.probeHealth(gen)
		if s.attempt <= s.MaxAttempts {
			pricingRetries.Inc()
			d := s.Delay(s.attempt)
			s.logger.Info().
				Int("attempt", s.attempt).
				Dur("delay", d).
				Msg("pricing service warming up, retry scheduled")
			s.scheduleLocked(gen, d)
		} else {
			s.exhausted = true
			s.errMsg = "pricing service is still warming up"
		}

	case OutcomeUnsupported:
		s.state = StateUnsupported
		s.errMsg = "pricing is unavailable for this deployment"

	default:
		s.state = StateFailed
		s.quote = nil
		if err != nil {
			s.errMsg = err.Error()
		} else {
			s.errMsg = "pricing request failed"
		}
	}
}

// probeHealth checks upstream liveness while a warm-up is pending. The probe
// is advisory: it never reclassifies the exchange, and a result landing after
// the session moved on is dropped.
func (s *Session) probeHealth(gen uint64) {
	live := s.client.Healthy(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen || s.state != StateWarmingUp {
		return
	}
	s.upstreamLive = &live
	s.logger.Debug().Bool("live", live).Msg("pricing health probe")
}

// scheduleLocked arms the backoff timer. Caller holds s.mu.
func (s *Session) scheduleLocked(gen uint64, d time.Duration) {
	s.stopTimerLocked()
	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		if s.closed || gen != s.gen || s.state != StateWarmingUp {
			s.mu.Unlock()
			return
		}
		s.state = StateRequesting
		req := s.req
		s.mu.Unlock()

		s.run(gen, req)
	})
}

// stopTimerLocked cancels any armed backoff timer. Caller holds s.mu.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
