package quote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func newTestSession(t *testing.T, c *Client) *Session {
	t.Helper()
	s := NewSession(c, zerolog.Nop())
	s.Delay = func(int) time.Duration { return time.Millisecond }
	t.Cleanup(s.Close)
	return s
}

func TestSession_WarmupRetriesThenReady(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		// Exactly 6 cold-start responses, then a priced answer.
		if atomic.AddInt32(&calls, 1) <= 6 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"final_price": 32000.0})
	}))
	defer srv.Close()

	s := newTestSession(t, newTestClient(t, srv.URL, "", &fakeKV{}))
	s.SetInputs(context.Background(), "iPhone 13 Pro", sampleRequest().Answers)

	waitFor(t, 5*time.Second, func() bool { return s.Snapshot().State == StateReady })

	snap := s.Snapshot()
	if snap.Quote == nil || snap.Quote.FinalPrice != 32000 {
		t.Fatalf("expected final price 32000, got %+v", snap.Quote)
	}
	if snap.Attempt != 0 {
		t.Fatalf("attempt counter should reset to 0 on success, got %d", snap.Attempt)
	}
	if got := atomic.LoadInt32(&calls); got != 7 {
		t.Fatalf("expected 7 exchanges (6 cold + 1 priced), got %d", got)
	}
}

func TestSession_WarmupExhaustionStopsRetrying(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestSession(t, newTestClient(t, srv.URL, "", &fakeKV{}))
	s.MaxAttempts = 2
	s.SetInputs(context.Background(), "iPhone 13 Pro", sampleRequest().Answers)

	waitFor(t, 5*time.Second, func() bool { return s.Snapshot().RetryExhausted })

	snap := s.Snapshot()
	if snap.State != StateWarmingUp {
		t.Fatalf("exhaustion stays warming_up (manual retry allowed), got %v", snap.State)
	}
	if snap.Error == "" {
		t.Fatalf("expected a surfaced warm-up message")
	}

	// No further automatic attempts.
	before := atomic.LoadInt32(&calls)
	s.Evaluate(context.Background())
	time.Sleep(50 * time.Millisecond)
	if after := atomic.LoadInt32(&calls); after != before {
		t.Fatalf("no retries expected after exhaustion, got %d -> %d", before, after)
	}

	// Manual retry resets the counter and requests again.
	s.Retry(context.Background())
	waitFor(t, time.Second, func() bool { return atomic.LoadInt32(&calls) > before })
}

func TestSession_WarmupProbesUpstreamHealth(t *testing.T) {
	var probes int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			atomic.AddInt32(&probes, 1)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestSession(t, newTestClient(t, srv.URL, "", &fakeKV{}))
	s.MaxAttempts = 1
	s.Delay = func(int) time.Duration { return time.Hour } // hold the warm-up open
	s.SetInputs(context.Background(), "iPhone 13", sampleRequest().Answers)

	waitFor(t, 2*time.Second, func() bool {
		snap := s.Snapshot()
		return snap.State == StateWarmingUp && snap.UpstreamLive != nil
	})

	if snap := s.Snapshot(); !*snap.UpstreamLive {
		t.Fatalf("a 200 health endpoint should report live, got %+v", snap)
	}
	if atomic.LoadInt32(&probes) == 0 {
		t.Fatalf("expected at least one health probe during warm-up")
	}

	// The liveness hint does not survive into a fresh evaluation.
	s.SetInputs(context.Background(), "iPhone 13 Pro", sampleRequest().Answers)
	if snap := s.Snapshot(); snap.UpstreamLive != nil && snap.State != StateWarmingUp {
		t.Fatalf("input change should clear the liveness hint, got %+v", snap)
	}
}

func TestSession_IdempotentForUnchangedKey(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{"final_price": 100.0})
	}))
	defer srv.Close()

	s := newTestSession(t, newTestClient(t, srv.URL, "", &fakeKV{}))
	ans := sampleRequest().Answers
	s.SetInputs(context.Background(), "iPhone 13", ans)
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateReady })

	// Same inputs and redundant evaluations must not touch the network.
	s.SetInputs(context.Background(), "iPhone 13", ans)
	s.Evaluate(context.Background())
	s.Evaluate(context.Background())
	time.Sleep(50 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 exchange, got %d", got)
	}
	if snap := s.Snapshot(); snap.Quote == nil || snap.Quote.FinalPrice != 100 {
		t.Fatalf("quote should survive a no-op input set: %+v", snap)
	}
}

func TestSession_InputChangeClearsQuoteAndDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			HasBox bool `json:"has_box"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.HasBox {
			// First request: stall until released, then answer slowly.
			<-release
			json.NewEncoder(w).Encode(map[string]any{"final_price": 111.0})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"final_price": 222.0})
	}))
	defer srv.Close()

	s := newTestSession(t, newTestClient(t, srv.URL, "", &fakeKV{}))

	ansA := sampleRequest().Answers
	ansA.HasBox = true
	s.SetInputs(context.Background(), "iPhone 13", ansA)
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateRequesting })

	// Change an answer while the first request is in flight.
	ansB := ansA
	ansB.HasBox = false
	s.SetInputs(context.Background(), "iPhone 13", ansB)

	// The displayed quote is cleared immediately, before any response lands.
	if snap := s.Snapshot(); snap.Quote != nil {
		t.Fatalf("quote must be cleared on input change, got %+v", snap.Quote)
	}

	waitFor(t, 2*time.Second, func() bool { return s.Snapshot().State == StateReady })
	close(release) // let the stale response land

	time.Sleep(100 * time.Millisecond)
	snap := s.Snapshot()
	if snap.Quote == nil || snap.Quote.FinalPrice != 222 {
		t.Fatalf("stale response must be discarded; want 222, got %+v", snap.Quote)
	}
}

func TestSession_Double404DisablesPricingDurably(t *testing.T) {
	var calls int32
	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})
	primary := httptest.NewServer(notFound)
	defer primary.Close()
	fallback := httptest.NewServer(notFound)
	defer fallback.Close()

	kv := &fakeKV{}
	c := newTestClient(t, primary.URL, fallback.URL, kv)
	s := newTestSession(t, c)

	s.SetInputs(context.Background(), "iPhone 13", sampleRequest().Answers)
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateUnsupported })

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected exactly 2 exchanges (primary + fallback), got %d", got)
	}
	if v, _ := kv.Get(context.Background(), supportKeyPrefix+primary.URL); v != "false" {
		t.Fatalf("unsupported flag should persist")
	}

	// Neither evaluation nor manual retry schedules anything further.
	s.Evaluate(context.Background())
	s.Retry(context.Background())
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("no further calls expected once unsupported, got %d", got)
	}

	// A fresh session against the same store skips the dead endpoint outright.
	s2 := newTestSession(t, newTestClient(t, primary.URL, fallback.URL, kv))
	s2.SetInputs(context.Background(), "iPhone 13", sampleRequest().Answers)
	waitFor(t, time.Second, func() bool { return s2.Snapshot().State == StateUnsupported })
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("persisted flag should prevent new exchanges, got %d", got)
	}
}

func TestSession_HardFailureAllowsManualRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"final_price": 500.0})
	}))
	defer srv.Close()

	s := newTestSession(t, newTestClient(t, srv.URL, "", &fakeKV{}))
	s.SetInputs(context.Background(), "iPhone 13", sampleRequest().Answers)
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateFailed })

	if snap := s.Snapshot(); snap.Error == "" {
		t.Fatalf("hard failure should surface an error message")
	}

	s.Retry(context.Background())
	waitFor(t, time.Second, func() bool { return s.Snapshot().State == StateReady })
	if snap := s.Snapshot(); snap.Quote.FinalPrice != 500 {
		t.Fatalf("retry should fetch a fresh quote, got %+v", snap.Quote)
	}
}

func TestSession_CloseInvalidatesInFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		json.NewEncoder(w).Encode(map[string]any{"final_price": 1.0})
	}))
	defer srv.Close()

	s := NewSession(newTestClient(t, srv.URL, "", &fakeKV{}), zerolog.Nop())
	s.SetInputs(context.Background(), "iPhone 13", sampleRequest().Answers)
	s.Close()
	close(release)

	time.Sleep(100 * time.Millisecond)
	if snap := s.Snapshot(); snap.Quote != nil {
		t.Fatalf("closed session must not commit responses: %+v", snap)
	}
}
