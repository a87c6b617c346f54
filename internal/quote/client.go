// Package quote acquires condition-adjusted price quotes from the external
// AI pricing service. The service runs on serverless infrastructure that cold
// starts, so a single logical quote may take several attempts: the Client
// performs one classified HTTP exchange, and the Session (session.go) drives
// the retry state machine on top of it.
//
// Response classification:
//   - 2xx with a finite numeric final_price  -> ready
//   - 503                                    -> warming up (cold start, retry)
//   - 404 on primary, then 404 on fallback   -> unsupported (durable flag)
//   - anything else                          -> failed (manual retry)
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/reprice/go-reprice-backend/internal/quote")

// Durable flag keys. The base URL survives restarts so a successful fallback
// promotion is remembered; the support flag is scoped per base URL so a
// redeployment under a new URL gets a fresh chance.
const (
	baseURLKey       = "reprice.aiBaseUrl.v1"
	supportKeyPrefix = "reprice.aiPricingSupported.v1."
)

// ScreenCondition is the closed set of accepted screen states.
type ScreenCondition string

const (
	ScreenGood           ScreenCondition = "good"
	ScreenMinorScratches ScreenCondition = "minor-scratches"
	ScreenMajorScratches ScreenCondition = "major-scratches"
	ScreenCracked        ScreenCondition = "cracked"
	ScreenShattered      ScreenCondition = "shattered"
)

// Valid reports whether s is one of the accepted screen states.
func (s ScreenCondition) Valid() bool {
	switch s {
	case ScreenGood, ScreenMinorScratches, ScreenMajorScratches, ScreenCracked, ScreenShattered:
		return true
	}
	return false
}

// ConditionAnswers is the fixed set of condition facts behind a quote.
// All five answers must be supplied before a quote is requested; the HTTP
// layer enforces presence, this type only carries the values.
type ConditionAnswers struct {
	TurnsOn         bool            `json:"turns_on"`
	ScreenCondition ScreenCondition `json:"screen_condition"`
	HasBox          bool            `json:"has_box"`
	HasBill         bool            `json:"has_bill"`
	UnderWarranty   bool            `json:"is_under_warranty"`
}

// Request identifies one priceable configuration.
type Request struct {
	ModelName string
	Answers   ConditionAnswers
}

// payload is the wire shape of the pricing call. Field order is fixed, which
// also makes Key deterministic.
type payload struct {
	ModelName       string          `json:"model_name"`
	TurnsOn         bool            `json:"turns_on"`
	ScreenCondition ScreenCondition `json:"screen_condition"`
	HasBox          bool            `json:"has_box"`
	HasBill         bool            `json:"has_bill"`
	UnderWarranty   bool            `json:"is_under_warranty"`
}

// Key returns the deterministic fingerprint of req. Identical keys mean an
// identical request payload, so a cached quote for the key can short-circuit
// the network call. Differing in any field yields a different key.
func Key(req Request) string {
	b, _ := json.Marshal(payload{
		ModelName:       req.ModelName,
		TurnsOn:         req.Answers.TurnsOn,
		ScreenCondition: req.Answers.ScreenCondition,
		HasBox:          req.Answers.HasBox,
		HasBill:         req.Answers.HasBill,
		UnderWarranty:   req.Answers.UnderWarranty,
	})
	return string(b)
}

// Quote is a successful pricing response.
type Quote struct {
	FinalPrice float64  `json:"final_price"`
	BasePrice  *float64 `json:"base_price,omitempty"`
	Logs       []string `json:"logs,omitempty"`
}

// Outcome classifies one pricing exchange.
type Outcome int

const (
	OutcomeReady Outcome = iota
	OutcomeWarmingUp
	OutcomeUnsupported
	OutcomeFailed
)

// String returns the lowercase label for o.
func (o Outcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomeWarmingUp:
		return "warming_up"
	case OutcomeUnsupported:
		return "unsupported"
	default:
		return "failed"
	}
}

// KV is the durable store for the resolved base URL and support flags.
type KV interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Client issues pricing requests. Construct once per process; BaseURL may be
// promoted to FallbackURL after a successful fallback, everything else is
// read-only after construction.
type Client struct {
	// FallbackURL is tried once when the primary base 404s. Empty disables
	// the fallback hop.
	FallbackURL string

	// HealthTimeout bounds the liveness probe; PriceTimeout bounds the
	// pricing call, sized for a cold upstream.
	HealthTimeout time.Duration
	PriceTimeout  time.Duration

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	KV     KV
	Logger zerolog.Logger

	mu   sync.Mutex
	base string
}

// NewClient returns a Client rooted at baseURL, preferring a previously
// persisted base URL when one exists in kv.
func NewClient(ctx context.Context, baseURL, fallbackURL string, kv KV, logger zerolog.Logger) *Client {
	c := &Client{
		FallbackURL:   strings.TrimRight(fallbackURL, "/"),
		HealthTimeout: 4 * time.Second,
		PriceTimeout:  25 * time.Second,
		KV:            kv,
		Logger:        logger,
		base:          strings.TrimRight(baseURL, "/"),
	}
	if kv != nil {
		if cached, ok := kv.Get(ctx, baseURLKey); ok && cached != "" {
			c.base = strings.TrimRight(cached, "/")
		}
	}
	return c
}

// BaseURL returns the currently resolved pricing base URL.
func (c *Client) BaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base
}

// Supported reports whether pricing is known-dead for the current base URL.
// Absence of the flag means supported.
func (c *Client) Supported(ctx context.Context) bool {
	if c.KV == nil {
		return true
	}
	v, ok := c.KV.Get(ctx, supportKeyPrefix+c.BaseURL())
	return !ok || v != "false"
}

// Healthy probes GET /health with the health timeout. A missing /health
// endpoint is common upstream, so only a timely 2xx counts as healthy; the
// caller should not treat false as proof of an outage.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// Fetch performs one classified pricing exchange for req. A 404 on the
// primary base triggers a single hop to the fallback; a 2xx there promotes
// the fallback to the resolved base and persists it. Only a 404 on both
// bases marks pricing unsupported durably; a transport error or server error
// on the fallback is an ordinary failure. The error return is non-nil only
// for OutcomeFailed.
func (c *Client) Fetch(ctx context.Context, req Request) (Outcome, *Quote, error) {
	ctx, span := tracer.Start(ctx, "quote.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("quote.model", req.ModelName)))
	outcome, q, err := c.fetch(ctx, req)
	span.SetAttributes(attribute.String("quote.outcome", outcome.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return outcome, q, err
}

func (c *Client) fetch(ctx context.Context, req Request) (Outcome, *Quote, error) {
	base := c.BaseURL()
	resp, err := c.callCalculatePrice(ctx, base, req)
	if err != nil {
		return OutcomeFailed, nil, err
	}

	if resp.status == http.StatusNotFound {
		if c.FallbackURL == "" || base == c.FallbackURL {
			return c.markUnsupported(ctx, base)
		}
		fb, err := c.callCalculatePrice(ctx, c.FallbackURL, req)
		if err != nil {
			// A transport error says nothing about endpoint support.
			return OutcomeFailed, nil, err
		}
		if fb.status == http.StatusNotFound {
			return c.markUnsupported(ctx, base)
		}
		if fb.status >= 200 && fb.status <= 299 {
			c.promote(ctx, c.FallbackURL)
		}
		resp = fb
	}

	switch {
	case resp.status == http.StatusServiceUnavailable:
		return OutcomeWarmingUp, nil, nil
	case resp.status < 200 || resp.status > 299:
		return OutcomeFailed, nil, fmt.Errorf("pricing service status %d: %s", resp.status, resp.detail())
	}

	q, err := parseQuote(resp.body)
	if err != nil {
		return OutcomeFailed, nil, err
	}
	return OutcomeReady, q, nil
}

func (c *Client) promote(ctx context.Context, base string) {
	c.mu.Lock()
	c.base = base
	c.mu.Unlock()
	c.Logger.Info().Str("base_url", base).Msg("pricing fallback promoted to primary")
	if c.KV != nil {
		if err := c.KV.Set(ctx, baseURLKey, base, 0); err != nil {
			c.Logger.Warn().Err(err).Msg("persist base url failed")
		}
	}
}

func (c *Client) markUnsupported(ctx context.Context, base string) (Outcome, *Quote, error) {
	c.Logger.Warn().Str("base_url", base).Msg("pricing endpoint missing on all known bases")
	if c.KV != nil {
		if err := c.KV.Set(ctx, supportKeyPrefix+base, "false", 0); err != nil {
			c.Logger.Warn().Err(err).Msg("persist unsupported flag failed")
		}
	}
	return OutcomeUnsupported, nil, nil
}

type priceResp struct {
	status int
	body   []byte
}

func (r priceResp) detail() string {
	var e struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(r.body, &e) == nil && e.Detail != "" {
		return e.Detail
	}
	return "server error"
}

func (c *Client) callCalculatePrice(ctx context.Context, base string, req Request) (priceResp, error) {
	ctx, cancel := context.WithTimeout(ctx, c.PriceTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+"/calculate-price", strings.NewReader(Key(req)))
	if err != nil {
		return priceResp{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return priceResp{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return priceResp{}, err
	}
	return priceResp{status: resp.StatusCode, body: body}, nil
}

func parseQuote(body []byte) (*Quote, error) {
	var raw struct {
		FinalPrice *float64 `json:"final_price"`
		BasePrice  *float64 `json:"base_price"`
		Logs       []string `json:"logs"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid pricing response: %w", err)
	}
	// A missing or non-finite price is a hard failure, not a zero quote.
	if raw.FinalPrice == nil || math.IsNaN(*raw.FinalPrice) || math.IsInf(*raw.FinalPrice, 0) {
		return nil, fmt.Errorf("invalid pricing response: missing numeric final_price")
	}
	q := &Quote{FinalPrice: *raw.FinalPrice, Logs: raw.Logs}
	if raw.BasePrice != nil && !math.IsNaN(*raw.BasePrice) && !math.IsInf(*raw.BasePrice, 0) {
		q.BasePrice = raw.BasePrice
	}
	return q, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
