package quote

import "github.com/prometheus/client_golang/prometheus"

var (
	// pricingExchanges counts classified pricing calls by outcome.
	pricingExchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_exchanges_total",
			Help: "Total pricing service exchanges by classified outcome.",
		},
		[]string{"outcome"},
	)

	// pricingRetries counts scheduled warm-up retries.
	pricingRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_retries_total",
			Help: "Total warm-up retries scheduled against the pricing service.",
		},
	)

	// pricingStale counts responses discarded because the quote inputs
	// changed while the request was in flight.
	pricingStale = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_stale_responses_total",
			Help: "Total pricing responses discarded as stale.",
		},
	)
)

func init() {
	prometheus.MustRegister(pricingExchanges, pricingRetries, pricingStale)
}
