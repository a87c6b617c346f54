package phones

import "github.com/prometheus/client_golang/prometheus"

// searchLookups counts resolved queries by the layer that served them:
// memory, store, or network.
var searchLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "phone_search_lookups_total",
		Help: "Total phone search lookups by serving cache layer.",
	},
	[]string{"layer"},
)

func init() {
	prometheus.MustRegister(searchLookups)
}
