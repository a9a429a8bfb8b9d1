package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CacheHits counts cache hits per cache name.
	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_valuer_cache_hits_total",
		Help: "Number of cache hits, labelled by cache.",
	}, []string{"cache"})

	// CacheMisses counts cache misses per cache name.
	CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_valuer_cache_misses_total",
		Help: "Number of cache misses, labelled by cache.",
	}, []string{"cache"})

	// TickerFailures counts failed base currency price requests per source.
	TickerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_valuer_ticker_failures_total",
		Help: "Number of failed ticker API requests, labelled by source.",
	}, []string{"source"})

	// OracleFailures counts failed oracle queries per oracle.
	OracleFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_valuer_oracle_failures_total",
		Help: "Number of failed on-chain oracle queries, labelled by oracle.",
	}, []string{"oracle"})

	// OracleZeroDegradations counts tokens whose price degraded to zero after
	// every oracle failed.
	OracleZeroDegradations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "balance_valuer_oracle_zero_degradations_total",
		Help: "Number of token price lookups that degraded to zero.",
	})
)

// MustRegister registers all collectors with the default registry.
func MustRegister() {
	prometheus.MustRegister(
		CacheHits,
		CacheMisses,
		TickerFailures,
		OracleFailures,
		OracleZeroDegradations,
	)
}
