package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts cache-aside reads by domain and outcome (hit|miss|corrupt|error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsefeed_cache_lookups_total",
			Help: "Total number of cache-aside lookups",
		},
		[]string{"domain", "outcome"},
	)

	// CacheInvalidations counts pattern-based evictions by domain.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsefeed_cache_invalidations_total",
			Help: "Total number of pattern invalidations",
		},
		[]string{"domain"},
	)

	// AdmissionDecisions counts admission-control outcomes (allow|rate_limited|forbidden|fail_open).
	AdmissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsefeed_admission_decisions_total",
			Help: "Total number of admission control decisions",
		},
		[]string{"class", "result"},
	)

	// CooldownRejections counts writes rejected by a cooldown window (posting|profile).
	CooldownRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulsefeed_cooldown_rejections_total",
			Help: "Total number of cooldown rejections",
		},
		[]string{"kind"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulsefeed_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
