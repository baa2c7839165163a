package content

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal counts content fetches.
	// Labels: slug, result (ok, not_found, network)
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "estimator",
			Subsystem: "content",
			Name:      "fetches_total",
			Help:      "Total number of WordPress content fetches",
		},
		[]string{"slug", "result"},
	)

	// FetchDuration tracks fetch latency including retries.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "estimator",
			Subsystem: "content",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of WordPress content fetches in seconds, retries included",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"slug"},
	)

	// FallbacksTotal counts generic copy served in place of fetched content.
	// Labels: kind (results, email)
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "estimator",
			Subsystem: "content",
			Name:      "fallbacks_total",
			Help:      "Total number of times fallback copy replaced unavailable content",
		},
		[]string{"kind"},
	)

	// CacheLookups counts cache lookups.
	// Labels: result (hit, miss)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "estimator",
			Subsystem: "content",
			Name:      "cache_lookups_total",
			Help:      "Total number of content cache lookups",
		},
		[]string{"result"},
	)
)
