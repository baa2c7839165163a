package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions is the number of live wizard sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "estimator",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of live wizard sessions",
		},
	)

	// EvictedTotal counts sessions removed for inactivity.
	EvictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "estimator",
			Subsystem: "session",
			Name:      "evicted_total",
			Help:      "Total number of sessions evicted after the idle timeout",
		},
	)
)
