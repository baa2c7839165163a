package lead

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts submission runs.
	// Labels: result (completed, failed)
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "estimator",
			Subsystem: "lead",
			Name:      "submissions_total",
			Help:      "Total number of lead submission runs",
		},
		[]string{"result"},
	)

	// StepFailuresTotal counts failed side-effect steps.
	// Labels: step (confirmation_email, marketing_notification, crm)
	StepFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "estimator",
			Subsystem: "lead",
			Name:      "step_failures_total",
			Help:      "Total number of failed lead submission steps",
		},
		[]string{"step"},
	)

	// SubmissionDuration tracks the duration of a submission run.
	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "estimator",
			Subsystem: "lead",
			Name:      "submission_duration_seconds",
			Help:      "Duration of lead submission runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
