package http

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics holds all HTTP-related metrics.
type HTTPMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestDur     *prometheus.HistogramVec
	responseSize   *prometheus.HistogramVec
	activeRequests prometheus.Gauge
}

// NewHTTPMetrics registers HTTP metrics on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	f := promauto.With(reg)
	labels := []string{"method", "endpoint", "status"}
	return &HTTPMetrics{
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "estimator",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests labeled by method, endpoint and status code",
		}, labels),
		requestDur: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "estimator",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, labels),
		responseSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "estimator",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response body size in bytes",
			Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		}, labels),
		activeRequests: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "estimator",
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Number of currently active HTTP requests",
		}),
	}
}

// MetricsMiddleware returns an Echo middleware that records HTTP metrics.
func (m *HTTPMetrics) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.activeRequests.Inc()
			defer m.activeRequests.Dec()

			err := next(c)
			if err != nil {
				// Let echo write the error so the recorded status is final.
				c.Error(err)
			}

			// The route template, not the raw path, keeps session ids out of labels.
			lv := []string{c.Request().Method, normalizePath(c.Path()), strconv.Itoa(c.Response().Status)}
			m.requestsTotal.WithLabelValues(lv...).Inc()
			m.requestDur.WithLabelValues(lv...).Observe(time.Since(start).Seconds())
			m.responseSize.WithLabelValues(lv...).Observe(float64(c.Response().Size))
			return nil
		}
	}
}

func normalizePath(path string) string {
	if path == "" {
		return "unmatched"
	}
	return path
}
