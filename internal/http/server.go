// Package http exposes the estimate wizard as a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/estimator/internal/quote"
	"github.com/fyrsmithlabs/estimator/internal/session"
)

// Server provides HTTP endpoints for the estimate wizard.
type Server struct {
	echo      *echo.Echo
	sessions  *session.Manager
	formatter *quote.Formatter
	logger    *zap.Logger
	config    *Config
	checks    map[string]HealthCheck
}

// Config holds HTTP server configuration.
type Config struct {
	Host    string
	Port    int
	Version string
}

// HealthCheck reports the health of a dependency; nil means healthy.
type HealthCheck func(ctx context.Context) error

type options struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	tracer     trace.Tracer
	formatter  *quote.Formatter
	checks     map[string]HealthCheck
}

// Option configures a Server.
type Option func(*options)

// WithRegistry registers request metrics on reg and serves it at /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registerer = reg
		o.gatherer = reg
	}
}

// WithTracer sets the tracer for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithFormatter sets the currency formatter for estimate responses.
func WithFormatter(f *quote.Formatter) Option {
	return func(o *options) { o.formatter = f }
}

// WithHealthCheck adds a named check to GET /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(o *options) { o.checks[name] = check }
}

// NewServer creates a new HTTP server.
func NewServer(sessions *session.Manager, logger *zap.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}

	o := &options{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
		tracer:     otel.Tracer("estimator/http"),
		formatter:  quote.NewFormatter("en-US", "$"),
		checks:     map[string]HealthCheck{},
	}
	for _, opt := range opts {
		opt(o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	metrics := NewHTTPMetrics(o.registerer)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(tracingMiddleware(o.tracer))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(metrics.MetricsMiddleware())

	s := &Server{
		echo:      e,
		sessions:  sessions,
		formatter: o.formatter,
		logger:    logger,
		config:    cfg,
		checks:    o.checks,
	}

	s.registerRoutes(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes(metricsHandler http.Handler) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/home", s.handleHome)
	v1.POST("/sessions", s.handleCreateSession)

	sess := v1.Group("/sessions/:id")
	sess.GET("", s.handleGetSession)
	sess.DELETE("", s.handleDeleteSession)
	sess.POST("/category", s.handleOpenCategory)
	sess.POST("/select", s.handleSelect)
	sess.POST("/next", s.handleNext)
	sess.POST("/previous", s.handlePrevious)
	sess.POST("/back", s.handleBack)
	sess.POST("/restart", s.handleRestart)
	sess.GET("/estimate", s.handleEstimate)
	sess.POST("/contact", s.handleContact)
	sess.POST("/submission/retry", s.handleRetry)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
