// Estimatord serves the estimate wizard over HTTP.
//
// This binary loads configuration, wires the content source, SendGrid and
// JobTread clients and the lead orchestrator, then serves the JSON API with
// Prometheus metrics until interrupted.
//
// Configuration is read from ~/.config/estimator/config.yaml (or -config) and
// ESTIMATOR_* environment variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	estimatord
//
//	# Configure via environment
//	ESTIMATOR_SERVER_HTTP_PORT=9090 ESTIMATOR_SENDGRID_API_KEY=... estimatord
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/estimator/internal/config"
	httpserver "github.com/fyrsmithlabs/estimator/internal/http"
	"github.com/fyrsmithlabs/estimator/internal/logging"
	"github.com/fyrsmithlabs/estimator/internal/services"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath = flag.String("config", "", "path to config file")

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  estimatord           Start the estimate server\n")
			fmt.Fprintf(os.Stderr, "  estimatord version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("estimatord by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the server and blocks until ctx is cancelled.
//
// This function:
//  1. Loads and validates configuration
//  2. Initializes the logger
//  3. Builds the service registry (telemetry, clients, orchestrator, sessions)
//  4. Starts the session sweeper and the HTTP server
//  5. Performs graceful shutdown on context cancellation
func run(ctx context.Context) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg, err := logging.FromAppConfig(cfg.Logging)
	if err != nil {
		return fmt.Errorf("invalid logging configuration: %w", err)
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()
	zl := logger.Underlying()

	logger.Info(ctx, "Starting estimatord",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("events", cfg.Events.Enabled),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	reg, closeServices, err := services.Build(ctx, cfg, zl, version)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := closeServices(closeCtx); err != nil {
			logger.Warn(closeCtx, "service shutdown incomplete", zap.Error(err))
		}
	}()

	srv, err := httpserver.NewServer(reg.Sessions(), zl.Named("http"),
		&httpserver.Config{Host: cfg.Server.Host, Port: cfg.Server.Port, Version: version},
		serverOptions(reg)...)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info(ctx, "Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("api_prefix", "/api/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return reg.Sessions().Run(gctx)
	})
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// serverOptions wires tracing, formatting and dependency health checks.
func serverOptions(reg services.Registry) []httpserver.Option {
	opts := []httpserver.Option{
		httpserver.WithTracer(reg.Telemetry().Tracer("estimator/http")),
		httpserver.WithFormatter(reg.Formatter()),
		httpserver.WithHealthCheck("telemetry", func(context.Context) error {
			if h := reg.Telemetry().Health(); h.Degraded {
				return errors.New("degraded")
			}
			return nil
		}),
	}
	if nc := reg.Events(); nc != nil {
		opts = append(opts, httpserver.WithHealthCheck("nats", func(context.Context) error {
			if !nc.IsConnected() {
				return fmt.Errorf("not connected (%s)", nc.Status())
			}
			return nil
		}))
	}
	return opts
}
