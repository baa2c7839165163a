package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/events"
	"github.com/fyrsmithlabs/estimator/internal/jobtread"
	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/quote"
	"github.com/fyrsmithlabs/estimator/internal/sendgrid"
	"github.com/fyrsmithlabs/estimator/internal/session"
	"github.com/fyrsmithlabs/estimator/internal/telemetry"
)

// CloseFunc releases what Build acquired.
type CloseFunc func(ctx context.Context) error

// Build wires every service from cfg.
//
// This function:
//  1. Starts tracing (a no-op provider when telemetry is disabled)
//  2. Creates the content client, cached when content.cache_ttl is set
//  3. Creates the SendGrid and JobTread clients
//  4. Connects to NATS when lead events are enabled
//  5. Creates the lead orchestrator and session manager
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, version string) (Registry, CloseFunc, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Observability, version), logger.Named("telemetry"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	client, err := content.NewClient(cfg.Content,
		content.WithLogger(logger.Named("content")),
		content.WithTracer(tel.Tracer("estimator/content")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create content client: %w", err)
	}
	var src content.Source = client
	if ttl := cfg.Content.CacheTTL.Duration(); ttl > 0 {
		src = content.NewCache(client, ttl)
	}

	mail, err := sendgrid.NewClient(cfg.SendGrid, sendgrid.WithLogger(logger.Named("sendgrid")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sendgrid client: %w", err)
	}
	crm, err := jobtread.NewClient(cfg.JobTread, jobtread.WithLogger(logger.Named("jobtread")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create jobtread client: %w", err)
	}

	formatter := quote.FormatterFromConfig(cfg.Format)
	gateway := lead.NewEmailGateway(mail, cfg.SendGrid, cfg.Lead)
	orchOpts := []lead.Option{
		lead.WithLogger(logger.Named("lead")),
		lead.WithTracer(tel.Tracer("estimator/lead")),
		lead.WithFormatter(formatter),
		lead.WithConfirmationSubject(cfg.Lead.ConfirmationSubject),
	}

	var nc *nats.Conn
	if cfg.Events.Enabled {
		nc, err = events.Connect(cfg.Events, logger.Named("events"))
		if err != nil {
			_ = tel.Shutdown(ctx)
			return nil, nil, err
		}
		orchOpts = append(orchOpts, lead.WithEvents(events.NewPublisher(nc, cfg.Events.SubjectPrefix)))
	}

	orch := lead.NewOrchestrator(gateway, gateway, crm, orchOpts...)
	sessions := session.NewManager(src, orch, cfg.Session, session.WithLogger(logger.Named("session")))

	reg := NewRegistry(Options{
		Content:      src,
		Sessions:     sessions,
		Orchestrator: orch,
		Formatter:    formatter,
		Telemetry:    tel,
		Events:       nc,
	})

	closeFn := func(ctx context.Context) error {
		var errs []error
		if nc != nil {
			if err := nc.Drain(); err != nil {
				errs = append(errs, fmt.Errorf("drain nats: %w", err))
			}
		}
		if err := tel.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}
	return reg, closeFn, nil
}
