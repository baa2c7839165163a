// Package events publishes lead submission outcomes to NATS.
//
// Subjects are {prefix}.completed and {prefix}.failed with a JSON lead.Event
// payload. The W3C trace context of the submission is carried in message
// headers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/fyrsmithlabs/estimator/internal/lead"
)

// Publisher implements lead.EventPublisher over a NATS connection.
type Publisher struct {
	nc         *nats.Conn
	prefix     string
	propagator propagation.TextMapPropagator
}

var _ lead.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher on an existing connection.
func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	return &Publisher{nc: nc, prefix: prefix, propagator: propagation.TraceContext{}}
}

// Connect dials NATS with the reconnect policy used by the daemon.
func Connect(cfg config.EventsConfig, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("estimator"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	return nc, nil
}

// Subject returns the subject an event type is published on.
func Subject(prefix, eventType string) string {
	return prefix + "." + strings.TrimPrefix(eventType, "lead.")
}

// Publish sends ev.
func (p *Publisher) Publish(ctx context.Context, ev lead.Event) error {
	if p.nc == nil {
		return errors.New("nats connection is nil")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := nats.NewMsg(Subject(p.prefix, ev.Type))
	msg.Data = data
	p.propagator.Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	return nil
}

// Extract returns ctx carrying the trace context found in msg headers.
func Extract(ctx context.Context, msg *nats.Msg) context.Context {
	if msg.Header == nil {
		return ctx
	}
	return propagation.TraceContext{}.Extract(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))
}
