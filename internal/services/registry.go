package services

import (
	"github.com/nats-io/nats.go"

	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/quote"
	"github.com/fyrsmithlabs/estimator/internal/session"
	"github.com/fyrsmithlabs/estimator/internal/telemetry"
)

// Registry provides access to all estimator services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Content() content.Source
	Sessions() *session.Manager
	Orchestrator() *lead.Orchestrator
	Formatter() *quote.Formatter
	Telemetry() *telemetry.Telemetry
	Events() *nats.Conn
}

// Options configures the registry with service instances.
type Options struct {
	Content      content.Source
	Sessions     *session.Manager
	Orchestrator *lead.Orchestrator
	Formatter    *quote.Formatter
	Telemetry    *telemetry.Telemetry
	Events       *nats.Conn
}

// registry is the concrete implementation of Registry.
type registry struct {
	content      content.Source
	sessions     *session.Manager
	orchestrator *lead.Orchestrator
	formatter    *quote.Formatter
	telemetry    *telemetry.Telemetry
	events       *nats.Conn
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		content:      opts.Content,
		sessions:     opts.Sessions,
		orchestrator: opts.Orchestrator,
		formatter:    opts.Formatter,
		telemetry:    opts.Telemetry,
		events:       opts.Events,
	}
}

func (r *registry) Content() content.Source          { return r.content }
func (r *registry) Sessions() *session.Manager       { return r.sessions }
func (r *registry) Orchestrator() *lead.Orchestrator { return r.orchestrator }
func (r *registry) Formatter() *quote.Formatter      { return r.formatter }
func (r *registry) Telemetry() *telemetry.Telemetry  { return r.telemetry }
func (r *registry) Events() *nats.Conn               { return r.events }
