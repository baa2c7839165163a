// Package lead validates contact details and runs the one-shot lead
// submission sequence: confirmation email, internal notification, CRM
// account and contact.
package lead

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/estimator/internal/logging"
	"github.com/fyrsmithlabs/estimator/internal/quote"
)

// ConfirmationSender emails the submitter their confirmation.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, toEmail, toName, htmlBody, subject string) error
}

// NotificationSender emails the internal lead notification.
type NotificationSender interface {
	SendNotification(ctx context.Context, contact Contact, breakdownHTML string) error
}

// CRM creates the account and contact for a lead and returns the account id.
type CRM interface {
	CreateAccountAndContact(ctx context.Context, contact Contact) (string, error)
}

// EventPublisher receives an event after every submission run.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Event types.
const (
	EventCompleted = "lead.completed"
	EventFailed    = "lead.failed"
)

// Event describes the outcome of a submission run.
type Event struct {
	Type         string    `json:"type"`
	SubmissionID string    `json:"submissionId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Zip          string    `json:"zip"`
	CategoryID   string    `json:"categoryId,omitempty"`
	MinTotal     int64     `json:"minTotal"`
	MaxTotal     int64     `json:"maxTotal"`
	AccountID    string    `json:"accountId,omitempty"`
	FailedStep   string    `json:"failedStep,omitempty"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Result is the outcome of Submit.
type Result struct {
	SubmissionID string
	State        State
	FailedStep   Step
	AccountID    string
	Err          error
	// Ran reports whether this call executed the sequence.
	Ran bool
}

// SubmissionStepError is a failed step of the sequence.
type SubmissionStepError struct {
	Step Step
	Err  error
}

func (e *SubmissionStepError) Error() string {
	return fmt.Sprintf("lead submission step %s failed: %v", e.Step, e.Err)
}

func (e *SubmissionStepError) Unwrap() error { return e.Err }

// Orchestrator runs the submission sequence. It never retries on its own.
type Orchestrator struct {
	confirm   ConfirmationSender
	notify    NotificationSender
	crm       CRM
	events    EventPublisher
	formatter *quote.Formatter
	subject   string
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithEvents publishes an event after every run.
func WithEvents(p EventPublisher) Option {
	return func(o *Orchestrator) { o.events = p }
}

// WithFormatter sets the currency formatter for the estimate breakdown.
func WithFormatter(f *quote.Formatter) Option {
	return func(o *Orchestrator) { o.formatter = f }
}

// WithConfirmationSubject sets the subject used when the template has none.
func WithConfirmationSubject(s string) Option {
	return func(o *Orchestrator) { o.subject = s }
}

// NewOrchestrator creates an orchestrator over its three collaborators.
func NewOrchestrator(confirm ConfirmationSender, notify NotificationSender, crm CRM, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		confirm:   confirm,
		notify:    notify,
		crm:       crm,
		formatter: quote.NewFormatter("en-US", "$"),
		logger:    zap.NewNop(),
		tracer:    otel.Tracer("estimator/lead"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit evaluates the gate and, when it is open and no run is in progress
// or done, runs the sequence. Steps completed by an earlier failed run are
// skipped. Calls that do not run the sequence return the current outcome.
func (o *Orchestrator) Submit(ctx context.Context, sub *Submission) Result {
	in, ok := sub.acquire()
	if !ok {
		return sub.Result()
	}

	start := o.now()
	ctx, span := o.tracer.Start(ctx, "lead.submit", trace.WithAttributes(
		attribute.String("lead.submission_id", sub.ID()),
	))
	defer span.End()

	log := o.logger.With(
		zap.String("submission_id", sub.ID()),
		logging.MaskedEmail("email", sub.Contact().Email),
	)
	log.Info("lead submission started")

	// Both emails carry the same breakdown, rendered once per run.
	breakdown, renderErr := o.breakdown(in.estimate)

	var accountID string
	for _, step := range steps {
		if sub.StepCompleted(step) {
			log.Debug("skipping completed step", zap.Stringer("step", step))
			continue
		}
		var (
			id  string
			err error
		)
		if renderErr != nil {
			err = renderErr
		} else {
			id, err = o.runStep(ctx, step, sub.Contact(), in, breakdown)
		}
		if err != nil {
			stepErr := &SubmissionStepError{Step: step, Err: err}
			span.RecordError(stepErr)
			span.SetStatus(codes.Error, stepErr.Error())
			StepFailuresTotal.WithLabelValues(step.String()).Inc()
			SubmissionsTotal.WithLabelValues("failed").Inc()
			SubmissionDuration.Observe(o.now().Sub(start).Seconds())
			log.Warn("lead submission failed", zap.Stringer("step", step), zap.Error(err))

			res := sub.fail(step, stepErr)
			res.Ran = true
			o.publish(ctx, sub, in, res)
			return res
		}
		if step == StepCRM {
			accountID = id
		}
		sub.markStep(step)
	}

	SubmissionsTotal.WithLabelValues("completed").Inc()
	SubmissionDuration.Observe(o.now().Sub(start).Seconds())
	span.SetAttributes(attribute.String("lead.account_id", accountID))
	log.Info("lead submission completed", zap.String("account_id", accountID))

	res := sub.complete(accountID)
	res.Ran = true
	o.publish(ctx, sub, in, res)
	return res
}

func (o *Orchestrator) breakdown(est *quote.Estimate) (string, error) {
	if est == nil {
		return "", nil
	}
	return quote.BreakdownHTML(est, o.formatter)
}

// confirmationBody appends the breakdown to the template body.
func confirmationBody(tmplBody, breakdown string) string {
	if strings.TrimSpace(tmplBody) == "" {
		tmplBody = defaultConfirmationBody
	}
	return tmplBody + breakdown
}

func (o *Orchestrator) runStep(ctx context.Context, step Step, c Contact, in inputs, breakdown string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "lead.step", trace.WithAttributes(
		attribute.String("lead.step", step.String()),
	))
	defer span.End()

	var (
		accountID string
		err       error
	)
	switch step {
	case StepConfirmation:
		subject := in.template.Subject
		if subject == "" {
			subject = o.subject
		}
		err = o.confirm.SendConfirmation(ctx, c.Email, c.Name, confirmationBody(in.template.HTMLBody, breakdown), subject)
	case StepNotification:
		err = o.notify.SendNotification(ctx, c, breakdown)
	case StepCRM:
		accountID, err = o.crm.CreateAccountAndContact(ctx, c)
	default:
		err = fmt.Errorf("unknown step %d", step)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return accountID, err
}

// publish is best effort: errors are logged and never change the result.
func (o *Orchestrator) publish(ctx context.Context, sub *Submission, in inputs, res Result) {
	if o.events == nil {
		return
	}
	c := sub.Contact()
	ev := Event{
		Type:         EventCompleted,
		SubmissionID: sub.ID(),
		Name:         c.Name,
		Email:        c.Email,
		Zip:          c.Zip,
		AccountID:    res.AccountID,
		OccurredAt:   o.now().UTC(),
	}
	if in.estimate != nil {
		ev.CategoryID = in.estimate.CategoryID
		ev.MinTotal = in.estimate.Min
		ev.MaxTotal = in.estimate.Max
	}
	if res.State == Failed {
		ev.Type = EventFailed
		ev.FailedStep = res.FailedStep.String()
		if res.Err != nil {
			ev.Error = res.Err.Error()
		}
	}
	if err := o.events.Publish(ctx, ev); err != nil {
		o.logger.Warn("failed to publish lead event",
			zap.String("submission_id", sub.ID()),
			zap.String("type", ev.Type),
			zap.Error(err),
		)
	}
}
