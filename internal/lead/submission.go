package lead

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/quote"
)

// State is the lifecycle of a Submission.
type State int

const (
	Idle State = iota
	Processing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Step is one side effect of the submission sequence.
type Step int

const (
	StepNone Step = iota
	StepConfirmation
	StepNotification
	StepCRM
)

var steps = []Step{StepConfirmation, StepNotification, StepCRM}

func (s Step) String() string {
	switch s {
	case StepConfirmation:
		return "confirmation_email"
	case StepNotification:
		return "marketing_notification"
	case StepCRM:
		return "crm"
	default:
		return "none"
	}
}

// MarshalText renders the step name.
func (s Step) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Latch values.
const (
	latchNotStarted int32 = iota
	latchInProgress
	latchDone
)

// Submission is the at-most-once state for one (contact, results) pairing.
// Inputs arrive independently; the sequence may start only once results,
// template and the contact's name and email are all present.
type Submission struct {
	id      string
	contact Contact

	latch atomic.Int32

	mu         sync.Mutex
	results    *content.Results
	template   *content.EmailTemplate
	estimate   *quote.Estimate
	completed  map[Step]bool
	state      State
	failedStep Step
	err        error
	accountID  string
}

// NewSubmission creates an idle submission for contact.
func NewSubmission(contact Contact) *Submission {
	return &Submission{
		id:        uuid.NewString(),
		contact:   contact,
		completed: make(map[Step]bool, len(steps)),
	}
}

// ID identifies the submission in logs and events.
func (s *Submission) ID() string { return s.id }

// Contact returns the submitted contact.
func (s *Submission) Contact() Contact { return s.contact }

// ProvideResults records the results copy.
func (s *Submission) ProvideResults(r *content.Results) {
	s.mu.Lock()
	s.results = r
	s.mu.Unlock()
}

// ProvideTemplate records the confirmation email template.
func (s *Submission) ProvideTemplate(t *content.EmailTemplate) {
	s.mu.Lock()
	s.template = t
	s.mu.Unlock()
}

// ProvideEstimate records the estimate included in the notification.
func (s *Submission) ProvideEstimate(e *quote.Estimate) {
	s.mu.Lock()
	s.estimate = e
	s.mu.Unlock()
}

// Ready reports whether every gate input is present.
func (s *Submission) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyLocked()
}

func (s *Submission) readyLocked() bool {
	return s.results != nil && s.template != nil &&
		s.contact.Name != "" && s.contact.Email != ""
}

// State returns the current lifecycle state.
func (s *Submission) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StepCompleted reports whether step has already succeeded.
func (s *Submission) StepCompleted(step Step) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed[step]
}

// Result returns the outcome so far.
func (s *Submission) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}

func (s *Submission) resultLocked() Result {
	return Result{
		SubmissionID: s.id,
		State:        s.state,
		FailedStep:   s.failedStep,
		AccountID:    s.accountID,
		Err:          s.err,
	}
}

// Results returns the results copy, if provided.
func (s *Submission) Results() *content.Results {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Template returns the email template, if provided.
func (s *Submission) Template() *content.EmailTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template
}

// Estimate returns the estimate, if provided.
func (s *Submission) Estimate() *quote.Estimate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimate
}

type inputs struct {
	template *content.EmailTemplate
	estimate *quote.Estimate
}

// acquire takes the latch if the gate is open. The compare-and-swap happens
// before any I/O so concurrent callers cannot both win.
func (s *Submission) acquire() (inputs, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.readyLocked() {
		return inputs{}, false
	}
	if !s.latch.CompareAndSwap(latchNotStarted, latchInProgress) {
		return inputs{}, false
	}
	s.state = Processing
	s.failedStep = StepNone
	s.err = nil
	return inputs{template: s.template, estimate: s.estimate}, true
}

func (s *Submission) markStep(step Step) {
	s.mu.Lock()
	s.completed[step] = true
	s.mu.Unlock()
}

func (s *Submission) complete(accountID string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountID = accountID
	s.state = Completed
	s.latch.Store(latchDone)
	return s.resultLocked()
}

// fail records the failure and releases the latch so a retry can resume.
func (s *Submission) fail(step Step, err error) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Failed
	s.failedStep = step
	s.err = err
	s.latch.Store(latchNotStarted)
	return s.resultLocked()
}
