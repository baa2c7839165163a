// Package session keeps in-memory wizard sessions and drives them through
// the screens home, category, form and results.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/logging"
	"github.com/fyrsmithlabs/estimator/internal/quote"
	"github.com/fyrsmithlabs/estimator/internal/wizard"
)

var (
	// ErrNotFound is returned for an unknown or evicted session id.
	ErrNotFound = errors.New("session not found")
	// ErrWrongScreen is returned when an operation does not apply to the current screen.
	ErrWrongScreen = errors.New("operation not available on this screen")
	// ErrNoSubmission is returned by RetrySubmission before any contact was submitted.
	ErrNoSubmission = errors.New("no submission to retry")
)

const (
	msgCategoryMissing = "Category %q does not exist. Please check the URL and try again."
	msgCategoryFailed  = "Unable to load the requested category. Please try again later."
	msgResultsFailed   = "We're experiencing technical difficulties loading your estimate results. Please try restarting the estimate."
)

// Submitter runs the lead submission sequence.
type Submitter interface {
	Submit(ctx context.Context, sub *lead.Submission) lead.Result
}

// Manager owns all sessions.
type Manager struct {
	src       content.Source
	submitter Submitter
	idle      time.Duration
	sweep     time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a manager over a content source and a submitter.
func NewManager(src content.Source, submitter Submitter, cfg config.SessionConfig, opts ...Option) *Manager {
	m := &Manager{
		src:       src,
		submitter: submitter,
		idle:      cfg.IdleTimeout.Duration(),
		sweep:     cfg.SweepInterval.Duration(),
		logger:    zap.NewNop(),
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run evicts idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep removes sessions idle for longer than the idle timeout and returns
// how many were removed.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		ActiveSessions.Sub(float64(n))
		EvictedTotal.Add(float64(n))
		m.logger.Debug("evicted idle sessions", zap.Int("count", n))
	}
	return n
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Create starts a session on the home screen.
func (m *Manager) Create() View {
	s := newSession(uuid.NewString(), m.now())
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	ActiveSessions.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Get returns a session's view.
func (m *Manager) Get(id string) (View, error) {
	return m.View(id)
}

// Delete ends a session. Unknown ids are ignored.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		ActiveSessions.Dec()
	}
	m.mu.Unlock()
}

// acquire returns the session locked. Callers must unlock s.mu.
func (m *Manager) acquire(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.Lock()
	s.touch(m.now())
	return s, nil
}

// View returns a render-ready snapshot of a session.
func (m *Manager) View(id string) (View, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()
	return s.view(), nil
}

// Home returns the home screen content.
func (m *Manager) Home(ctx context.Context) (*content.HomeData, error) {
	return m.src.FetchHome(ctx)
}

// OpenCategory fetches a category and starts its wizard at the first
// question. Earlier answers for the category stay selected, but any earlier
// submission is dropped so the next contact form starts a new lead. A failed
// fetch moves the session to the error screen.
func (m *Manager) OpenCategory(ctx context.Context, id, categoryID string) (View, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()
	if err := m.openLocked(ctx, s, categoryID); err != nil {
		return s.view(), err
	}
	return s.view(), nil
}

// ResolveCategory opens the category matching ref, a category id or a title
// written with dashes for spaces, as given in a calculator-category link.
func (m *Manager) ResolveCategory(ctx context.Context, id, ref string) (View, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()

	home, err := m.src.FetchHome(ctx)
	if err != nil {
		m.failLocked(s, msgCategoryFailed, err)
		return s.view(), err
	}
	cat, ok := matchCategory(home, ref)
	if !ok {
		err := &content.FetchError{Kind: content.KindNotFound, Slug: ref, Err: fmt.Errorf("no category matches %q", ref)}
		m.failLocked(s, fmt.Sprintf(msgCategoryMissing, ref), err)
		return s.view(), err
	}
	if err := m.openLocked(ctx, s, cat.ID); err != nil {
		return s.view(), err
	}
	return s.view(), nil
}

func matchCategory(home *content.HomeData, ref string) (content.Category, bool) {
	want := strings.ToLower(strings.TrimSpace(ref))
	for _, c := range home.Categories {
		if c.ID == ref || strings.Join(strings.Fields(strings.ToLower(c.Title)), "-") == want {
			return c, true
		}
	}
	return content.Category{}, false
}

func (m *Manager) openLocked(ctx context.Context, s *Session, categoryID string) error {
	s.dropSubmission()
	data, err := m.src.FetchCategory(ctx, categoryID)
	if err != nil {
		msg := msgCategoryFailed
		if errors.Is(err, content.ErrNotFound) {
			msg = fmt.Sprintf(msgCategoryMissing, categoryID)
		}
		m.failLocked(s, msg, err)
		return err
	}
	nav, err := wizard.New(categoryID, data, s.store)
	if err != nil {
		m.failLocked(s, msgCategoryFailed, err)
		return err
	}
	s.nav = nav
	s.screen = ScreenCategory
	s.errMsg = ""
	return nil
}

func (m *Manager) failLocked(s *Session, msg string, err error) {
	s.screen = ScreenError
	s.errMsg = msg
	m.logger.Warn("session moved to error screen", zap.String("session_id", s.id), zap.Error(err))
}

// Select toggles an option on the current question.
func (m *Manager) Select(id string, optionIndex int) (View, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()
	if s.screen != ScreenCategory {
		return s.view(), ErrWrongScreen
	}
	if _, err := s.nav.Select(optionIndex); err != nil {
		return s.view(), err
	}
	return s.view(), nil
}

// Next advances the wizard. Confirming the last question with every question
// answered moves to the contact form. A rejected move is not an error; the
// view reports CanAdvance.
func (m *Manager) Next(id string) (View, wizard.Transition, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, wizard.Rejected, err
	}
	defer s.mu.Unlock()
	if s.screen != ScreenCategory {
		return s.view(), wizard.Rejected, ErrWrongScreen
	}
	tr, _ := s.nav.Next()
	if tr == wizard.ReadyForForm {
		s.screen = ScreenForm
	}
	return s.view(), tr, nil
}

// Previous moves back one question.
func (m *Manager) Previous(id string) (View, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()
	if s.screen != ScreenCategory {
		return s.view(), ErrWrongScreen
	}
	s.nav.Previous()
	return s.view(), nil
}

// Back leaves the current screen: from the form to the category's last
// question, from a category to the category list (discarding its answers),
// and from the error screen to the category list.
func (m *Manager) Back(id string) (View, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()
	switch s.screen {
	case ScreenForm:
		s.screen = ScreenCategory
	case ScreenCategory:
		s.nav.Abandon()
		s.nav = nil
		s.dropSubmission()
		s.screen = ScreenHome
	case ScreenError:
		s.nav = nil
		s.dropSubmission()
		s.errMsg = ""
		s.screen = ScreenHome
	default:
		return s.view(), ErrWrongScreen
	}
	return s.view(), nil
}

// Estimate computes the estimate for the open category from the current
// selections.
func (m *Manager) Estimate(id string) (*quote.Estimate, error) {
	s, err := m.acquire(id)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	if s.nav == nil {
		return nil, ErrWrongScreen
	}
	return quote.Compute(s.nav.CategoryID(), s.nav.Data(), s.store.Category(s.nav.CategoryID()))
}

// SubmitContact validates the contact form and, when it passes, moves to the
// results screen and fetches results copy, email template and category data
// concurrently. Each arrival is handed to the submission and the gate is
// evaluated, so the side effects run once, when the last input lands.
// Validation failures make no network calls.
func (m *Manager) SubmitContact(ctx context.Context, id string, c lead.Contact) (View, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()
	if s.screen != ScreenForm {
		return s.view(), ErrWrongScreen
	}

	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return s.view(), err
	}

	est, err := quote.Compute(s.nav.CategoryID(), s.nav.Data(), s.store.Category(s.nav.CategoryID()))
	if err != nil {
		m.failLocked(s, msgResultsFailed, err)
		return s.view(), err
	}

	s.dropSubmission()
	s.submission = lead.NewSubmission(c)
	s.contact = &c
	s.estimate = est
	s.submission.ProvideEstimate(est)
	s.screen = ScreenResults

	m.logger.Info("contact submitted",
		zap.String("session_id", s.id),
		zap.String("submission_id", s.submission.ID()),
		logging.MaskedEmail("email", c.Email),
	)

	if err := m.fanInLocked(ctx, s); err != nil {
		return s.view(), err
	}
	return s.view(), nil
}

// RetrySubmission fetches any input still missing and reruns the submission
// from the step that failed.
func (m *Manager) RetrySubmission(ctx context.Context, id string) (View, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()
	if s.submission == nil {
		return s.view(), ErrNoSubmission
	}
	if s.nav == nil {
		return s.view(), ErrWrongScreen
	}
	if s.screen == ScreenError {
		s.screen = ScreenResults
		s.errMsg = ""
	}
	if err := m.fanInLocked(ctx, s); err != nil {
		return s.view(), err
	}
	return s.view(), nil
}

func (m *Manager) fanInLocked(ctx context.Context, s *Session) error {
	sub := s.submission
	// Side effects must not be cut short by the caller going away.
	submitCtx := context.WithoutCancel(ctx)
	categoryID := s.nav.CategoryID()
	selections := s.store.Category(categoryID)

	var (
		g         errgroup.Group
		refreshed *quote.Estimate
		submitMu  sync.Mutex
		ran       bool
	)
	// A run that fails releases the latch; later arrivals in the same fan-in
	// must not start it again. Only RetrySubmission does that.
	submit := func() {
		submitMu.Lock()
		defer submitMu.Unlock()
		if !ran {
			ran = m.submitter.Submit(submitCtx, sub).Ran
		}
	}
	if sub.Results() == nil {
		g.Go(func() error {
			r, err := m.src.FetchResults(ctx)
			if err != nil {
				return fmt.Errorf("fetch results: %w", err)
			}
			sub.ProvideResults(r)
			submit()
			return nil
		})
	}
	if sub.Template() == nil {
		g.Go(func() error {
			t, err := m.src.FetchEmailTemplate(ctx)
			if err != nil {
				return fmt.Errorf("fetch email template: %w", err)
			}
			sub.ProvideTemplate(t)
			submit()
			return nil
		})
	}
	g.Go(func() error {
		data, err := m.src.FetchCategory(ctx, categoryID)
		if err != nil {
			m.logger.Warn("category refresh failed, keeping estimate", zap.String("category", categoryID), zap.Error(err))
		} else if est, err := quote.Compute(categoryID, data, selections); err == nil {
			refreshed = est
			sub.ProvideEstimate(est)
		}
		submit()
		return nil
	})

	err := g.Wait()
	if refreshed != nil {
		s.estimate = refreshed
	}
	s.results = sub.Results()
	if err != nil && s.results == nil {
		m.failLocked(s, msgResultsFailed, err)
	}
	return err
}

// Restart clears every selection, the contact and the submission and returns
// to the category list.
func (m *Manager) Restart(id string) (View, error) {
	s, err := m.acquire(id)
	if err != nil {
		return View{}, err
	}
	defer s.mu.Unlock()
	s.reset()
	return s.view(), nil
}
