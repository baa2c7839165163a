package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/quote"
	"github.com/fyrsmithlabs/estimator/internal/selection"
	"github.com/fyrsmithlabs/estimator/internal/wizard"
)

// Screen is the wizard screen a session is on.
type Screen string

const (
	ScreenHome     Screen = "home"
	ScreenCategory Screen = "category"
	ScreenForm     Screen = "form"
	ScreenResults  Screen = "results"
	ScreenError    Screen = "error"
)

// Session is one visitor's pass through the wizard. Its operations are
// serialized by mu.
type Session struct {
	id       string
	lastSeen atomic.Int64

	mu         sync.Mutex
	store      *selection.Store
	screen     Screen
	nav        *wizard.Navigator
	contact    *lead.Contact
	submission *lead.Submission
	estimate   *quote.Estimate
	results    *content.Results
	errMsg     string
}

func newSession(id string, now time.Time) *Session {
	s := &Session{id: id, store: selection.New(), screen: ScreenHome}
	s.touch(now)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// reset returns the session to the home screen with nothing selected.
func (s *Session) reset() {
	s.store.Reset()
	s.screen = ScreenHome
	s.nav = nil
	s.contact = nil
	s.dropSubmission()
	s.errMsg = ""
}

// dropSubmission forgets the submission and the estimate and results it was
// made for. A submission belongs to one pass through one category.
func (s *Session) dropSubmission() {
	s.submission = nil
	s.estimate = nil
	s.results = nil
}

// View is a render-ready snapshot of a session.
type View struct {
	SessionID  string             `json:"sessionId"`
	Screen     Screen             `json:"screen"`
	Category   *CategoryView      `json:"category,omitempty"`
	Contact    *lead.Contact      `json:"contact,omitempty"`
	Estimate   *quote.Estimate    `json:"estimate,omitempty"`
	Results    *content.Results   `json:"results,omitempty"`
	Submission *SubmissionView    `json:"submission,omitempty"`
	Progress   selection.Snapshot `json:"progress"`
	Error      string             `json:"error,omitempty"`
}

// CategoryView is the open category and the current question.
type CategoryView struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	FormFields    content.FormFields `json:"formFields"`
	QuestionIndex int                `json:"questionIndex"`
	QuestionCount int                `json:"questionCount"`
	Question      content.Question   `json:"question"`
	Selected      *int               `json:"selected,omitempty"`
	Answered      []bool             `json:"answered"`
	CanAdvance    bool               `json:"canAdvance"`
	Ready         bool               `json:"ready"`
}

// SubmissionView is the state of the lead submission.
type SubmissionView struct {
	ID         string     `json:"id"`
	State      lead.State `json:"state"`
	FailedStep string     `json:"failedStep,omitempty"`
	AccountID  string     `json:"accountId,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func (s *Session) view() View {
	v := View{
		SessionID: s.id,
		Screen:    s.screen,
		Contact:   s.contact,
		Estimate:  s.estimate,
		Results:   s.results,
		Progress:  s.store.Snapshot(),
		Error:     s.errMsg,
	}
	if s.nav != nil {
		data := s.nav.Data()
		cv := &CategoryView{
			ID:            s.nav.CategoryID(),
			Title:         data.Title,
			FormFields:    data.FormFields,
			QuestionIndex: s.nav.Current(),
			QuestionCount: s.nav.Len(),
			Question:      s.nav.Question(),
			Answered:      make([]bool, s.nav.Len()),
			CanAdvance:    s.nav.CanAdvance(),
			Ready:         s.nav.Ready(),
		}
		if sel, ok := s.nav.Selected(); ok {
			cv.Selected = &sel
		}
		for i := range cv.Answered {
			cv.Answered[i] = s.nav.Answered(i)
		}
		v.Category = cv
	}
	if s.submission != nil {
		res := s.submission.Result()
		sv := &SubmissionView{ID: res.SubmissionID, State: res.State, AccountID: res.AccountID}
		if res.State == lead.Failed {
			sv.FailedStep = res.FailedStep.String()
			if res.Err != nil {
				sv.Error = res.Err.Error()
			}
		}
		v.Submission = sv
	}
	return v
}
