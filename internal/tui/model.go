// Package tui is a terminal front end for the estimate wizard. It drives a
// session.Manager in-process, one session per program run.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/quote"
	"github.com/fyrsmithlabs/estimator/internal/session"
	"github.com/fyrsmithlabs/estimator/internal/wizard"
)

const defaultTimeout = 30 * time.Second

// Contact form fields, in tab order.
const (
	fieldName = iota
	fieldEmail
	fieldZip
	fieldPhone
	fieldCount
)

var fieldKeys = [fieldCount]string{lead.FieldName, lead.FieldEmail, lead.FieldZip, lead.FieldPhone}

// Model is the bubbletea model for the wizard.
type Model struct {
	sessions  *session.Manager
	formatter *quote.Formatter
	timeout   time.Duration
	category  string

	view   session.View
	home   *content.HomeData
	cursor int

	inputs    []textinput.Model
	focus     int
	fieldErrs map[string]string

	notice   string
	err      error
	busy     bool
	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithCategory opens the category matching ref (an id or dashed title) on start.
func WithCategory(ref string) Option {
	return func(m *Model) { m.category = ref }
}

// WithTimeout bounds each content fetch and submission.
func WithTimeout(d time.Duration) Option {
	return func(m *Model) { m.timeout = d }
}

// NewModel creates a session on sessions and returns a model driving it.
func NewModel(sessions *session.Manager, formatter *quote.Formatter, opts ...Option) Model {
	m := Model{
		sessions:  sessions,
		formatter: formatter,
		timeout:   defaultTimeout,
		view:      sessions.Create(),
		inputs:    newInputs(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func newInputs() []textinput.Model {
	placeholders := [fieldCount]string{"Full name", "you@example.com", "12345", "555-123-4567"}
	limits := [fieldCount]int{100, 254, 10, 20}
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		ti.Cursor.SetMode(cursor.CursorStatic)
		inputs[i] = ti
	}
	inputs[fieldName].Focus()
	return inputs
}

// SessionID returns the id of the session the model drives.
func (m Model) SessionID() string { return m.view.SessionID }

// Message types
type homeMsg struct {
	home *content.HomeData
	err  error
}

type viewMsg struct {
	view session.View
	err  error
}

// Init loads the category list, or opens the requested category.
func (m Model) Init() tea.Cmd {
	if m.category != "" {
		return tea.Batch(m.loadHome(), m.resolve(m.category))
	}
	return m.loadHome()
}

func (m Model) loadHome() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		home, err := m.sessions.Home(ctx)
		return homeMsg{home: home, err: err}
	}
}

func (m Model) resolve(ref string) tea.Cmd {
	id := m.view.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		v, err := m.sessions.ResolveCategory(ctx, id, ref)
		return viewMsg{view: v, err: err}
	}
}

func (m Model) openCategory(categoryID string) tea.Cmd {
	id := m.view.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		v, err := m.sessions.OpenCategory(ctx, id, categoryID)
		return viewMsg{view: v, err: err}
	}
}

func (m Model) submit() tea.Cmd {
	id := m.view.SessionID
	c := lead.Contact{
		Name:  m.inputs[fieldName].Value(),
		Email: m.inputs[fieldEmail].Value(),
		Zip:   m.inputs[fieldZip].Value(),
		Phone: m.inputs[fieldPhone].Value(),
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		v, err := m.sessions.SubmitContact(ctx, id, c)
		return viewMsg{view: v, err: err}
	}
}

func (m Model) retry() tea.Cmd {
	id := m.view.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		v, err := m.sessions.RetrySubmission(ctx, id)
		return viewMsg{view: v, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.view.Screen {
		case session.ScreenHome:
			return m.updateHome(msg)
		case session.ScreenCategory:
			return m.updateCategory(msg)
		case session.ScreenForm:
			return m.updateForm(msg)
		case session.ScreenResults:
			return m.updateResults(msg)
		default:
			return m.updateError(msg)
		}

	case homeMsg:
		m.home, m.err = msg.home, msg.err
		if m.cursor >= m.categoryCount() {
			m.cursor = 0
		}
		return m, nil

	case viewMsg:
		m.busy = false
		m.apply(msg.view, msg.err)
		return m, nil
	}

	return m, nil
}

// apply installs the view an operation returned. A validation failure keeps
// the form and records per-field messages.
func (m *Model) apply(v session.View, err error) {
	if v.SessionID != "" {
		prev := m.view
		m.view = v
		if v.Screen != prev.Screen || questionIndex(v) != questionIndex(prev) {
			m.resetCursor()
		}
	}
	m.err = nil
	m.notice = ""

	var verr *lead.ValidationError
	switch {
	case err == nil:
		m.fieldErrs = nil
	case errors.As(err, &verr):
		m.fieldErrs = verr.Fields
	case v.Screen == session.ScreenError:
		// the view carries the message
	default:
		m.err = err
	}
}

func questionIndex(v session.View) int {
	if v.Category == nil {
		return -1
	}
	return v.Category.QuestionIndex
}

func (m *Model) resetCursor() {
	m.cursor = 0
	if c := m.view.Category; c != nil && c.Selected != nil {
		m.cursor = *c.Selected
	}
}

func (m Model) categoryCount() int {
	if m.home == nil {
		return 0
	}
	return len(m.home.Categories)
}

func (m Model) optionCount() int {
	if m.view.Category == nil {
		return 0
	}
	return len(m.view.Category.Question.Options)
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, max(m.categoryCount()-1, 0))
	case "r":
		m.err = nil
		return m, m.loadHome()
	case "enter":
		if m.categoryCount() == 0 {
			return m, nil
		}
		m.busy = true
		return m, m.openCategory(m.home.Categories[m.cursor].ID)
	}
	return m, nil
}

func (m Model) updateCategory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.view.SessionID
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, max(m.optionCount()-1, 0))
	case "enter", " ":
		v, err := m.sessions.Select(id, m.cursor)
		m.apply(v, err)
	case "n", "right":
		v, tr, err := m.sessions.Next(id)
		m.apply(v, err)
		if err == nil && tr == wizard.Rejected {
			m.notice = "Choose an option to continue."
		}
	case "p", "left":
		v, err := m.sessions.Previous(id)
		m.apply(v, err)
	case "b", "esc":
		v, err := m.sessions.Back(id)
		m.apply(v, err)
	case "r":
		v, err := m.sessions.Restart(id)
		m.apply(v, err)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v, err := m.sessions.Back(m.view.SessionID)
		m.apply(v, err)
		return m, nil
	case "tab", "down":
		return m.focusField((m.focus + 1) % fieldCount), nil
	case "shift+tab", "up":
		return m.focusField((m.focus + fieldCount - 1) % fieldCount), nil
	case "enter":
		if m.focus < fieldCount-1 {
			return m.focusField(m.focus + 1), nil
		}
		m.busy = true
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) focusField(i int) Model {
	inputs := make([]textinput.Model, len(m.inputs))
	copy(inputs, m.inputs)
	for j := range inputs {
		if j == i {
			inputs[j].Focus()
		} else {
			inputs[j].Blur()
		}
	}
	m.inputs = inputs
	m.focus = i
	return m
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "r":
		return m.restart()
	case "t":
		if s := m.view.Submission; s != nil && s.State == lead.Failed {
			m.busy = true
			return m, m.retry()
		}
	}
	return m, nil
}

func (m Model) updateError(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "b", "esc":
		v, err := m.sessions.Back(m.view.SessionID)
		m.apply(v, err)
	case "r":
		return m.restart()
	case "t":
		if m.view.Submission != nil {
			m.busy = true
			return m, m.retry()
		}
	}
	return m, nil
}

func (m Model) restart() (tea.Model, tea.Cmd) {
	v, err := m.sessions.Restart(m.view.SessionID)
	m.apply(v, err)
	m.inputs = newInputs()
	m.focus = fieldName
	m.fieldErrs = nil
	return m, nil
}
