package tui

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/quote"
	"github.com/fyrsmithlabs/estimator/internal/session"
)

type fakeSource struct{}

func (fakeSource) FetchHome(context.Context) (*content.HomeData, error) {
	return &content.HomeData{Headline: "Plan your project", Categories: []content.Category{
		{ID: "kitchens", Title: "Kitchens"},
		{ID: "decks", Title: "Decks"},
	}}, nil
}

func (fakeSource) FetchCategory(_ context.Context, id string) (*content.CalculatorData, error) {
	if id != "kitchens" {
		return nil, &content.FetchError{Kind: content.KindNotFound, Slug: id, Err: errors.New("unknown category")}
	}
	o := func(label string, minCost, maxCost content.Cost) content.Option {
		return content.Option{ShortDescription: label, MinimumCost: minCost, MaximumCost: maxCost}
	}
	return &content.CalculatorData{
		Title: "Kitchens",
		Questions: []content.Question{
			{Text: "Cabinets", Options: []content.Option{o("Stock", "1000", "2000"), o("Custom", "3000", "5000")}},
			{Text: "Counters", Options: []content.Option{o("Laminate", "500", "500"), o("Quartz", "800", "1200")}},
		},
	}, nil
}

func (fakeSource) FetchResults(context.Context) (*content.Results, error) {
	return &content.Results{Headline: "Your Kitchen Estimate", Disclaimer: "Prices vary."}, nil
}

func (fakeSource) FetchEmailTemplate(context.Context) (*content.EmailTemplate, error) {
	return &content.EmailTemplate{Subject: "Your Estimate", HTMLBody: "<p>Thanks</p>"}, nil
}

type fakeEffects struct {
	crmFail atomic.Bool
}

func (*fakeEffects) SendConfirmation(context.Context, string, string, string, string) error {
	return nil
}

func (*fakeEffects) SendNotification(context.Context, lead.Contact, string) error { return nil }

func (f *fakeEffects) CreateAccountAndContact(context.Context, lead.Contact) (string, error) {
	if f.crmFail.Load() {
		return "", errors.New("crm down")
	}
	return "acct-1", nil
}

func newTestModel(t *testing.T, opts ...Option) (Model, *fakeEffects) {
	t.Helper()
	fx := &fakeEffects{}
	mgr := session.NewManager(fakeSource{}, lead.NewOrchestrator(fx, fx, fx), config.Default().Session)
	m := NewModel(mgr, quote.NewFormatter("en-US", "$"), opts...)
	return run(t, m, m.Init()), fx
}

// run executes cmd and feeds the wizard messages it produces back into m.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = run(t, m, c)
		}
	case homeMsg, viewMsg:
		next, more := m.Update(msg)
		m = run(t, next.(Model), more)
	}
	return m
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = run(t, next.(Model), cmd)
	}
	return m
}

// typeText sends s one rune at a time to the focused input.
func typeText(m Model, s string) Model {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

func fillForm(m Model, name, email, zip, phone string) Model {
	m = typeText(m, name)
	for _, v := range []string{email, zip, phone} {
		next, _ := m.Update(key("tab"))
		m = typeText(next.(Model), v)
	}
	return m
}

// answerKitchens picks Stock cabinets and Quartz counters, ending on the form.
func answerKitchens(t *testing.T, m Model) Model {
	t.Helper()
	m = press(t, m, "enter")
	require.Equal(t, session.ScreenCategory, m.view.Screen)
	m = press(t, m, "enter", "n", "down", "enter", "n")
	require.Equal(t, session.ScreenForm, m.view.Screen)
	return m
}

func TestNewModel(t *testing.T) {
	m, _ := newTestModel(t)
	assert.NotEmpty(t, m.SessionID())
	assert.Equal(t, session.ScreenHome, m.view.Screen)
	require.NotNil(t, m.home)
	assert.Len(t, m.home.Categories, 2)
	assert.Contains(t, m.View(), "Plan your project")
	assert.Contains(t, m.View(), "Decks")
}

func TestModel_QuitKey(t *testing.T) {
	m, _ := newTestModel(t)
	next, cmd := m.Update(key("q"))
	assert.True(t, next.(Model).quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, next.(Model).View())
}

func TestModel_CategoryNavigation(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "enter")
	require.Equal(t, session.ScreenCategory, m.view.Screen)
	assert.Contains(t, m.View(), "Question 1 of 2")
	assert.Contains(t, m.View(), "Cabinets")

	// Next without an answer is rejected.
	m = press(t, m, "n")
	assert.Equal(t, 0, m.view.Category.QuestionIndex)
	assert.Contains(t, m.View(), "Choose an option to continue.")

	m = press(t, m, "down", "enter")
	require.NotNil(t, m.view.Category.Selected)
	assert.Equal(t, 1, *m.view.Category.Selected)

	// Selecting again clears the answer.
	m = press(t, m, "enter")
	assert.Nil(t, m.view.Category.Selected)

	m = press(t, m, "enter", "n")
	assert.Equal(t, 1, m.view.Category.QuestionIndex)
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, "p")
	assert.Equal(t, 0, m.view.Category.QuestionIndex)
	assert.Equal(t, 1, m.cursor, "cursor returns to the selected option")

	m = press(t, m, "b")
	assert.Equal(t, session.ScreenHome, m.view.Screen)
}

func TestModel_SubmitContact(t *testing.T) {
	m, _ := newTestModel(t)
	m = answerKitchens(t, m)

	// q is text on the form, not quit.
	m = fillForm(m, "Jacqueline Doe", "jane@example.com", "12345", "555-123-4567")
	assert.False(t, m.quitting)
	assert.Equal(t, "Jacqueline Doe", m.inputs[fieldName].Value())

	m = press(t, m, "enter")
	require.Equal(t, session.ScreenResults, m.view.Screen)
	require.NotNil(t, m.view.Submission)
	assert.Equal(t, lead.Completed, m.view.Submission.State)

	out := m.View()
	assert.Contains(t, out, "Your Kitchen Estimate")
	assert.Contains(t, out, "$1,800 - $3,200")
	assert.Contains(t, out, "Quartz")
	assert.Contains(t, out, "sent to jane@example.com")

	m = press(t, m, "r")
	assert.Equal(t, session.ScreenHome, m.view.Screen)
	assert.Empty(t, m.inputs[fieldName].Value())
}

func TestModel_ValidationErrors(t *testing.T) {
	m, _ := newTestModel(t)
	m = answerKitchens(t, m)
	m = fillForm(m, "Jane Doe", "not-an-email", "12345", "555-123-4567")

	m = press(t, m, "enter")
	assert.Equal(t, session.ScreenForm, m.view.Screen)
	assert.Contains(t, m.fieldErrs, lead.FieldEmail)
	assert.Contains(t, m.View(), m.fieldErrs[lead.FieldEmail])

	m = press(t, m, "esc")
	assert.Equal(t, session.ScreenCategory, m.view.Screen)
}

func TestModel_RetryFailedSubmission(t *testing.T) {
	m, fx := newTestModel(t)
	fx.crmFail.Store(true)
	m = answerKitchens(t, m)
	m = fillForm(m, "Jane Doe", "jane@example.com", "12345", "555-123-4567")

	m = press(t, m, "enter")
	require.NotNil(t, m.view.Submission)
	assert.Equal(t, lead.Failed, m.view.Submission.State)
	assert.Contains(t, m.View(), "try again")

	fx.crmFail.Store(false)
	m = press(t, m, "t")
	assert.Equal(t, lead.Completed, m.view.Submission.State)
}

func TestModel_WithCategory(t *testing.T) {
	m, _ := newTestModel(t, WithCategory("Kitchens"))
	assert.Equal(t, session.ScreenCategory, m.view.Screen)
	assert.Equal(t, "kitchens", m.view.Category.ID)
}

func TestModel_UnknownCategory(t *testing.T) {
	m, _ := newTestModel(t, WithCategory("pools"))
	assert.Equal(t, session.ScreenError, m.view.Screen)
	assert.Contains(t, m.View(), "Something went wrong")

	m = press(t, m, "b")
	assert.Equal(t, session.ScreenHome, m.view.Screen)
}

func TestModel_CtrlCAlwaysQuits(t *testing.T) {
	m, _ := newTestModel(t)
	m = answerKitchens(t, m)
	next, cmd := m.Update(key("ctrl+c"))
	assert.True(t, next.(Model).quitting)
	assert.NotNil(t, cmd)
}
