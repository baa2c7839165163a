package wizard

import (
	"testing"

	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kitchenData(questions ...int) *content.CalculatorData {
	data := &content.CalculatorData{Title: "Kitchens"}
	for _, n := range questions {
		q := content.Question{Text: "q"}
		for i := 0; i < n; i++ {
			q.Options = append(q.Options, content.Option{ShortDescription: "o", MinimumCost: "1", MaximumCost: "2"})
		}
		data.Questions = append(data.Questions, q)
	}
	return data
}

func newNav(t *testing.T, questions ...int) (*Navigator, *selection.Store) {
	t.Helper()
	store := selection.New()
	nav, err := New("kitchens", kitchenData(questions...), store)
	require.NoError(t, err)
	return nav, store
}

func TestNew_NoQuestions(t *testing.T) {
	_, err := New("kitchens", kitchenData(), selection.New())
	assert.ErrorIs(t, err, ErrNoQuestions)

	_, err = New("kitchens", nil, selection.New())
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestNavigator_SelectToggles(t *testing.T) {
	nav, store := newNav(t, 3)

	selected, err := nav.Select(1)
	require.NoError(t, err)
	assert.True(t, selected)
	got, ok := store.Get("kitchens", 0)
	require.True(t, ok)
	assert.Equal(t, 1, got)

	// Same option again clears it.
	selected, err = nav.Select(1)
	require.NoError(t, err)
	assert.False(t, selected)
	_, ok = store.Get("kitchens", 0)
	assert.False(t, ok)

	// A different option replaces.
	_, _ = nav.Select(0)
	selected, _ = nav.Select(2)
	assert.True(t, selected)
	got, _ = nav.Selected()
	assert.Equal(t, 2, got)
}

func TestNavigator_SelectOutOfRange(t *testing.T) {
	nav, store := newNav(t, 2)

	_, err := nav.Select(2)
	assert.ErrorIs(t, err, ErrOptionOutOfRange)
	_, err = nav.Select(-1)
	assert.ErrorIs(t, err, ErrOptionOutOfRange)
	assert.Empty(t, store.Category("kitchens"))
}

func TestNavigator_NextRequiresAnswer(t *testing.T) {
	nav, _ := newNav(t, 2, 2, 2)

	tr, data := nav.Next()
	assert.Equal(t, Rejected, tr)
	assert.Nil(t, data)
	assert.Equal(t, 0, nav.Current())
	assert.False(t, nav.CanAdvance())

	_, _ = nav.Select(0)
	assert.True(t, nav.CanAdvance())
	tr, _ = nav.Next()
	assert.Equal(t, Moved, tr)
	assert.Equal(t, 1, nav.Current())
}

func TestNavigator_ReadyOnlyWhenAllAnswered(t *testing.T) {
	nav, store := newNav(t, 2, 2, 2)

	for i := 0; i < 2; i++ {
		_, _ = nav.Select(0)
		tr, _ := nav.Next()
		require.Equal(t, Moved, tr)
	}
	require.Equal(t, 2, nav.Current())

	// Last question unanswered.
	tr, _ := nav.Next()
	assert.Equal(t, Rejected, tr)

	_, _ = nav.Select(1)
	// Earlier answer removed behind the navigator's back.
	store.Remove("kitchens", 0)
	tr, data := nav.Next()
	assert.Equal(t, Rejected, tr, "every index must be answered, not just the count")
	assert.Nil(t, data)
	assert.Equal(t, 2, nav.Current())

	store.Set("kitchens", 0, 1)
	tr, data = nav.Next()
	assert.Equal(t, ReadyForForm, tr)
	assert.Same(t, nav.Data(), data)
	assert.True(t, nav.Ready())
}

func TestNavigator_StrayAnswersDoNotCount(t *testing.T) {
	nav, store := newNav(t, 2, 2)
	store.Set("kitchens", 0, 0)
	store.Set("kitchens", 7, 0)

	assert.False(t, nav.Ready())
	assert.False(t, nav.Answered(1))
}

func TestNavigator_Previous(t *testing.T) {
	nav, _ := newNav(t, 2, 2)

	assert.False(t, nav.Previous())
	assert.Equal(t, 0, nav.Current())

	_, _ = nav.Select(1)
	nav.Next()
	assert.True(t, nav.Previous())
	assert.Equal(t, 0, nav.Current())

	got, ok := nav.Selected()
	require.True(t, ok, "earlier answers stay pre-selected")
	assert.Equal(t, 1, got)
}

func TestNavigator_ReentryStartsAtFirstQuestion(t *testing.T) {
	store := selection.New()
	data := kitchenData(2, 2)

	nav, _ := New("kitchens", data, store)
	_, _ = nav.Select(1)
	nav.Next()
	_, _ = nav.Select(0)

	again, err := New("kitchens", data, store)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Current())
	got, _ := again.Selected()
	assert.Equal(t, 1, got)
	assert.True(t, again.Ready())
}

func TestNavigator_Abandon(t *testing.T) {
	nav, store := newNav(t, 2, 2)
	store.Set("bathrooms", 0, 0)
	_, _ = nav.Select(1)
	nav.Next()

	nav.Abandon()

	assert.Equal(t, 0, nav.Current())
	assert.Empty(t, store.Category("kitchens"))
	_, ok := store.Get("bathrooms", 0)
	assert.True(t, ok)
}

func TestNavigator_SingleQuestion(t *testing.T) {
	nav, _ := newNav(t, 3)

	tr, _ := nav.Next()
	assert.Equal(t, Rejected, tr)
	_, _ = nav.Select(2)
	tr, data := nav.Next()
	assert.Equal(t, ReadyForForm, tr)
	assert.NotNil(t, data)
	assert.Equal(t, "ready_for_form", tr.String())
}
