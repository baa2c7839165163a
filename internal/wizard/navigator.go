// Package wizard steps a visitor through one category's questions.
package wizard

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/estimator/internal/content"
)

var (
	// ErrNoQuestions is returned when a category has nothing to ask.
	ErrNoQuestions = errors.New("category has no questions")
	// ErrOptionOutOfRange is returned when an option index does not exist on the current question.
	ErrOptionOutOfRange = errors.New("option index out of range")
)

// SelectionStore is the subset of selection.Store the navigator needs.
type SelectionStore interface {
	Set(categoryID string, questionIndex, optionIndex int)
	Remove(categoryID string, questionIndex int)
	Get(categoryID string, questionIndex int) (int, bool)
	ClearCategory(categoryID string)
}

// Transition is the outcome of Next.
type Transition int

const (
	// Rejected means the move was not allowed; nothing changed.
	Rejected Transition = iota
	// Moved means the navigator advanced to the next question.
	Moved
	// ReadyForForm means the last question was confirmed with every question answered.
	ReadyForForm
)

func (t Transition) String() string {
	switch t {
	case Moved:
		return "moved"
	case ReadyForForm:
		return "ready_for_form"
	default:
		return "rejected"
	}
}

// Navigator is the question-by-question state machine for one category.
// Answers live in the injected store, so re-entering a category shows earlier
// answers as pre-selected. A Navigator is not safe for concurrent use.
type Navigator struct {
	categoryID string
	data       *content.CalculatorData
	store      SelectionStore
	current    int
}

// New starts a navigator at the first question.
func New(categoryID string, data *content.CalculatorData, store SelectionStore) (*Navigator, error) {
	if data == nil || len(data.Questions) == 0 {
		return nil, fmt.Errorf("category %q: %w", categoryID, ErrNoQuestions)
	}
	if store == nil {
		return nil, errors.New("selection store is required")
	}
	return &Navigator{categoryID: categoryID, data: data, store: store}, nil
}

// CategoryID returns the category being navigated.
func (n *Navigator) CategoryID() string { return n.categoryID }

// Data returns the category's calculator data.
func (n *Navigator) Data() *content.CalculatorData { return n.data }

// Len returns the number of questions.
func (n *Navigator) Len() int { return len(n.data.Questions) }

// Current returns the current question index.
func (n *Navigator) Current() int { return n.current }

// Question returns the current question.
func (n *Navigator) Question() content.Question { return n.data.Questions[n.current] }

// Selected returns the option selected for the current question.
func (n *Navigator) Selected() (int, bool) {
	return n.store.Get(n.categoryID, n.current)
}

// Answered reports whether question i has a selection.
func (n *Navigator) Answered(i int) bool {
	_, ok := n.store.Get(n.categoryID, i)
	return ok
}

// Select handles an option click on the current question: it records the
// option, or clears it when it is already the selected one. It reports
// whether the option is selected afterwards.
func (n *Navigator) Select(optionIndex int) (bool, error) {
	if optionIndex < 0 || optionIndex >= len(n.Question().Options) {
		return false, fmt.Errorf("question %d option %d: %w", n.current, optionIndex, ErrOptionOutOfRange)
	}
	if prev, ok := n.store.Get(n.categoryID, n.current); ok && prev == optionIndex {
		n.store.Remove(n.categoryID, n.current)
		return false, nil
	}
	n.store.Set(n.categoryID, n.current, optionIndex)
	return true, nil
}

// CanAdvance reports whether Next would succeed.
func (n *Navigator) CanAdvance() bool {
	if n.current < n.Len()-1 {
		return n.Answered(n.current)
	}
	return n.Ready()
}

// Ready reports whether every question has a selection.
func (n *Navigator) Ready() bool {
	for i := 0; i < n.Len(); i++ {
		if !n.Answered(i) {
			return false
		}
	}
	return true
}

// Next advances past the current question. On the last question it returns
// ReadyForForm with the calculator data once every question is answered.
// A rejected move changes nothing.
func (n *Navigator) Next() (Transition, *content.CalculatorData) {
	if n.current < n.Len()-1 {
		if !n.Answered(n.current) {
			return Rejected, nil
		}
		n.current++
		return Moved, nil
	}
	if !n.Ready() {
		return Rejected, nil
	}
	return ReadyForForm, n.data
}

// Previous moves back one question. It is a no-op on the first question.
func (n *Navigator) Previous() bool {
	if n.current == 0 {
		return false
	}
	n.current--
	return true
}

// Abandon returns to the category list, discarding the category's answers.
func (n *Navigator) Abandon() {
	n.store.ClearCategory(n.categoryID)
	n.current = 0
}
