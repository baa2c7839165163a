// Package selection tracks which option a visitor picked for each question,
// per category.
package selection

import (
	"sort"
	"sync"
)

// Store maps (categoryID, questionIndex) to an option index. At most one
// option is recorded per question; absence means unanswered.
//
// A Store belongs to one wizard session. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	selections map[string]map[int]int
}

// New returns an empty store.
func New() *Store {
	return &Store{selections: make(map[string]map[int]int)}
}

// Set records optionIndex for the question, replacing any previous answer.
func (s *Store) Set(categoryID string, questionIndex, optionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, ok := s.selections[categoryID]
	if !ok {
		cat = make(map[int]int)
		s.selections[categoryID] = cat
	}
	cat[questionIndex] = optionIndex
}

// Remove deletes the answer for the question. The category stays known,
// so it is reported as incomplete when nothing else is selected.
func (s *Store) Remove(categoryID string, questionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cat, ok := s.selections[categoryID]; ok {
		delete(cat, questionIndex)
	}
}

// Get returns the selected option for the question.
func (s *Store) Get(categoryID string, questionIndex int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	opt, ok := s.selections[categoryID][questionIndex]
	return opt, ok
}

// Category returns a copy of the category's selections, empty when untouched.
func (s *Store) Category(categoryID string) map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySelections(s.selections[categoryID])
}

// ClearCategory forgets every selection in the category.
func (s *Store) ClearCategory(categoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selections, categoryID)
}

// Reset forgets everything.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections = make(map[string]map[int]int)
}

// Snapshot is a point-in-time copy of the store with summary counts.
//
// A category counts as completed once it has at least one selection. This is
// informational; it does not mean every question is answered.
type Snapshot struct {
	Selections           map[string]map[int]int `json:"selections"`
	TotalCategories      int                    `json:"totalCategories"`
	TotalQuestions       int                    `json:"totalQuestions"`
	CompletedCategories  []string               `json:"completedCategories"`
	IncompleteCategories []string               `json:"incompleteCategories"`
}

// Snapshot returns a deep copy of the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Selections:           make(map[string]map[int]int, len(s.selections)),
		TotalCategories:      len(s.selections),
		CompletedCategories:  []string{},
		IncompleteCategories: []string{},
	}
	for id, cat := range s.selections {
		snap.Selections[id] = copySelections(cat)
		snap.TotalQuestions += len(cat)
		if len(cat) > 0 {
			snap.CompletedCategories = append(snap.CompletedCategories, id)
		} else {
			snap.IncompleteCategories = append(snap.IncompleteCategories, id)
		}
	}
	sort.Strings(snap.CompletedCategories)
	sort.Strings(snap.IncompleteCategories)
	return snap
}

func copySelections(src map[int]int) map[int]int {
	dst := make(map[int]int, len(src))
	for q, o := range src {
		dst[q] = o
	}
	return dst
}
