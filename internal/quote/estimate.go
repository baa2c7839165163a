// Package quote turns a category's selections into a cost estimate.
//
// Compute is pure and deterministic: it reads the selections it is given and
// never caches, so totals always reflect the current answers.
package quote

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/estimator/internal/content"
)

// LineItem is one answered question and the cost range of the chosen option.
type LineItem struct {
	QuestionIndex int    `json:"questionIndex"`
	OptionIndex   int    `json:"optionIndex"`
	Question      string `json:"question"`
	Label         string `json:"label"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Min           int64  `json:"min"`
	Max           int64  `json:"max"`
}

// Estimate is the aggregated estimate for one category.
type Estimate struct {
	CategoryID    string     `json:"categoryId"`
	CategoryTitle string     `json:"categoryTitle"`
	LineItems     []LineItem `json:"lineItems"`
	Min           int64      `json:"min"`
	Max           int64      `json:"max"`
}

// ErrTotalOverflow is wrapped by a CostParseError when adding an option's
// cost would overflow the running total.
var ErrTotalOverflow = errors.New("total overflows int64")

// CostParseError reports an option whose cost is not a non-negative integer.
type CostParseError struct {
	QuestionIndex int
	OptionIndex   int
	Field         string
	Value         string
	Err           error
}

func (e *CostParseError) Error() string {
	return fmt.Sprintf("question %d option %d: invalid %s %q: %v",
		e.QuestionIndex, e.OptionIndex, e.Field, e.Value, e.Err)
}

func (e *CostParseError) Unwrap() error { return e.Err }

// Compute builds line items for every selection that resolves to an option
// of data, ordered by question index, and sums their cost ranges.
// Selections pointing at questions or options that no longer exist are skipped.
// Any malformed cost aborts the computation.
func Compute(categoryID string, data *content.CalculatorData, selections map[int]int) (*Estimate, error) {
	est := &Estimate{CategoryID: categoryID, LineItems: []LineItem{}}
	if data != nil {
		est.CategoryTitle = data.Title
	}

	questions := make([]int, 0, len(selections))
	for q := range selections {
		questions = append(questions, q)
	}
	sort.Ints(questions)

	for _, q := range questions {
		o := selections[q]
		opt, ok := data.Option(q, o)
		if !ok {
			continue
		}
		minCost, err := parseCost(opt.MinimumCost)
		if err != nil {
			return nil, &CostParseError{QuestionIndex: q, OptionIndex: o, Field: "minimum_cost", Value: string(opt.MinimumCost), Err: err}
		}
		maxCost, err := parseCost(opt.MaximumCost)
		if err != nil {
			return nil, &CostParseError{QuestionIndex: q, OptionIndex: o, Field: "maximum_cost", Value: string(opt.MaximumCost), Err: err}
		}
		if minCost > math.MaxInt64-est.Min {
			return nil, &CostParseError{QuestionIndex: q, OptionIndex: o, Field: "minimum_cost", Value: string(opt.MinimumCost), Err: ErrTotalOverflow}
		}
		if maxCost > math.MaxInt64-est.Max {
			return nil, &CostParseError{QuestionIndex: q, OptionIndex: o, Field: "maximum_cost", Value: string(opt.MaximumCost), Err: ErrTotalOverflow}
		}
		est.LineItems = append(est.LineItems, LineItem{
			QuestionIndex: q,
			OptionIndex:   o,
			Question:      data.Questions[q].Text,
			Label:         opt.ShortDescription,
			ImageURL:      opt.Image.URL,
			Min:           minCost,
			Max:           maxCost,
		})
		est.Min += minCost
		est.Max += maxCost
	}
	return est, nil
}

// parseCost accepts a decimal digit string, tolerating surrounding whitespace.
func parseCost(c content.Cost) (int64, error) {
	s := strings.TrimSpace(string(c))
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("unexpected character %q", r)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}
