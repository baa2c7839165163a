package quote

import (
	"errors"
	"math"
	"testing"

	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opt(label string, minCost, maxCost content.Cost) content.Option {
	return content.Option{ShortDescription: label, MinimumCost: minCost, MaximumCost: maxCost}
}

func scenarioKitchens() *content.CalculatorData {
	return &content.CalculatorData{
		Title: "Kitchens",
		Questions: []content.Question{
			{Text: "Cabinets", Options: []content.Option{opt("Stock", "1000", "2000"), opt("Custom", "3000", "5000")}},
			{Text: "Counters", Options: []content.Option{opt("Laminate", "500", "500"), opt("Quartz", "800", "1200")}},
		},
	}
}

func TestCompute_ScenarioA(t *testing.T) {
	store := selection.New()
	store.Set("kitchens", 0, 0)
	store.Set("kitchens", 1, 1)

	est, err := Compute("kitchens", scenarioKitchens(), store.Category("kitchens"))
	require.NoError(t, err)

	assert.Equal(t, int64(1800), est.Min)
	assert.Equal(t, int64(3200), est.Max)
	assert.Equal(t, "Kitchens", est.CategoryTitle)
	require.Len(t, est.LineItems, 2)
	assert.Equal(t, "Stock", est.LineItems[0].Label)
	assert.Equal(t, "Quartz", est.LineItems[1].Label)
	assert.Equal(t, "Counters", est.LineItems[1].Question)
}

func TestCompute_OrderedByQuestionIndex(t *testing.T) {
	data := scenarioKitchens()
	data.Questions = append(data.Questions, content.Question{Options: []content.Option{opt("Tile", "10", "20")}})

	for i := 0; i < 20; i++ {
		est, err := Compute("kitchens", data, map[int]int{2: 0, 0: 1, 1: 0})
		require.NoError(t, err)
		require.Len(t, est.LineItems, 3)
		assert.Equal(t, []int{0, 1, 2}, []int{
			est.LineItems[0].QuestionIndex,
			est.LineItems[1].QuestionIndex,
			est.LineItems[2].QuestionIndex,
		})
	}
}

func TestCompute_SkipsStaleSelections(t *testing.T) {
	est, err := Compute("kitchens", scenarioKitchens(), map[int]int{0: 1, 1: 9, 5: 0, -1: 0})
	require.NoError(t, err)

	require.Len(t, est.LineItems, 1)
	assert.Equal(t, int64(3000), est.Min)
	assert.Equal(t, int64(5000), est.Max)
}

func TestCompute_Empty(t *testing.T) {
	est, err := Compute("kitchens", scenarioKitchens(), nil)
	require.NoError(t, err)
	assert.Empty(t, est.LineItems)
	assert.Zero(t, est.Min)
	assert.Zero(t, est.Max)

	est, err = Compute("kitchens", nil, map[int]int{0: 0})
	require.NoError(t, err)
	assert.Empty(t, est.LineItems)
}

func TestCompute_ReflectsCurrentSelections(t *testing.T) {
	store := selection.New()
	data := scenarioKitchens()
	store.Set("kitchens", 0, 0)

	first, err := Compute("kitchens", data, store.Category("kitchens"))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), first.Min)

	store.Set("kitchens", 0, 1)
	second, err := Compute("kitchens", data, store.Category("kitchens"))
	require.NoError(t, err)
	assert.Equal(t, int64(3000), second.Min)
	assert.Equal(t, int64(1000), first.Min, "earlier estimate is not mutated")
}

func TestCompute_CostParseError(t *testing.T) {
	tests := []struct {
		name  string
		min   content.Cost
		max   content.Cost
		field string
	}{
		{name: "letters", min: "abc", max: "100", field: "minimum_cost"},
		{name: "negative", min: "100", max: "-5", field: "maximum_cost"},
		{name: "decimal", min: "10.5", max: "20", field: "minimum_cost"},
		{name: "empty", min: "", max: "20", field: "minimum_cost"},
		{name: "inner space", min: "1 000", max: "2000", field: "minimum_cost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := scenarioKitchens()
			data.Questions[1].Options[0] = opt("Broken", tt.min, tt.max)

			est, err := Compute("kitchens", data, map[int]int{0: 0, 1: 0})
			assert.Nil(t, est, "no partial total")
			var cpe *CostParseError
			require.True(t, errors.As(err, &cpe))
			assert.Equal(t, 1, cpe.QuestionIndex)
			assert.Equal(t, 0, cpe.OptionIndex)
			assert.Equal(t, tt.field, cpe.Field)
		})
	}
}

func TestCompute_WhitespaceTolerated(t *testing.T) {
	data := scenarioKitchens()
	data.Questions[0].Options[0] = opt("Padded", " 1000 ", "\t2000\n")

	est, err := Compute("kitchens", data, map[int]int{0: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), est.Min)
	assert.Equal(t, int64(2000), est.Max)
}

func TestCompute_TotalOverflow(t *testing.T) {
	data := &content.CalculatorData{
		Questions: []content.Question{
			{Options: []content.Option{opt("Huge", "9223372036854775807", "9223372036854775807")}},
			{Options: []content.Option{opt("One", "1", "1")}},
		},
	}

	est, err := Compute("kitchens", data, map[int]int{0: 0, 1: 0})
	assert.Nil(t, est)
	var cpe *CostParseError
	require.ErrorAs(t, err, &cpe)
	assert.ErrorIs(t, err, ErrTotalOverflow)
	assert.Equal(t, 1, cpe.QuestionIndex)
	assert.Equal(t, "minimum_cost", cpe.Field)

	est, err = Compute("kitchens", data, map[int]int{0: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), est.Max)
}
