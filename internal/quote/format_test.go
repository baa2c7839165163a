package quote

import (
	"strings"
	"testing"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter_Amount(t *testing.T) {
	f := FormatterFromConfig(config.Default().Format)

	assert.Equal(t, "$0", f.Amount(0))
	assert.Equal(t, "$950", f.Amount(950))
	assert.Equal(t, "$1,800", f.Amount(1800))
	assert.Equal(t, "$1,250,000", f.Amount(1250000))
}

func TestFormatter_Range(t *testing.T) {
	f := NewFormatter("en-US", "$")

	assert.Equal(t, "$1,800 - $3,200", f.Range(1800, 3200))
	assert.Equal(t, "$500", f.Range(500, 500))
}

func TestFormatter_BadLocaleFallsBack(t *testing.T) {
	f := NewFormatter("not a locale!!", "$")
	assert.Equal(t, "$12,000", f.Amount(12000))
}

func TestBreakdownHTML(t *testing.T) {
	est, err := Compute("kitchens", scenarioKitchens(), map[int]int{0: 0, 1: 1})
	require.NoError(t, err)
	est.LineItems[0].ImageURL = "https://example.com/stock.jpg"
	est.LineItems[1].Label = "Quartz <premium>"

	out, err := BreakdownHTML(est, NewFormatter("en-US", "$"))
	require.NoError(t, err)

	assert.Contains(t, out, "https://example.com/stock.jpg")
	assert.Contains(t, out, "/placeholder-image.jpg")
	assert.Contains(t, out, "$1,000 - $2,000")
	assert.Contains(t, out, "Quartz &lt;premium&gt;")
	assert.NotContains(t, out, "<premium>")
	assert.Contains(t, out, "Estimate Total")
	assert.Contains(t, out, "$1,800 - $3,200")
	assert.Less(t, strings.Index(out, "Stock"), strings.Index(out, "Estimate Total"))
}

func TestBreakdownHTML_Nil(t *testing.T) {
	_, err := BreakdownHTML(nil, NewFormatter("en-US", "$"))
	assert.Error(t, err)
}
