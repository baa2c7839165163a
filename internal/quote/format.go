package quote

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fyrsmithlabs/estimator/internal/config"
)

// Formatter renders amounts as thousands-grouped currency for a locale.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter creates a formatter. An unparseable locale falls back to en-US.
func NewFormatter(locale, symbol string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &Formatter{printer: message.NewPrinter(tag), symbol: symbol}
}

// FormatterFromConfig creates a formatter from the format config section.
func FormatterFromConfig(cfg config.FormatConfig) *Formatter {
	return NewFormatter(cfg.Locale, cfg.CurrencySymbol)
}

// Amount renders n, e.g. "$12,500".
func (f *Formatter) Amount(n int64) string {
	return f.symbol + f.printer.Sprintf("%d", n)
}

// Range renders "min - max", or a single amount when they are equal.
func (f *Formatter) Range(minAmount, maxAmount int64) string {
	if minAmount == maxAmount {
		return f.Amount(minAmount)
	}
	return f.Amount(minAmount) + " - " + f.Amount(maxAmount)
}
