package quote

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var breakdownTmpl = template.Must(
	template.New("breakdown.html.tmpl").
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/breakdown.html.tmpl"),
)

type breakdownRow struct {
	Label    string
	ImageURL string
	Range    string
}

type breakdownData struct {
	Rows  []breakdownRow
	Total string
}

// BreakdownHTML renders the estimate as an HTML table for emails: one row per
// line item followed by an "Estimate Total" row.
func BreakdownHTML(est *Estimate, f *Formatter) (string, error) {
	if est == nil {
		return "", fmt.Errorf("nil estimate")
	}
	data := breakdownData{Total: f.Range(est.Min, est.Max)}
	for _, li := range est.LineItems {
		data.Rows = append(data.Rows, breakdownRow{
			Label:    li.Label,
			ImageURL: li.ImageURL,
			Range:    f.Range(li.Min, li.Max),
		})
	}
	var buf bytes.Buffer
	if err := breakdownTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering breakdown: %w", err)
	}
	return buf.String(), nil
}
