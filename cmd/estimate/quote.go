package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/quote"
)

var (
	quoteCategory string
	quoteAnswers  string
	quoteFormat   string
)

func init() {
	quoteCmd.Flags().StringVar(&quoteCategory, "category", "", "category id (omit to list categories)")
	quoteCmd.Flags().StringVar(&quoteAnswers, "answers", "", "comma-separated option index per question; - skips a question")
	quoteCmd.Flags().StringVar(&quoteFormat, "format", "text", "output format: text, json or html")
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a set of answers without the wizard",
	Long: `Fetch a category's questions from the content server and price the given
answers. Nothing is emailed and no CRM records are created.

Examples:
  # List categories
  estimate quote

  # Show a category's questions and options
  estimate quote --category kitchens

  # Price option 0 for question 1 and option 1 for question 2
  estimate quote --category kitchens --answers 0,1

  # Render the HTML breakdown used in the notification email
  estimate quote --category kitchens --answers 0,1 --format html`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := content.NewClient(cfg.Content)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return quoteWith(ctx, cmd.OutOrStdout(), src, quote.FormatterFromConfig(cfg.Format))
}

// quoteWith runs the quote command against src.
func quoteWith(ctx context.Context, out io.Writer, src content.Source, f *quote.Formatter) error {
	if quoteCategory == "" {
		home, err := src.FetchHome(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch categories: %w", err)
		}
		return printCategories(out, home)
	}

	data, err := src.FetchCategory(ctx, quoteCategory)
	if err != nil {
		return fmt.Errorf("failed to fetch category %s: %w", quoteCategory, err)
	}
	if quoteAnswers == "" {
		return printQuestions(out, data)
	}

	selections, err := parseAnswers(quoteAnswers)
	if err != nil {
		return err
	}
	est, err := quote.Compute(quoteCategory, data, selections)
	if err != nil {
		return err
	}

	switch quoteFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(est)
	case "html":
		html, err := quote.BreakdownHTML(est, f)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, html)
		return err
	case "text":
		return printEstimate(out, est, f)
	default:
		return fmt.Errorf("unknown format %q", quoteFormat)
	}
}

// parseAnswers turns "0,-,2" into question index -> option index.
func parseAnswers(s string) (map[int]int, error) {
	selections := make(map[int]int)
	for q, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "-" || part == "" {
			continue
		}
		opt, err := strconv.Atoi(part)
		if err != nil || opt < 0 {
			return nil, fmt.Errorf("answer %d: %q is not an option index", q+1, part)
		}
		selections[q] = opt
	}
	return selections, nil
}

func printCategories(out io.Writer, home *content.HomeData) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, c := range home.Categories {
		fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Title)
	}
	return w.Flush()
}

func printQuestions(out io.Writer, data *content.CalculatorData) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for qi, q := range data.Questions {
		fmt.Fprintf(w, "%d. %s\n", qi+1, q.Text)
		for oi, o := range q.Options {
			fmt.Fprintf(w, "  [%d]\t%s\t%s - %s\n", oi, o.ShortDescription, o.MinimumCost, o.MaximumCost)
		}
	}
	return w.Flush()
}

func printEstimate(out io.Writer, est *quote.Estimate, f *quote.Formatter) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if est.CategoryTitle != "" {
		fmt.Fprintf(w, "%s\n\n", est.CategoryTitle)
	}
	for _, li := range est.LineItems {
		fmt.Fprintf(w, "%s\t%s\t%s\n", li.Question, li.Label, f.Range(li.Min, li.Max))
	}
	fmt.Fprintf(w, "\t\t\nEstimate Total\t\t%s\n", f.Range(est.Min, est.Max))
	return w.Flush()
}
