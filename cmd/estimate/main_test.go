package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/estimator/internal/content"
	"github.com/fyrsmithlabs/estimator/internal/quote"
)

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
		assert.NotEmpty(t, cmd.Short, cmd.Name())
	}
	for _, want := range []string{"wizard", "quote", "health", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
	assert.NotNil(t, wizardCmd.Flags().Lookup("category"))
	assert.NotNil(t, quoteCmd.Flags().Lookup("answers"))
}

func TestParseAnswers(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    map[int]int
		wantErr bool
	}{
		{name: "all answered", in: "0,1", want: map[int]int{0: 0, 1: 1}},
		{name: "skipped question", in: "2, -, 0", want: map[int]int{0: 2, 2: 0}},
		{name: "not a number", in: "0,x", wantErr: true},
		{name: "negative", in: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnswers(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type stubSource struct{}

func (stubSource) FetchHome(context.Context) (*content.HomeData, error) {
	return &content.HomeData{Categories: []content.Category{{ID: "kitchens", Title: "Kitchens"}}}, nil
}

func (stubSource) FetchCategory(_ context.Context, id string) (*content.CalculatorData, error) {
	if id != "kitchens" {
		return nil, &content.FetchError{Kind: content.KindNotFound, Slug: id, Err: errors.New("unknown")}
	}
	return &content.CalculatorData{
		Title: "Kitchens",
		Questions: []content.Question{
			{Text: "Cabinets", Options: []content.Option{
				{ShortDescription: "Stock", MinimumCost: "1000", MaximumCost: "2000"},
				{ShortDescription: "Custom", MinimumCost: "3000", MaximumCost: "5000"},
			}},
			{Text: "Counters", Options: []content.Option{
				{ShortDescription: "Laminate", MinimumCost: "500", MaximumCost: "500"},
				{ShortDescription: "Quartz", MinimumCost: "800", MaximumCost: "1200"},
			}},
		},
	}, nil
}

func (stubSource) FetchResults(context.Context) (*content.Results, error) { return nil, nil }

func (stubSource) FetchEmailTemplate(context.Context) (*content.EmailTemplate, error) {
	return nil, nil
}

func setQuoteFlags(t *testing.T, category, answers, format string) {
	t.Helper()
	prevC, prevA, prevF := quoteCategory, quoteAnswers, quoteFormat
	quoteCategory, quoteAnswers, quoteFormat = category, answers, format
	t.Cleanup(func() { quoteCategory, quoteAnswers, quoteFormat = prevC, prevA, prevF })
}

func TestQuote(t *testing.T) {
	f := quote.NewFormatter("en-US", "$")

	t.Run("lists categories", func(t *testing.T) {
		setQuoteFlags(t, "", "", "text")
		var out bytes.Buffer
		require.NoError(t, quoteWith(context.Background(), &out, stubSource{}, f))
		assert.Contains(t, out.String(), "kitchens")
		assert.Contains(t, out.String(), "Kitchens")
	})

	t.Run("lists questions", func(t *testing.T) {
		setQuoteFlags(t, "kitchens", "", "text")
		var out bytes.Buffer
		require.NoError(t, quoteWith(context.Background(), &out, stubSource{}, f))
		assert.Contains(t, out.String(), "2. Counters")
		assert.Contains(t, out.String(), "Quartz")
	})

	t.Run("prices answers", func(t *testing.T) {
		setQuoteFlags(t, "kitchens", "0,1", "text")
		var out bytes.Buffer
		require.NoError(t, quoteWith(context.Background(), &out, stubSource{}, f))
		assert.Contains(t, out.String(), "Estimate Total")
		assert.Contains(t, out.String(), "$1,800 - $3,200")
	})

	t.Run("json", func(t *testing.T) {
		setQuoteFlags(t, "kitchens", "1,-", "json")
		var out bytes.Buffer
		require.NoError(t, quoteWith(context.Background(), &out, stubSource{}, f))
		var est quote.Estimate
		require.NoError(t, json.Unmarshal(out.Bytes(), &est))
		assert.Equal(t, int64(3000), est.Min)
		assert.Equal(t, int64(5000), est.Max)
		assert.Len(t, est.LineItems, 1)
	})

	t.Run("html", func(t *testing.T) {
		setQuoteFlags(t, "kitchens", "0,0", "html")
		var out bytes.Buffer
		require.NoError(t, quoteWith(context.Background(), &out, stubSource{}, f))
		assert.True(t, strings.Contains(out.String(), "<table"))
	})

	t.Run("unknown category", func(t *testing.T) {
		setQuoteFlags(t, "pools", "0", "text")
		err := quoteWith(context.Background(), &bytes.Buffer{}, stubSource{}, f)
		assert.ErrorIs(t, err, content.ErrNotFound)
	})

	t.Run("unknown format", func(t *testing.T) {
		setQuoteFlags(t, "kitchens", "0,0", "yaml")
		assert.Error(t, quoteWith(context.Background(), &bytes.Buffer{}, stubSource{}, f))
	})
}

func TestRunHealth(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr bool
		want    string
	}{
		{name: "ok", status: http.StatusOK, body: `{"status":"ok","version":"1.0.0","sessions":2}`, want: "Active Sessions: 2"},
		{name: "degraded", status: http.StatusOK, body: `{"status":"degraded","checks":{"nats":"disconnected"}}`, wantErr: true, want: "nats: disconnected"},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			prev := serverURL
			serverURL = srv.URL
			defer func() { serverURL = prev }()

			var out bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&out)
			err := runHealth(cmd, nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out.String(), tt.want)
		})
	}
}
