// Package content reads wizard content (categories, questions, results copy,
// email template) from the WordPress estimate-calculator plugin.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/fyrsmithlabs/estimator/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Slugs of the singleton calculator posts.
const (
	SlugHome    = "calculator-home"
	SlugResults = "calculator-results"
	SlugEmail   = "calculator-email"
)

const maxResponseSize = 4 << 20

// Source provides wizard content. Implementations must be safe for concurrent use.
type Source interface {
	FetchHome(ctx context.Context) (*HomeData, error)
	FetchCategory(ctx context.Context, categoryID string) (*CalculatorData, error)
	FetchResults(ctx context.Context) (*Results, error)
	FetchEmailTemplate(ctx context.Context) (*EmailTemplate, error)
}

// Client reads calculator posts from the WordPress plugin endpoint
// (GET {baseURL}?slug=...).
type Client struct {
	baseURL    string
	slugs      map[string]string
	fallback   config.FallbackConfig
	retries    int
	backoff    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client. Its timeout is left as given.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithTracer sets the tracer used for fetch spans.
func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) { c.tracer = t }
}

// NewClient creates a content client from config.
func NewClient(cfg config.ContentConfig, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("content base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid content base url: %w", err)
	}

	slugs := cfg.CategorySlugs
	if len(slugs) == 0 {
		slugs = config.DefaultCategorySlugs()
	}
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    cfg.BaseURL,
		slugs:      slugs,
		fallback:   cfg.Fallback,
		retries:    cfg.Retries,
		backoff:    cfg.RetryBackoff.Duration(),
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
		tracer:     otel.Tracer("estimator/content"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Slug returns the calculator slug for a category id.
func (c *Client) Slug(categoryID string) (string, bool) {
	slug, ok := c.slugs[categoryID]
	return slug, ok
}

// envelope is the plugin's response shell. Error responses are WP_Error
// bodies: {code, message, data: {status}}.
type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorData struct {
	Status int `json:"status"`
}

// FetchHome fetches the home post. The first question's options are the
// category list; a post without them is malformed.
func (c *Client) FetchHome(ctx context.Context) (*HomeData, error) {
	data, err := c.fetchCalculator(ctx, SlugHome)
	if err != nil {
		return nil, err
	}
	if len(data.Questions) == 0 || len(data.Questions[0].Options) == 0 {
		return nil, &FetchError{Kind: KindNetwork, Slug: SlugHome, Err: fmt.Errorf("%w: no categories", ErrMalformed)}
	}

	q := data.Questions[0]
	home := &HomeData{
		Headline:   q.Text,
		HelpText:   q.HelpText,
		Categories: make([]Category, 0, len(q.Options)),
	}
	if home.Headline == "" {
		home.Headline = data.Title + " - Professional Estimate Calculator"
	}
	if home.HelpText == "" {
		home.HelpText = defaultHomeHelpText
	}
	for _, opt := range q.Options {
		home.Categories = append(home.Categories, Category{
			ID:            CategoryID(opt.ShortDescription),
			Title:         opt.ShortDescription,
			Description:   categoryDescription(opt.ShortDescription, opt.LongDescription),
			Image:         opt.Image.URL,
			DetailContent: detailContent(opt.ShortDescription, opt.LongDescription),
		})
	}
	return home, nil
}

// FetchCategory fetches a category's calculator post. An id with no slug
// mapping fails with KindNotFound without touching the network.
func (c *Client) FetchCategory(ctx context.Context, categoryID string) (*CalculatorData, error) {
	slug, ok := c.slugs[categoryID]
	if !ok {
		FetchesTotal.WithLabelValues("unknown", KindNotFound.String()).Inc()
		return nil, &FetchError{Kind: KindNotFound, Slug: categoryID, Err: fmt.Errorf("unknown category id %q", categoryID)}
	}
	return c.fetchCalculator(ctx, slug)
}

// FetchResults fetches the results copy, falling back to DefaultResults when
// enabled.
func (c *Client) FetchResults(ctx context.Context) (*Results, error) {
	body, err := c.get(ctx, SlugResults)
	var res *Results
	if err == nil {
		res, err = decodeResults(body)
	}
	if err != nil {
		if !c.fallback.Results {
			return nil, err
		}
		c.noteFallback(ctx, "results", err)
		return DefaultResults(), nil
	}
	return res, nil
}

// FetchEmailTemplate fetches the confirmation email template, falling back to
// DefaultEmailTemplate when enabled.
func (c *Client) FetchEmailTemplate(ctx context.Context) (*EmailTemplate, error) {
	body, err := c.get(ctx, SlugEmail)
	var tmpl *EmailTemplate
	if err == nil {
		tmpl, err = decodeEmailTemplate(body)
	}
	if err != nil {
		if !c.fallback.Email {
			return nil, err
		}
		c.noteFallback(ctx, "email", err)
		return DefaultEmailTemplate(), nil
	}
	return tmpl, nil
}

func (c *Client) noteFallback(ctx context.Context, kind string, err error) {
	FallbacksTotal.WithLabelValues(kind).Inc()
	trace.SpanFromContext(ctx).AddEvent("content.fallback", trace.WithAttributes(attribute.String("kind", kind)))
	c.logger.Warn("serving fallback content", zap.String("kind", kind), zap.Error(err))
}

func (c *Client) fetchCalculator(ctx context.Context, slug string) (*CalculatorData, error) {
	body, err := c.get(ctx, slug)
	if err != nil {
		return nil, err
	}
	env, err := decodeEnvelope(slug, body)
	if err != nil {
		return nil, err
	}
	var data CalculatorData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &FetchError{Kind: KindNetwork, Slug: slug, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return &data, nil
}

// get fetches one slug, retrying transport failures and 5xx responses with
// linear backoff (attempt x backoff).
func (c *Client) get(ctx context.Context, slug string) (body []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "content.fetch", trace.WithAttributes(attribute.String("content.slug", slug)))
	start := time.Now()
	defer func() {
		FetchDuration.WithLabelValues(slug).Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = classify(err).String()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		FetchesTotal.WithLabelValues(slug, result).Inc()
		span.End()
	}()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying content fetch", zap.String("slug", slug), zap.Int("attempt", attempt), zap.Error(lastErr))
			select {
			case <-time.After(time.Duration(attempt) * c.backoff):
			case <-ctx.Done():
				return nil, &FetchError{Kind: KindNetwork, Slug: slug, Err: ctx.Err()}
			}
		}

		body, err := c.do(ctx, slug)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}

	return nil, toFetchError(slug, lastErr)
}

func (c *Client) do(ctx context.Context, slug string) ([]byte, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("slug", slug)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &retryableError{err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &retryableError{status: resp.StatusCode, err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &retryableError{status: resp.StatusCode, err: fmt.Errorf("server error (%d)", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &FetchError{Kind: KindNotFound, Slug: slug, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &FetchError{Kind: KindNetwork, Slug: slug, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if ce := c.logger.Check(logging.TraceLevel, "content response"); ce != nil {
		ce.Write(zap.String("slug", slug), zap.ByteString("body", body))
	}
	return body, nil
}

func toFetchError(slug string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	status := 0
	var re *retryableError
	if errors.As(err, &re) {
		status = re.status
	}
	return &FetchError{Kind: KindNetwork, Slug: slug, Status: status, Err: err}
}

func classify(err error) Kind {
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindNetwork
}

// decodeEnvelope rejects success:false bodies, mapping a 404 status in the
// error data to KindNotFound.
func decodeEnvelope(slug string, body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &FetchError{Kind: KindNetwork, Slug: slug, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	if env.Success {
		return &env, nil
	}

	var ed errorData
	_ = json.Unmarshal(env.Data, &ed)
	kind := KindNetwork
	if ed.Status == http.StatusNotFound {
		kind = KindNotFound
	}
	msg := env.Message
	if msg == "" {
		msg = "success=false"
	}
	return nil, &FetchError{Kind: kind, Slug: slug, Status: ed.Status, Err: errors.New(msg)}
}

func decodeResults(body []byte) (*Results, error) {
	if _, err := decodeEnvelope(SlugResults, body); err != nil {
		return nil, err
	}
	var raw struct {
		Headline    string `json:"calculator_results_headline"`
		Description string `json:"calculator_results_description"`
		FooterText  string `json:"calculator_results_footer_text"`
		Disclaimer  string `json:"calculator_results_disclaimer"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &FetchError{Kind: KindNetwork, Slug: SlugResults, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return &Results{
		Headline:    raw.Headline,
		Description: raw.Description,
		FooterText:  raw.FooterText,
		Disclaimer:  raw.Disclaimer,
	}, nil
}

func decodeEmailTemplate(body []byte) (*EmailTemplate, error) {
	if _, err := decodeEnvelope(SlugEmail, body); err != nil {
		return nil, err
	}
	var raw struct {
		Body        string `json:"calculator_email_body"`
		Subject     string `json:"email_subject"`
		CalcSubject string `json:"calculator_email_subject"`
		HTML        string `json:"email_html"`
		CalcHTML    string `json:"calculator_email_html"`
		Text        string `json:"email_text"`
		CalcText    string `json:"calculator_email_text"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &FetchError{Kind: KindNetwork, Slug: SlugEmail, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return &EmailTemplate{
		Subject:  firstNonEmpty(raw.Subject, raw.CalcSubject, defaultEmailSubject),
		HTMLBody: firstNonEmpty(raw.Body, raw.HTML, raw.CalcHTML),
		TextBody: firstNonEmpty(raw.Text, raw.CalcText),
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
