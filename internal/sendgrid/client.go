// Package sendgrid sends HTML email through the SendGrid v3 mail/send API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/fyrsmithlabs/estimator/internal/logging"
)

const (
	sendPath        = "/v3/mail/send"
	maxErrorBody    = 4 << 10
	defaultTimeout  = 30 * time.Second
	defaultBurst    = 1
	contentTypeHTML = "text/html"
)

// ErrMissingAPIKey is returned by NewClient when no API key is configured.
var ErrMissingAPIKey = errors.New("sendgrid api key required")

// Message is a single-recipient HTML email.
type Message struct {
	ToEmail   string
	ToName    string
	FromEmail string
	FromName  string
	Subject   string
	HTML      string
}

// APIError is a non-2xx response from SendGrid.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sendgrid: status %d: %s", e.StatusCode, e.Body)
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To      []address `json:"to"`
	Subject string    `json:"subject"`
}

type contentPart struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Content          []contentPart     `json:"content"`
}

// Client is a rate-limited SendGrid client. It never retries: a resend
// would deliver a duplicate email.
type Client struct {
	apiKey     config.Secret
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client from config.
func NewClient(cfg config.SendGridConfig, opts ...Option) (*Client, error) {
	if !cfg.APIKey.IsSet() {
		return nil, ErrMissingAPIKey
	}
	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout.Duration()
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, defaultBurst),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger.Debug("sendgrid client configured", zap.String("base_url", c.baseURL), logging.Secret("api_key", c.apiKey))
	return c, nil
}

// Send delivers msg. Any 2xx response is success.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return errors.New("sendgrid: recipient email required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(mailRequest{
		Personalizations: []personalization{{
			To:      []address{{Email: msg.ToEmail, Name: msg.ToName}},
			Subject: msg.Subject,
		}},
		From:    address{Email: msg.FromEmail, Name: msg.FromName},
		Content: []contentPart{{Type: contentTypeHTML, Value: msg.HTML}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey.Value())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Debug("email sent",
		logging.MaskedEmail("to", msg.ToEmail),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
