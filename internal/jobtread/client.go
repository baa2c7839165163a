// Package jobtread creates CRM accounts and contacts through the JobTread
// Pave API.
package jobtread

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/logging"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultBurst    = 1
	maxResponseSize = 1 << 20
	accountType     = "customer"
	unassigned      = "Unassigned"
)

var (
	// ErrMissingAPIKey is returned by NewClient when no grant key is configured.
	ErrMissingAPIKey = errors.New("jobtread api key required")
	// ErrMissingOrganization is returned by NewClient when no organization id is configured.
	ErrMissingOrganization = errors.New("jobtread organization id required")
	// ErrNoAccountID is returned when createAccount succeeds without an id.
	ErrNoAccountID = errors.New("jobtread response has no account id")
)

// APIError is a non-2xx response from Pave.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jobtread pave: status %d: %s", e.StatusCode, e.Body)
}

// fields is a Pave selection or argument object.
type fields map[string]any

// Client is a rate-limited Pave client implementing lead.CRM.
type Client struct {
	apiKey         config.Secret
	url            string
	organizationID string
	httpClient     *http.Client
	limiter        *rate.Limiter
	logger         *zap.Logger

	// Accounts created for an email whose contact creation failed, reused on retry.
	mu       sync.Mutex
	accounts map[string]string
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
func NewClient(cfg config.JobTreadConfig, opts ...Option) (*Client, error) {
	if !cfg.APIKey.IsSet() {
		return nil, ErrMissingAPIKey
	}
	if cfg.OrganizationID == "" {
		return nil, ErrMissingOrganization
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
		apiKey:         cfg.APIKey,
		url:            cfg.URL,
		organizationID: cfg.OrganizationID,
		httpClient:     &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(limit, defaultBurst),
		logger:         zap.NewNop(),
		accounts:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger.Debug("jobtread client configured", zap.String("url", c.url), logging.Secret("api_key", c.apiKey))
	return c, nil
}

var _ lead.CRM = (*Client)(nil)

// CreateAccountAndContact creates a customer account for the lead, then a
// contact on it carrying email, phone and ZIP. It returns the account id.
// If the contact cannot be created the account id is kept so the next call
// for the same email does not create a second account.
func (c *Client) CreateAccountAndContact(ctx context.Context, contact lead.Contact) (string, error) {
	key := strings.ToLower(contact.Email)

	c.mu.Lock()
	accountID, ok := c.accounts[key]
	c.mu.Unlock()

	if !ok {
		var err error
		accountID, err = c.createAccount(ctx, contact.Name)
		if err != nil {
			return "", fmt.Errorf("create account: %w", err)
		}
		c.mu.Lock()
		c.accounts[key] = accountID
		c.mu.Unlock()
	}

	if err := c.createContact(ctx, accountID, contact); err != nil {
		return "", fmt.Errorf("create contact on account %s: %w", accountID, err)
	}

	c.mu.Lock()
	delete(c.accounts, key)
	c.mu.Unlock()

	c.logger.Info("jobtread account and contact created",
		zap.String("account_id", accountID),
		logging.MaskedEmail("email", contact.Email),
	)
	return accountID, nil
}

func (c *Client) createAccount(ctx context.Context, name string) (string, error) {
	query := fields{
		"createAccount": fields{
			"$": fields{
				"organizationId": c.organizationID,
				"name":           name,
				"type":           accountType,
				"customFieldValues": fields{
					"Project Estimator": unassigned,
					"Project Manager":   unassigned,
				},
			},
			"createdAccount": fields{
				"id":        fields{},
				"name":      fields{},
				"createdAt": fields{},
				"type":      fields{},
			},
		},
	}

	var out struct {
		CreateAccount struct {
			CreatedAccount struct {
				ID string `json:"id"`
			} `json:"createdAccount"`
		} `json:"createAccount"`
	}
	if err := c.do(ctx, query, &out); err != nil {
		return "", err
	}
	if out.CreateAccount.CreatedAccount.ID == "" {
		return "", ErrNoAccountID
	}
	return out.CreateAccount.CreatedAccount.ID, nil
}

func (c *Client) createContact(ctx context.Context, accountID string, contact lead.Contact) error {
	query := fields{
		"createContact": fields{
			"$": fields{
				"accountId": accountID,
				"name":      contact.Name,
				"customFieldValues": fields{
					"Email": contact.Email,
					"Phone": contact.Phone,
					"Zip":   contact.Zip,
				},
			},
			"createdContact": fields{
				"id":   fields{},
				"name": fields{},
			},
		},
	}
	return c.do(ctx, query, nil)
}

// do posts {"query": query} and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, query fields, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(fields{"query": query})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey.Value())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pave request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
