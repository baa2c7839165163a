package http

import (
	"github.com/fyrsmithlabs/estimator/internal/quote"
	"github.com/fyrsmithlabs/estimator/internal/session"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version,omitempty"`
	Sessions int               `json:"sessions"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// CreateSessionRequest is the request body for POST /api/v1/sessions.
// Category optionally opens a category straight away, as a
// calculator-category link does.
type CreateSessionRequest struct {
	Category string `json:"category"`
}

// OpenCategoryRequest is the request body for POST .../category. CategoryID
// is an exact id; Ref also matches a dashed title.
type OpenCategoryRequest struct {
	CategoryID string `json:"categoryId"`
	Ref        string `json:"ref"`
}

// SelectRequest is the request body for POST .../select.
type SelectRequest struct {
	Option *int `json:"option"`
}

// NextResponse is the response body for POST .../next.
type NextResponse struct {
	Transition string       `json:"transition"`
	View       session.View `json:"view"`
}

// EstimateResponse is the response body for GET .../estimate.
type EstimateResponse struct {
	Estimate  *quote.Estimate `json:"estimate"`
	Total     string          `json:"total"`
	LineItems []FormattedItem `json:"formattedLineItems"`
}

// FormattedItem is a line item with its range rendered as currency.
type FormattedItem struct {
	Label string `json:"label"`
	Range string `json:"range"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	View   *session.View     `json:"view,omitempty"`
}
