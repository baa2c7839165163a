// Package config provides configuration loading for the estimator service.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file, then
// ESTIMATOR_* environment variables. See Load for the precedence rules.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Config holds the complete estimator configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Content       ContentConfig       `koanf:"content"`
	SendGrid      SendGridConfig      `koanf:"sendgrid"`
	JobTread      JobTreadConfig      `koanf:"jobtread"`
	Lead          LeadConfig          `koanf:"lead"`
	Session       SessionConfig       `koanf:"session"`
	Format        FormatConfig        `koanf:"format"`
	Events        EventsConfig        `koanf:"events"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// ContentConfig configures the WordPress content fetch layer.
//
// BaseURL points at the plugin's get-calculator-data endpoint; the slug is
// passed as a query parameter.
type ContentConfig struct {
	BaseURL       string            `koanf:"base_url"`
	Timeout       Duration          `koanf:"timeout"`
	Retries       int               `koanf:"retries"`
	RetryBackoff  Duration          `koanf:"retry_backoff"`
	CacheTTL      Duration          `koanf:"cache_ttl"`
	CategorySlugs map[string]string `koanf:"category_slugs"`
	Fallback      FallbackConfig    `koanf:"fallback"`
}

// FallbackConfig controls whether generic copy replaces results/email content
// that could not be fetched.
type FallbackConfig struct {
	Results bool `koanf:"results"`
	Email   bool `koanf:"email"`
}

// SendGridConfig holds email delivery settings.
type SendGridConfig struct {
	APIKey    Secret   `koanf:"api_key"`
	BaseURL   string   `koanf:"base_url"`
	FromEmail string   `koanf:"from_email"`
	FromName  string   `koanf:"from_name"`
	Timeout   Duration `koanf:"timeout"`
	RateLimit float64  `koanf:"rate_limit"` // requests per second
}

// JobTreadConfig holds CRM settings.
type JobTreadConfig struct {
	APIKey         Secret   `koanf:"api_key"`
	URL            string   `koanf:"url"`
	OrganizationID string   `koanf:"organization_id"`
	Timeout        Duration `koanf:"timeout"`
	RateLimit      float64  `koanf:"rate_limit"`
}

// LeadConfig holds lead submission settings.
type LeadConfig struct {
	NotifyEmail          string `koanf:"notify_email"`
	NotifyName           string `koanf:"notify_name"`
	NotificationFromName string `koanf:"notification_from_name"`
	ConfirmationSubject  string `koanf:"confirmation_subject"`
}

// SessionConfig controls in-memory wizard sessions.
type SessionConfig struct {
	IdleTimeout   Duration `koanf:"idle_timeout"`
	SweepInterval Duration `koanf:"sweep_interval"`
}

// FormatConfig controls currency rendering.
type FormatConfig struct {
	Locale         string `koanf:"locale"`
	CurrencySymbol string `koanf:"currency_symbol"`
}

// EventsConfig controls lead event publication.
type EventsConfig struct {
	Enabled       bool   `koanf:"enabled"`
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// LoggingConfig selects log level, encoder and destination.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Output string `koanf:"output"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool    `koanf:"enable_telemetry"`
	Endpoint        string  `koanf:"endpoint"`
	Protocol        string  `koanf:"protocol"` // grpc or http/protobuf
	Insecure        bool    `koanf:"insecure"`
	ServiceName     string  `koanf:"service_name"`
	SamplingRate    float64 `koanf:"sampling_rate"`
}

// DefaultCategorySlugs maps wizard category ids to WordPress calculator slugs.
func DefaultCategorySlugs() map[string]string {
	return map[string]string{
		"kitchens":         "calculator-kitchens",
		"bathrooms":        "calculator-bathrooms",
		"basements":        "calculator-basements",
		"windows":          "calculator-windows",
		"flooring":         "calculator-flooring",
		"home-renovations": "calculator-renovations",
		"structural":       "calculator-structural",
	}
}

// Default returns the configuration used when no file or environment overrides
// are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9090,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Content: ContentConfig{
			BaseURL:       "http://localhost:8080/wp-json/estimate-calculator/v1/get-calculator-data",
			Timeout:       Duration(10 * time.Second),
			Retries:       2,
			RetryBackoff:  Duration(500 * time.Millisecond),
			CacheTTL:      Duration(5 * time.Minute),
			CategorySlugs: DefaultCategorySlugs(),
			Fallback: FallbackConfig{
				Results: true,
				Email:   true,
			},
		},
		SendGrid: SendGridConfig{
			BaseURL:   "https://api.sendgrid.com",
			FromEmail: "info@rpkconstruction.com",
			FromName:  "RPK Construction",
			Timeout:   Duration(30 * time.Second),
			RateLimit: 5,
		},
		JobTread: JobTreadConfig{
			URL:       "https://api.jobtread.com/pave",
			Timeout:   Duration(30 * time.Second),
			RateLimit: 2,
		},
		Lead: LeadConfig{
			NotifyEmail:          "info@rpkconstruction.com",
			NotifyName:           "RPK Construction Marketing",
			NotificationFromName: "RPK Estimate Calculator",
			ConfirmationSubject:  "Got your estimate request 👍 Here's what's next",
		},
		Session: SessionConfig{
			IdleTimeout:   Duration(30 * time.Minute),
			SweepInterval: Duration(time.Minute),
		},
		Format: FormatConfig{
			Locale:         "en-US",
			CurrencySymbol: "$",
		},
		Events: EventsConfig{
			Enabled:       false,
			NATSURL:       "nats://localhost:4222",
			SubjectPrefix: "estimator.lead",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Observability: ObservabilityConfig{
			EnableTelemetry: false,
			Endpoint:        "localhost:4317",
			Protocol:        "grpc",
			Insecure:        true,
			ServiceName:     "estimator",
			SamplingRate:    1.0,
		},
	}
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Any timeout is not positive
//   - Content base URL is missing or not absolute
//   - Retry count is negative
//   - Service name is empty (when telemetry is enabled)
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Content.BaseURL == "" {
		return errors.New("content base url is required")
	}
	u, err := url.Parse(c.Content.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid content base url %q", c.Content.BaseURL)
	}
	if c.Content.Timeout <= 0 {
		return errors.New("content timeout must be positive")
	}
	if c.Content.Retries < 0 {
		return fmt.Errorf("content retries cannot be negative: %d", c.Content.Retries)
	}

	if c.SendGrid.RateLimit <= 0 || c.JobTread.RateLimit <= 0 {
		return errors.New("outbound rate limits must be positive")
	}

	if c.Session.IdleTimeout <= 0 || c.Session.SweepInterval <= 0 {
		return errors.New("session idle timeout and sweep interval must be positive")
	}

	if c.Events.Enabled && c.Events.NATSURL == "" {
		return errors.New("nats url required when events are enabled")
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}
