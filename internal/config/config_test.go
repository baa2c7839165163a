package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10*time.Second, cfg.Content.Timeout.Duration())
	assert.Equal(t, 2, cfg.Content.Retries)
	assert.Equal(t, 5*time.Minute, cfg.Content.CacheTTL.Duration())
	assert.True(t, cfg.Content.Fallback.Results)
	assert.True(t, cfg.Content.Fallback.Email)
	assert.Len(t, cfg.Content.CategorySlugs, 7)
	assert.Equal(t, "info@rpkconstruction.com", cfg.SendGrid.FromEmail)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, "shutdown timeout"},
		{"missing base url", func(c *Config) { c.Content.BaseURL = "" }, "base url is required"},
		{"relative base url", func(c *Config) { c.Content.BaseURL = "/wp-json" }, "invalid content base url"},
		{"content timeout", func(c *Config) { c.Content.Timeout = 0 }, "content timeout"},
		{"negative retries", func(c *Config) { c.Content.Retries = -1 }, "retries cannot be negative"},
		{"rate limit", func(c *Config) { c.JobTread.RateLimit = 0 }, "rate limits"},
		{"session timeout", func(c *Config) { c.Session.IdleTimeout = 0 }, "session"},
		{"events without url", func(c *Config) {
			c.Events.Enabled = true
			c.Events.NATSURL = ""
		}, "nats url"},
		{"telemetry without service", func(c *Config) {
			c.Observability.EnableTelemetry = true
			c.Observability.ServiceName = ""
		}, "service name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecret_Redaction(t *testing.T) {
	s := Secret("SG.very-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.NotContains(t, fmt.Sprintf("%#v", s), "very-secret")
	assert.Equal(t, "SG.very-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(struct {
		Key Secret `json:"key"`
	}{s})
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "very-secret"))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestSecret_UnmarshalTextRejectsPlaceholder(t *testing.T) {
	var s Secret
	assert.ErrorIs(t, s.UnmarshalText([]byte("[REDACTED]")), ErrRedactedSecret)
	require.NoError(t, s.UnmarshalText([]byte("real")))
	assert.Equal(t, "real", s.Value())
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("750ms")))
	assert.Equal(t, 750*time.Millisecond, d.Duration())
	assert.Equal(t, "750ms", d.String())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
