package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type bufferSyncer struct{ bytes.Buffer }

func (b *bufferSyncer) Sync() error { return nil }

func newBufferLogger(t *testing.T) (*Logger, *bufferSyncer) {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false
	cfg.Caller.Enabled = false

	buf := &bufferSyncer{}
	core, err := newCore(cfg, buf)
	require.NoError(t, err)
	return newFromCore(core, cfg), buf
}

func TestRedactingEncoder_CallSiteFields(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.Info(context.Background(), "sendgrid request",
		zap.String("authorization", "Bearer SG.abcdefghijklmnop"),
		zap.String("note", "key is SG.abcdefghijklmnop"),
		zap.String("category", "kitchens"),
	)

	out := buf.String()
	assert.NotContains(t, out, "SG.abcdefghijklmnop")
	assert.Contains(t, out, `"authorization":"[REDACTED]"`)
	assert.Contains(t, out, `"note":"[REDACTED:pattern]"`)
	assert.Contains(t, out, `"category":"kitchens"`)
}

func TestRedactingEncoder_WithFields(t *testing.T) {
	logger, buf := newBufferLogger(t)

	logger.With(zap.String("api_key", "jt-secret")).Info(context.Background(), "crm call")

	assert.NotContains(t, buf.String(), "jt-secret")
	assert.Contains(t, buf.String(), `"api_key":"[REDACTED]"`)
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	base := newEncoder("json")
	enc, err := NewRedactingEncoder(base, RedactionConfig{Enabled: false})
	require.NoError(t, err)

	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "m"}, []zapcore.Field{zap.String("token", "visible")})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "visible")
}

func TestNewRedactingEncoder_RejectsBadPatterns(t *testing.T) {
	_, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: true, Patterns: []string{"("}})
	assert.Error(t, err)

	_, err = NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: true, Patterns: []string{strings.Repeat("a", maxPatternLen+1)}})
	assert.Error(t, err)
}

func TestSecretField(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "configured", Secret("sendgrid", config.Secret("SG.1234567890abc")))
	tl.AssertNoSecrets(t)
}

func TestMaskedEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", MaskedEmail("email", "jane@example.com").String)
	assert.Equal(t, "***", MaskedEmail("email", "not-an-email").String)
	assert.Equal(t, "***", MaskedEmail("email", "@example.com").String)
	assert.Equal(t, "[REDACTED:5]", RedactedString("phone", "12345").String)
}
