package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/estimator/internal/config"
	"github.com/fyrsmithlabs/estimator/internal/lead"
	"github.com/fyrsmithlabs/estimator/internal/session"
	"github.com/fyrsmithlabs/estimator/internal/telemetry"
)

func TestTracingMiddleware(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	fx := &stubEffects{}
	mgr := session.NewManager(stubSource{}, lead.NewOrchestrator(fx, fx, fx), config.Default().Session)
	server, err := NewServer(mgr, zap.NewNop(), nil,
		WithRegistry(prometheus.NewRegistry()),
		WithTracer(tel.Tracer("test")),
	)
	require.NoError(t, err)

	id := mgr.Create().SessionID

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id, nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	server.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	name := "HTTP GET /api/v1/sessions/:id"
	tel.AssertSpanExists(t, name)
	tel.AssertSpanAttribute(t, name, "session.id", id)
	tel.AssertSpanAttribute(t, name, "http.response.status_code", int64(200))

	span := tel.SpanByName(name)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String())
	assert.Equal(t, codes.Unset, span.Status().Code)
}
