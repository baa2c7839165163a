package http

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/estimator/internal/logging"
)

// tracingMiddleware starts a server span per request, continuing any W3C
// trace context sent by the caller, and puts the request id on the context.
func tracingMiddleware(tracer trace.Tracer) echo.MiddlewareFunc {
	prop := propagation.TraceContext{}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := prop.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			ctx, span := tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, c.Path()),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(req.Method),
					semconv.HTTPRoute(c.Path()),
				),
			)
			defer span.End()

			if id := c.Response().Header().Get(echo.HeaderXRequestID); logging.ValidID(id) {
				ctx = logging.WithRequestID(ctx, id)
			}
			if sid := c.Param("id"); logging.ValidID(sid) {
				ctx = logging.WithSessionID(ctx, sid)
				span.SetAttributes(attribute.String("session.id", sid))
			}
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			span.SetAttributes(semconv.HTTPResponseStatusCode(status))
			if status >= 500 {
				span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
			}
			return nil
		}
	}
}
