// Package telemetry wires OpenTelemetry tracing for the estimator.
//
// Spans are exported over OTLP (grpc or http/protobuf) with a parent-based
// ratio sampler. Metrics are not exported here; they are served by Prometheus
// at /metrics.
//
//	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Observability, version), logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	tracer := tel.Tracer("estimator/lead")
//
// Tests use NewTestTelemetry to record spans synchronously.
package telemetry
