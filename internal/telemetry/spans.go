package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/arguslm/arguslm"

var tracer = otel.Tracer(instrumentationName)

// StartProviderCall opens a span around one provider.Invoker call —
// an uptime probe or a benchmark task run. The caller must End the
// returned span (EndProviderCall does so with the call's outcome).
func StartProviderCall(ctx context.Context, providerKind, modelID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "provider.call",
		trace.WithAttributes(
			attribute.String("provider.kind", providerKind),
			attribute.String("provider.model_id", modelID),
		))
}

// EndProviderCall records the outcome of a provider call and ends span.
func EndProviderCall(span trace.Span, outputTokens int, err error) {
	defer span.End()
	span.SetAttributes(attribute.Int("provider.output_tokens", outputTokens))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// StartBenchmarkRun opens a span around one benchmark run's full
// model × run-count sweep (benchmark.Run).
func StartBenchmarkRun(ctx context.Context, runID string, modelCount, numRuns int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "benchmark.run",
		trace.WithAttributes(
			attribute.String("benchmark.run_id", runID),
			attribute.Int("benchmark.model_count", modelCount),
			attribute.Int("benchmark.num_runs", numRuns),
		))
}

// EndBenchmarkRun records the sweep's result count and ends span.
func EndBenchmarkRun(span trace.Span, resultCount, errorCount int) {
	defer span.End()
	span.SetAttributes(
		attribute.Int("benchmark.result_count", resultCount),
		attribute.Int("benchmark.error_count", errorCount),
	)
	if errorCount > 0 {
		span.SetStatus(codes.Error, "one or more benchmark tasks failed")
	}
}
