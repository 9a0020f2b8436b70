// Package telemetry wraps OpenTelemetry SDK initialization, giving
// ArgusLM a centralized TracerProvider and MeterProvider. When
// telemetry is disabled, it falls back to noop implementations and
// connects to no external service.
package telemetry
