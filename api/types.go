// Package api holds ArgusLM's HTTP request/response DTOs.
package api

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Providers
// =============================================================================

// ProviderAccountRequest is the POST/PATCH body for a ProviderAccount.
// Credentials is write-only: it never appears in a response.
type ProviderAccountRequest struct {
	Kind        string            `json:"kind"`
	DisplayName string            `json:"display_name"`
	Credentials map[string]string `json:"credentials,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	// QPSLimit, when set and > 0, caps this provider to a request-per-
	// second rate in addition to its concurrency ceiling. Omitted or 0
	// leaves the rate unbounded.
	QPSLimit *float64 `json:"qps_limit,omitempty"`
}

// ProviderAccountResponse is a ProviderAccount with credentials
// stripped — the response never includes them, per §6.3.
type ProviderAccountResponse struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	DisplayName string    `json:"display_name"`
	Enabled     bool      `json:"enabled"`
	QPSLimit    float64   `json:"qps_limit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TestConnectionRequest is the body for POST /providers/test-connection,
// used to validate credentials before a ProviderAccount is created.
type TestConnectionRequest struct {
	Kind        string            `json:"kind"`
	Credentials map[string]string `json:"credentials,omitempty"`
	ModelID     string            `json:"model_id"`
}

// TestConnectionResponse reports the outcome of a connection test or of
// POST /providers/{id}/test.
type TestConnectionResponse struct {
	Success   bool   `json:"success"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// RefreshModelsResponse reports the outcome of POST
// /providers/{id}/refresh-models.
type RefreshModelsResponse struct {
	Discovered int      `json:"discovered"`
	Created    int      `json:"created"`
	ModelIDs   []string `json:"model_ids"`
}

// ProviderCatalogEntry describes one supported provider kind, for
// clients building the provider-creation form.
type ProviderCatalogEntry struct {
	Kind            string `json:"kind"`
	Label           string `json:"label"`
	RequiresAPIKey  bool   `json:"requires_api_key"`
	RequiresBaseURL bool   `json:"requires_base_url"`
	RequiresRegion  bool   `json:"requires_region"`
	DefaultBaseURL  string `json:"default_base_url,omitempty"`
}

// =============================================================================
// Models
// =============================================================================

// ModelRequest is the POST/PATCH body for a Model.
type ModelRequest struct {
	ProviderAccountID    uuid.UUID         `json:"provider_account_id"`
	ModelID              string            `json:"model_id"`
	DisplayName          *string           `json:"display_name,omitempty"`
	EnabledForMonitoring *bool             `json:"enabled_for_monitoring,omitempty"`
	EnabledForBenchmark  *bool             `json:"enabled_for_benchmark,omitempty"`
	Metadata             map[string]any    `json:"metadata,omitempty"`
}

// =============================================================================
// Monitoring
// =============================================================================

// MonitoringConfigRequest is the PATCH body for /monitoring/config.
type MonitoringConfigRequest struct {
	IntervalMinutes *int  `json:"interval_minutes,omitempty"`
	Enabled         *bool `json:"enabled,omitempty"`
	PromptPackID    *string `json:"prompt_pack_id,omitempty"`
}

// RunMonitoringResponse is the response to POST /monitoring/run.
type RunMonitoringResponse struct {
	RunID string `json:"run_id"`
}

// UptimeExportRow is one row of GET /monitoring/uptime/export.
type UptimeExportRow struct {
	ModelName string    `json:"model_name"`
	Provider  string    `json:"provider"`
	Status    string    `json:"status"`
	LatencyMS *float64  `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// =============================================================================
// Benchmarks
// =============================================================================

// BenchmarkRunRequest is the POST /benchmarks body.
type BenchmarkRunRequest struct {
	Name         string      `json:"name"`
	ModelIDs     []uuid.UUID `json:"model_ids"`
	PromptPackID string      `json:"prompt_pack_id"`
	MaxTokens    int         `json:"max_tokens,omitempty"`
	NumRuns      int         `json:"num_runs,omitempty"`
	WarmupRuns   int         `json:"warmup_runs,omitempty"`
}

// BenchmarkRunResponse is the response to a successful POST /benchmarks.
type BenchmarkRunResponse struct {
	RunID string `json:"run_id"`
}

// BenchmarkResultExportRow is one row of GET /benchmarks/{id}/export.
type BenchmarkResultExportRow struct {
	ModelName        string    `json:"model_name"`
	Provider         string    `json:"provider"`
	TTFTMS           float64   `json:"ttft_ms"`
	TPS              float64   `json:"tps"`
	TPSExcludingTTFT float64   `json:"tps_excluding_ttft"`
	TotalLatencyMS   float64   `json:"total_latency_ms"`
	InputTokens      int       `json:"input_tokens"`
	OutputTokens     int       `json:"output_tokens"`
	Error            string    `json:"error,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// BenchmarkDetailResponse is the GET /benchmarks/{id}/results response,
// including the computed per-metric percentile summary.
type BenchmarkDetailResponse struct {
	RunID      uuid.UUID            `json:"run_id"`
	Status     string               `json:"status"`
	Results    []BenchmarkResultDTO `json:"results"`
	Statistics BenchmarkStatistics  `json:"statistics"`
}

// BenchmarkResultDTO mirrors store.BenchmarkResult for API output.
type BenchmarkResultDTO struct {
	ModelID          uuid.UUID `json:"model_id"`
	TTFTMS           float64   `json:"ttft_ms"`
	TPS              float64   `json:"tps"`
	TPSExcludingTTFT float64   `json:"tps_excluding_ttft"`
	TotalLatencyMS   float64   `json:"total_latency_ms"`
	InputTokens      int       `json:"input_tokens"`
	OutputTokens     int       `json:"output_tokens"`
	EstimatedCostUSD *float64  `json:"estimated_cost_usd"`
	Error            string    `json:"error,omitempty"`
}

// BenchmarkStatistics is the run-level p50/p95/p99 summary per metric.
type BenchmarkStatistics struct {
	TTFTMS Percentiles `json:"ttft_ms"`
	TPS    Percentiles `json:"tps"`
}

// Percentiles is a p50/p95/p99 triple.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// =============================================================================
// Alerts
// =============================================================================

// AlertRuleRequest is the POST/PATCH body for an AlertRule.
type AlertRuleRequest struct {
	Name            string         `json:"name"`
	RuleType        string         `json:"rule_type"`
	Enabled         *bool          `json:"enabled,omitempty"`
	TargetModelID   *uuid.UUID     `json:"target_model_id,omitempty"`
	TargetModelName string         `json:"target_model_name,omitempty"`
	Threshold       map[string]any `json:"threshold,omitempty"`
	NotifyEmail     bool           `json:"notify_email,omitempty"`
	NotifyWebhook   bool           `json:"notify_webhook,omitempty"`
}

// UnreadCountResponse is the response to GET /alerts/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}
