// Package uptime implements the §4.3/§4.4 availability probe: one
// lightweight completion call per configured model, timed and scored
// into a store.UptimeCheck row. A check never raises — every failure
// mode (timeout, auth failure, transport error) is captured as a
// failed, non-healthy row with the raw error text, never propagated as
// a Go error, so one bad provider can never abort a monitoring sweep.
//
// Grounded on the teacher's llm/health_monitor.go: same
// never-panics-on-a-single-provider posture (HealthMonitor.UpdateProbe
// records failures into a map rather than erroring the caller), scaled
// down from that file's aggregate health-score bookkeeping to a single
// per-call measurement since ArgusLM keeps its own historical rows in
// store.UptimeCheck rather than an in-memory score map.
package uptime

import (
	"context"
	"errors"
	"time"

	"github.com/arguslm/arguslm/apperr"
	"github.com/arguslm/arguslm/internal/telemetry"
	"github.com/arguslm/arguslm/metrics2"
	"github.com/arguslm/arguslm/promptpack"
	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/throttle"
)

// Result is the outcome of a single uptime probe, independent of how
// the caller chooses to persist it (store.UptimeCheck maps onto this
// directly).
type Result struct {
	Healthy      bool
	TTFT         time.Duration
	TPS          float64
	TotalLatency time.Duration
	InputTokens  int
	OutputTokens int
	ErrorMessage string
	CheckedAt    time.Time
}

// Target is the minimal (provider target, model id) pair a check needs;
// callers in the monitoring/API layers build this from their own
// store.Model/store.ProviderAccount join.
type Target struct {
	Provider provider.Target
	ModelID  string
}

// Check runs one streaming completion against target using promptID's
// text (a health-check-profile prompt by default), acquiring a
// throttle slot first so a monitoring sweep never exceeds the
// configured concurrency ceiling. It never returns an error: every
// failure is folded into Result.
func Check(ctx context.Context, target Target, promptID string, invoker provider.Invoker, throttleMgr *throttle.Manager) (result Result) {
	now := time.Now()
	pack := promptpack.MustGet(promptID)

	release, err := throttleMgr.Acquire(ctx, string(target.Provider.Kind), target.ModelID)
	if err != nil {
		return Result{Healthy: false, ErrorMessage: err.Error(), CheckedAt: now}
	}
	defer release()

	ctx, span := telemetry.StartProviderCall(ctx, string(target.Provider.Kind), target.ModelID)
	defer func() {
		var spanErr error
		if !result.Healthy {
			spanErr = errors.New(result.ErrorMessage)
		}
		telemetry.EndProviderCall(span, result.OutputTokens, spanErr)
	}()

	collector := &metrics2.Collector{}
	collector.Start()

	req := provider.CompletionRequest{
		Messages:  []provider.Message{{Role: provider.RoleUser, Content: pack.Prompt}},
		MaxTokens: 100,
		Timeout:   15 * time.Second,
	}

	stream, err := invoker.CompleteStream(ctx, target.Provider, req)
	if err != nil {
		return resultFromError(err, now)
	}

	var outputTokens int
	for chunk := range stream {
		if chunk.Err != nil {
			return resultFromError(chunk.Err, now)
		}
		if content, ok := metrics2.ExtractChunkContent(chunk.Content); ok {
			_ = content
			collector.RecordToken()
		}
		if chunk.Usage != nil {
			outputTokens = chunk.Usage.OutputTokens
		}
	}

	metrics := collector.Finalize(target.ModelID, 0, outputTokens)
	return Result{
		Healthy:      true,
		TTFT:         metrics.TTFT,
		TPS:          metrics.TPS,
		TotalLatency: metrics.TotalLatency,
		InputTokens:  metrics.InputTokens,
		OutputTokens: metrics.OutputTokens,
		CheckedAt:    now,
	}
}

func resultFromError(err error, checkedAt time.Time) Result {
	msg := err.Error()
	if appErr, ok := err.(*apperr.Error); ok {
		msg = appErr.Message
	}
	return Result{Healthy: false, ErrorMessage: msg, CheckedAt: checkedAt}
}
