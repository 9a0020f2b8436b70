// Package metrics2 computes the per-call timing and cost metrics spec
// §4.2/§9 require of every uptime check and benchmark task: TTFT, TPS
// with and without TTFT, total latency, and an estimated USD cost.
//
// Named metrics2 (rather than metrics) to avoid colliding with
// internal/metrics, the Prometheus exporter package kept from the
// teacher — this package has nothing to do with Prometheus; it is a
// pure calculator transliterated from app/core/metrics.py.
package metrics2

import "time"

// Collector measures one completion call's timing from Start to
// Finalize. It is not safe for concurrent use by multiple goroutines —
// one Collector per in-flight call, matching the original's per-task
// instantiation.
type Collector struct {
	startTime         time.Time
	ttftTime          time.Time
	firstTokenRecorded bool
	tokenCount        int
}

// Start begins timing. Call once per completion attempt.
func (c *Collector) Start() {
	c.startTime = time.Now()
	c.ttftTime = time.Time{}
	c.firstTokenRecorded = false
	c.tokenCount = 0
}

// RecordToken registers one content-bearing chunk. Empty content (a
// role-only or metadata-only chunk) must not be passed here — callers
// extract content with ExtractChunkContent first and only call
// RecordToken when it returns non-empty.
func (c *Collector) RecordToken() {
	if !c.firstTokenRecorded {
		c.ttftTime = time.Now()
		c.firstTokenRecorded = true
	}
	c.tokenCount++
}

// Result is the finalized metric set for one completion call.
type Result struct {
	TTFT              time.Duration
	TPS               float64
	TPSExcludingTTFT  float64
	TotalLatency      time.Duration
	InputTokens       int
	OutputTokens      int
	EstimatedCostUSD  *float64
}

// Finalize stops timing and computes the result set. inputTokens and
// outputTokens, when the provider reported usage, take precedence over
// the collector's own chunk count (mirroring the original's
// "output_tokens or token_count" fallback). modelID, when non-empty, is
// used to look up per-token pricing for EstimatedCostUSD.
func (c *Collector) Finalize(modelID string, inputTokens, outputTokens int) Result {
	end := time.Now()
	if c.startTime.IsZero() {
		return Result{}
	}

	if outputTokens == 0 {
		outputTokens = c.tokenCount
	}

	totalLatency := end.Sub(c.startTime)

	var ttft time.Duration
	if c.firstTokenRecorded {
		ttft = c.ttftTime.Sub(c.startTime)
	} else {
		// Non-streaming call, or a stream that yielded no content
		// tokens: TTFT collapses to the whole call's latency.
		ttft = totalLatency
	}

	totalSeconds := totalLatency.Seconds()
	var tps float64
	if totalSeconds > 0 {
		tps = float64(outputTokens) / totalSeconds
	}

	generationSeconds := totalSeconds - ttft.Seconds()
	if generationSeconds < 0 {
		generationSeconds = 0
	}
	var tpsExcludingTTFT float64
	if generationSeconds > 0 {
		tpsExcludingTTFT = float64(outputTokens) / generationSeconds
	}

	result := Result{
		TTFT:             ttft,
		TPS:              tps,
		TPSExcludingTTFT: tpsExcludingTTFT,
		TotalLatency:     totalLatency,
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
	}
	if modelID != "" {
		if cost, ok := EstimateCost(modelID, inputTokens, outputTokens); ok {
			result.EstimatedCostUSD = &cost
		}
	}
	return result
}
