// Package benchmark runs an on-demand comparative throughput benchmark
// across a set of models (§4.5): warmup_runs+num_runs streaming
// completions per model (the warmup_runs ones discarded), under
// the same three-tier throttle the uptime checker uses, yielding one
// TTFT/TPS/cost BenchmarkResult per non-warmup run plus run-level
// percentile statistics.
//
// Grounded on two sources: app/core/benchmark_engine.py for the task
// plan/fan-out/aggregate shape and the exact percentile formula in
// calculate_statistics (linear interpolation between order statistics,
// position = (n-1)*(p/100)); agent/guardrails/chain.go's parallel
// ChainMode for the errgroup fan-out idiom this replaces asyncio.gather
// with — one goroutine per task under errgroup.WithContext, each task
// writing its own pre-sized results slot so a per-task error never
// short-circuits the rest of the sweep (mirrored from that chain's
// "don't let errgroup terminate early, we collect every result
// ourselves" comment).
package benchmark

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/arguslm/arguslm/internal/telemetry"
	"github.com/arguslm/arguslm/metrics2"
	"github.com/arguslm/arguslm/promptpack"
	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/throttle"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ModelTarget is one model entry in a benchmark run.
type ModelTarget struct {
	ModelRowID   uuid.UUID
	ProviderKey  string // provider account id or kind, used as the throttle provider bucket
	Target       provider.Target
}

// Config configures one benchmark run (§4.5's BenchmarkRun config).
type Config struct {
	Models      []ModelTarget
	PromptPack  string
	MaxTokens   int
	NumRuns     int
	WarmupRuns  int
}

func (c Config) withDefaults() Config {
	if c.MaxTokens == 0 {
		c.MaxTokens = 200
	}
	if c.NumRuns == 0 {
		c.NumRuns = 3
	}
	if c.WarmupRuns == 0 {
		c.WarmupRuns = 1
	}
	return c
}

// Result is one non-warmup run's measurement, keyed back to its model.
type Result struct {
	RunID        uuid.UUID
	ModelRowID   uuid.UUID
	TTFT         time.Duration
	TPS          float64
	TPSExcludingTTFT float64
	TotalLatency time.Duration
	InputTokens  int
	OutputTokens int
	EstimatedCostUSD *float64
	Error        string
}

type task struct {
	model    ModelTarget
	isWarmup bool
}

// Run executes config against invokers (one provider.Invoker per
// model's Target.Kind), returning every non-warmup run's Result. A
// per-task panic or invoker error becomes a Result with Error set, not
// a Go error — one failing model never aborts the rest of the sweep,
// matching _error_result's role in the original.
func Run(ctx context.Context, runID uuid.UUID, config Config, invokers map[provider.Kind]provider.Invoker, throttleMgr *throttle.Manager) []Result {
	config = config.withDefaults()
	pack := promptpack.MustGet(config.PromptPack)

	var tasks []task
	for _, m := range config.Models {
		for runIdx := 0; runIdx < config.NumRuns+config.WarmupRuns; runIdx++ {
			tasks = append(tasks, task{model: m, isWarmup: runIdx < config.WarmupRuns})
		}
	}

	ctx, span := telemetry.StartBenchmarkRun(ctx, runID.String(), len(config.Models), config.NumRuns)

	results := make([]*Result, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i] = &Result{RunID: runID, ModelRowID: t.model.ModelRowID, Error: fmt.Sprintf("panic: %v", r)}
				}
			}()
			invoker, ok := invokers[t.model.Target.Kind]
			if !ok {
				results[i] = &Result{RunID: runID, ModelRowID: t.model.ModelRowID, Error: "no invoker wired for provider kind"}
				return nil
			}
			results[i] = runOne(gctx, runID, t.model, pack, config.MaxTokens, invoker, throttleMgr)
			return nil // every failure becomes a Result, never an errgroup error
		})
	}
	_ = g.Wait()

	out := make([]Result, 0, len(tasks))
	errCount := 0
	for i, t := range tasks {
		if results[i].Error != "" {
			errCount++
		}
		if t.isWarmup {
			continue
		}
		out = append(out, *results[i])
	}
	telemetry.EndBenchmarkRun(span, len(out), errCount)
	return out
}

func runOne(ctx context.Context, runID uuid.UUID, model ModelTarget, pack promptpack.Pack, maxTokens int, invoker provider.Invoker, throttleMgr *throttle.Manager) *Result {
	release, err := throttleMgr.Acquire(ctx, model.ProviderKey, model.ModelRowID.String())
	if err != nil {
		return &Result{RunID: runID, ModelRowID: model.ModelRowID, Error: err.Error()}
	}
	defer release()

	collector := &metrics2.Collector{}
	collector.Start()

	req := provider.CompletionRequest{
		Messages:  []provider.Message{{Role: provider.RoleUser, Content: pack.Prompt}},
		MaxTokens: maxTokens,
	}

	stream, err := invoker.CompleteStream(ctx, model.Target, req)
	if err != nil {
		return &Result{RunID: runID, ModelRowID: model.ModelRowID, Error: err.Error()}
	}

	var outputTokens int
	for chunk := range stream {
		if chunk.Err != nil {
			return &Result{RunID: runID, ModelRowID: model.ModelRowID, Error: chunk.Err.Error()}
		}
		if _, ok := metrics2.ExtractChunkContent(chunk.Content); ok {
			collector.RecordToken()
		}
		if chunk.Usage != nil {
			outputTokens = chunk.Usage.OutputTokens
		}
	}

	m := collector.Finalize(model.Target.QualifiedModel(), 0, outputTokens)
	return &Result{
		RunID:            runID,
		ModelRowID:       model.ModelRowID,
		TTFT:             m.TTFT,
		TPS:              m.TPS,
		TPSExcludingTTFT: m.TPSExcludingTTFT,
		TotalLatency:     m.TotalLatency,
		InputTokens:      m.InputTokens,
		OutputTokens:     m.OutputTokens,
		EstimatedCostUSD: m.EstimatedCostUSD,
	}
}

// Percentiles is the p50/p95/p99 summary of one metric across a run's
// results.
type Percentiles struct {
	P50, P95, P99 float64
}

// CalculateStatistics computes p50/p95/p99 over values using linear
// interpolation between order statistics — transcribed exactly from
// calculate_statistics in app/core/benchmark_engine.py, since §8's
// testable properties pin this formula precisely.
func CalculateStatistics(values []float64) Percentiles {
	if len(values) == 0 {
		return Percentiles{}
	}
	ordered := append([]float64(nil), values...)
	sort.Float64s(ordered)

	percentile := func(p float64) float64 {
		if len(ordered) == 1 {
			return ordered[0]
		}
		position := float64(len(ordered)-1) * (p / 100)
		lower := math.Floor(position)
		upper := math.Ceil(position)
		if lower == upper {
			return ordered[int(position)]
		}
		fraction := position - lower
		return ordered[int(lower)] + (ordered[int(upper)]-ordered[int(lower)])*fraction
	}

	return Percentiles{
		P50: percentile(50),
		P95: percentile(95),
		P99: percentile(99),
	}
}
