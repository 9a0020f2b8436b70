package benchmark

import (
	"context"
	"errors"
	"testing"

	"github.com/arguslm/arguslm/promptpack"
	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/throttle"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct{ err error }

func (f *fakeInvoker) Complete(ctx context.Context, target provider.Target, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	return nil, errors.New("not used by Run")
}

func (f *fakeInvoker) CompleteStream(ctx context.Context, target provider.Target, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan provider.StreamChunk, 2)
	ch <- provider.StreamChunk{Content: "hi"}
	ch <- provider.StreamChunk{Content: "!", Usage: &provider.Usage{OutputTokens: 2}}
	close(ch)
	return ch, nil
}

func TestRun_WarmupRunsExcludedFromResults(t *testing.T) {
	runID := uuid.New()
	modelID := uuid.New()
	config := Config{
		Models:     []ModelTarget{{ModelRowID: modelID, ProviderKey: "openai", Target: provider.Target{Kind: provider.KindOpenAI, ModelID: "gpt-4o"}}},
		PromptPack: promptpack.HealthCheck,
		NumRuns:    3,
		WarmupRuns: 1,
	}
	invokers := map[provider.Kind]provider.Invoker{provider.KindOpenAI: &fakeInvoker{}}
	throttleMgr := throttle.NewManager(throttle.DefaultProfile())

	results := Run(t.Context(), runID, config, invokers, throttleMgr)

	require.Len(t, results, 3) // warmup run excluded from persisted results, not subtracted from num_runs
	for _, r := range results {
		assert.Equal(t, runID, r.RunID)
		assert.Equal(t, modelID, r.ModelRowID)
		assert.Empty(t, r.Error)
		assert.Equal(t, 2, r.OutputTokens)
	}
}

func TestRun_MissingInvoker_YieldsErrorResultNotPanic(t *testing.T) {
	runID := uuid.New()
	config := Config{
		Models:     []ModelTarget{{ModelRowID: uuid.New(), ProviderKey: "anthropic", Target: provider.Target{Kind: provider.KindAnthropic, ModelID: "claude"}}},
		PromptPack: promptpack.HealthCheck,
		NumRuns:    1,
	}
	throttleMgr := throttle.NewManager(throttle.DefaultProfile())

	results := Run(t.Context(), runID, config, map[provider.Kind]provider.Invoker{}, throttleMgr)

	require.Len(t, results, 1)
	assert.Equal(t, "no invoker wired for provider kind", results[0].Error)
}

func TestRun_InvokerStreamError_YieldsErrorResult(t *testing.T) {
	runID := uuid.New()
	config := Config{
		Models:     []ModelTarget{{ModelRowID: uuid.New(), ProviderKey: "openai", Target: provider.Target{Kind: provider.KindOpenAI, ModelID: "gpt-4o"}}},
		PromptPack: promptpack.HealthCheck,
		NumRuns:    1,
	}
	invokers := map[provider.Kind]provider.Invoker{provider.KindOpenAI: &fakeInvoker{err: errors.New("rate limited")}}
	throttleMgr := throttle.NewManager(throttle.DefaultProfile())

	results := Run(t.Context(), runID, config, invokers, throttleMgr)

	require.Len(t, results, 1)
	assert.Equal(t, "rate limited", results[0].Error)
}

func TestCalculateStatistics_LinearInterpolation(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	stats := CalculateStatistics(values)

	assert.InDelta(t, 30, stats.P50, 0.001)
	assert.InDelta(t, 48, stats.P95, 0.001)
	assert.InDelta(t, 49.6, stats.P99, 0.001)
}

func TestCalculateStatistics_Empty(t *testing.T) {
	assert.Equal(t, Percentiles{}, CalculateStatistics(nil))
}

func TestCalculateStatistics_SingleValue(t *testing.T) {
	stats := CalculateStatistics([]float64{42})
	assert.Equal(t, Percentiles{P50: 42, P95: 42, P99: 42}, stats)
}
