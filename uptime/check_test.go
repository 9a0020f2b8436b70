package uptime

import (
	"context"
	"errors"
	"testing"

	"github.com/arguslm/arguslm/provider"
	"github.com/arguslm/arguslm/promptpack"
	"github.com/arguslm/arguslm/throttle"
	"github.com/stretchr/testify/assert"
)

type fakeInvoker struct {
	chunks []provider.StreamChunk
	err    error
}

func (f *fakeInvoker) Complete(ctx context.Context, target provider.Target, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	return nil, errors.New("not used by Check")
}

func (f *fakeInvoker) CompleteStream(ctx context.Context, target provider.Target, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan provider.StreamChunk, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func testTarget() Target {
	return Target{
		Provider: provider.Target{Kind: provider.KindOpenAI, ModelID: "gpt-4o"},
		ModelID:  "gpt-4o",
	}
}

func TestCheck_Healthy(t *testing.T) {
	invoker := &fakeInvoker{chunks: []provider.StreamChunk{
		{Content: "hel"},
		{Content: "lo", Usage: &provider.Usage{OutputTokens: 2}},
	}}
	throttleMgr := throttle.NewManager(throttle.DefaultProfile())

	result := Check(t.Context(), testTarget(), promptpack.HealthCheck, invoker, throttleMgr)

	assert.True(t, result.Healthy)
	assert.Equal(t, 2, result.OutputTokens)
	assert.Empty(t, result.ErrorMessage)
}

func TestCheck_StreamStartError_NeverErrors(t *testing.T) {
	invoker := &fakeInvoker{err: errors.New("connection refused")}
	throttleMgr := throttle.NewManager(throttle.DefaultProfile())

	result := Check(t.Context(), testTarget(), promptpack.HealthCheck, invoker, throttleMgr)

	assert.False(t, result.Healthy)
	assert.Contains(t, result.ErrorMessage, "connection refused")
}

func TestCheck_ChunkError_FoldedIntoResult(t *testing.T) {
	invoker := &fakeInvoker{chunks: []provider.StreamChunk{
		{Content: "partial"},
		{Err: errors.New("stream reset")},
	}}
	throttleMgr := throttle.NewManager(throttle.DefaultProfile())

	result := Check(t.Context(), testTarget(), promptpack.HealthCheck, invoker, throttleMgr)

	assert.False(t, result.Healthy)
	assert.Contains(t, result.ErrorMessage, "stream reset")
}

func TestCheck_ThrottleAcquireFailure_FoldedIntoResult(t *testing.T) {
	throttleMgr := throttle.NewManager(throttle.Profile{GlobalLimit: 1, ProviderLimit: 1, ModelLimit: 1})
	release, err := throttleMgr.Acquire(t.Context(), string(provider.KindOpenAI), "gpt-4o")
	assert.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := Check(ctx, testTarget(), promptpack.HealthCheck, &fakeInvoker{}, throttleMgr)

	assert.False(t, result.Healthy)
	assert.NotEmpty(t, result.ErrorMessage)
}
