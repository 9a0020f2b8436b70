package provider

import (
	"context"
)

// Invoker issues one streaming or non-streaming completion call to a
// named provider/model, per §4.1. Implementations classify every
// underlying failure into exactly one of the five kinds in errors.go
// and make a single attempt per call. The retry package's Do implements
// backoff over kinds 3-5, but no caller in this module wraps an Invoker
// call in it, so every call is attempted once.
type Invoker interface {
	// Complete performs a single non-streaming completion.
	Complete(ctx context.Context, target Target, req CompletionRequest) (*CompletionResponse, error)

	// CompleteStream performs a single streaming completion. The returned
	// channel is finite and non-restartable: a caller that needs to retry
	// must call CompleteStream again, discarding any chunks already
	// yielded (§4.1's streaming-retry contract).
	CompleteStream(ctx context.Context, target Target, req CompletionRequest) (<-chan StreamChunk, error)
}

// Registry resolves a Target.Kind to the Invoker implementation that
// speaks its wire protocol. OpenAI-compatible kinds all share one
// openaicompat.Client instance, whatever their Target.BaseURL;
// non-compatible kinds get a dedicated adapter (anthropic, bedrock, and
// one gemini client serving both gemini and vertex).
type Registry struct {
	byKind map[Kind]Invoker
}

// NewRegistry builds a Registry from an explicit kind -> Invoker map.
// Passing the map in rather than constructing it internally keeps the
// Registry free of import-time side effects and easy to fake in tests.
func NewRegistry(byKind map[Kind]Invoker) *Registry {
	return &Registry{byKind: byKind}
}

func (r *Registry) Resolve(kind Kind) (Invoker, bool) {
	inv, ok := r.byKind[kind]
	return inv, ok
}

func (r *Registry) Complete(ctx context.Context, target Target, req CompletionRequest) (*CompletionResponse, error) {
	inv, ok := r.Resolve(target.Kind)
	if !ok {
		return nil, unknownKindError(target.Kind)
	}
	return inv.Complete(ctx, target, defaultRequest(req))
}

func (r *Registry) CompleteStream(ctx context.Context, target Target, req CompletionRequest) (<-chan StreamChunk, error) {
	inv, ok := r.Resolve(target.Kind)
	if !ok {
		return nil, unknownKindError(target.Kind)
	}
	return inv.CompleteStream(ctx, target, defaultRequest(req))
}

func unknownKindError(k Kind) error {
	return ClassifyHTTPStatus(400, "unknown provider kind: "+string(k), string(k))
}
