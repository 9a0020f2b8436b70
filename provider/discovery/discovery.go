// Package discovery implements the §6.3 "POST /{id}/refresh-models"
// model-listing step: for provider kinds that expose a live
// model-listing endpoint (every OpenAI-compatible kind, plus Ollama's
// and LM Studio's own listing paths), issue that call directly; for
// kinds with no such endpoint (Anthropic, AWS Bedrock, Google Vertex
// AI, Google AI Studio), fall back to a curated static list — the
// exact split the original's app/discovery package makes between a
// live adapter and app/discovery/static.py's hand-maintained catalogs.
package discovery

import (
	"context"

	"github.com/arguslm/arguslm/provider"
)

// Adapter lists the model ids currently available for target. A
// static adapter ignores target.Credentials/BaseURL entirely; a live
// adapter uses them to call the upstream listing endpoint.
type Adapter interface {
	ListModels(ctx context.Context, target provider.Target) ([]string, error)
}

// adapters maps each provider kind to the Adapter that serves it,
// built once at package init since neither the live nor the static
// adapter holds per-call state.
var adapters = buildAdapters()

func buildAdapters() map[provider.Kind]Adapter {
	live := NewLiveAdapter(nil)
	m := make(map[provider.Kind]Adapter, len(provider.Catalog))
	for _, k := range provider.OpenAICompatibleKinds {
		m[k] = live
	}
	m[provider.KindAnthropic] = StaticSource{kind: provider.KindAnthropic}
	m[provider.KindBedrock] = StaticSource{kind: provider.KindBedrock}
	m[provider.KindVertex] = StaticSource{kind: provider.KindVertex}
	m[provider.KindGemini] = StaticSource{kind: provider.KindGemini}
	return m
}

// For returns the Adapter registered for kind. Every kind in
// provider.Catalog has one; an unrecognized kind falls back to an
// empty StaticSource rather than a nil Adapter, so callers never need
// a second existence check.
func For(kind provider.Kind) Adapter {
	if a, ok := adapters[kind]; ok {
		return a
	}
	return StaticSource{kind: kind}
}
