package discovery

import (
	"context"

	"github.com/arguslm/arguslm/provider"
)

// staticCatalog is the curated model list per kind that has no live
// listing endpoint, transcribed from the original's
// app/discovery/static.py (ANTHROPIC_MODELS / MISTRAL_MODELS /
// GOOGLE_GEMINI_MODELS and their Bedrock/Vertex counterparts) — this
// is content, not logic, so the literal carries over unchanged rather
// than being re-derived.
var staticCatalog = map[provider.Kind][]string{
	provider.KindAnthropic: {
		"claude-opus-4-1-20250805",
		"claude-sonnet-4-5-20250929",
		"claude-3-7-sonnet-20250219",
		"claude-3-5-haiku-20241022",
	},
	provider.KindBedrock: {
		"anthropic.claude-3-5-sonnet-20241022-v2:0",
		"anthropic.claude-3-haiku-20240307-v1:0",
		"meta.llama3-1-70b-instruct-v1:0",
		"amazon.titan-text-premier-v1:0",
	},
	provider.KindVertex: {
		"gemini-2.5-pro",
		"gemini-2.5-flash",
		"claude-opus-4@20250514",
	},
	provider.KindGemini: {
		"gemini-2.5-pro",
		"gemini-2.5-flash",
		"gemini-2.0-flash",
	},
}

// StaticSource is the Adapter for a kind with no live listing
// endpoint — it ignores target entirely and returns the fixed catalog
// for kind.
type StaticSource struct {
	kind provider.Kind
}

func (s StaticSource) ListModels(_ context.Context, _ provider.Target) ([]string, error) {
	return append([]string(nil), staticCatalog[s.kind]...), nil
}
