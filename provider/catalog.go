package provider

// Spec describes a provider kind's configuration requirements — which
// credential fields the UI/API must collect, and a default base URL
// where the upstream publishes one stable endpoint. Transcribed from
// the curated PROVIDER_CATALOG in app/core/providers/catalog.py,
// restricted to the sixteen kinds spec §3 names (the original's
// LiteLLM long-tail catalog is out of scope here).
type Spec struct {
	Kind            Kind
	Label           string
	RequiresAPIKey  bool
	RequiresBaseURL bool
	RequiresRegion  bool
	DefaultBaseURL  string
}

// Catalog is the full, ordered list of supported provider kinds.
var Catalog = []Spec{
	{Kind: KindOpenAI, Label: "OpenAI", RequiresAPIKey: true, DefaultBaseURL: "https://api.openai.com/v1"},
	{Kind: KindAnthropic, Label: "Anthropic", RequiresAPIKey: true, DefaultBaseURL: "https://api.anthropic.com"},
	{Kind: KindAzure, Label: "Azure OpenAI", RequiresAPIKey: true, RequiresBaseURL: true},
	{Kind: KindBedrock, Label: "AWS Bedrock", RequiresAPIKey: true, RequiresRegion: true},
	{Kind: KindVertex, Label: "Google Vertex AI", RequiresAPIKey: true},
	{Kind: KindGemini, Label: "Google AI Studio", RequiresAPIKey: true, DefaultBaseURL: "https://generativelanguage.googleapis.com/v1beta"},
	{Kind: KindOllama, Label: "Ollama", RequiresAPIKey: false, RequiresBaseURL: true, DefaultBaseURL: "http://host.docker.internal:11434"},
	{Kind: KindLMStudio, Label: "LM Studio", RequiresAPIKey: false, RequiresBaseURL: true, DefaultBaseURL: "http://host.docker.internal:1234/v1"},
	{Kind: KindOpenRouter, Label: "OpenRouter", RequiresAPIKey: true, DefaultBaseURL: "https://openrouter.ai/api/v1"},
	{Kind: KindTogether, Label: "Together AI", RequiresAPIKey: true, DefaultBaseURL: "https://api.together.xyz/v1"},
	{Kind: KindGroq, Label: "Groq", RequiresAPIKey: true, DefaultBaseURL: "https://api.groq.com/openai/v1"},
	{Kind: KindMistral, Label: "Mistral AI", RequiresAPIKey: true, DefaultBaseURL: "https://api.mistral.ai/v1"},
	{Kind: KindXAI, Label: "xAI (Grok)", RequiresAPIKey: true, DefaultBaseURL: "https://api.x.ai/v1"},
	{Kind: KindFireworks, Label: "Fireworks AI", RequiresAPIKey: true, DefaultBaseURL: "https://api.fireworks.ai/inference/v1"},
	{Kind: KindDeepSeek, Label: "DeepSeek", RequiresAPIKey: true, DefaultBaseURL: "https://api.deepseek.com"},
	{Kind: KindCustomOpenAICompat, Label: "Custom OpenAI Compatible", RequiresAPIKey: true, RequiresBaseURL: true},
}

var specByKind = func() map[Kind]Spec {
	m := make(map[Kind]Spec, len(Catalog))
	for _, s := range Catalog {
		m[s.Kind] = s
	}
	return m
}()

// SpecFor returns the catalog entry for a kind, or the zero Spec (with
// Kind set) for an unrecognized one — callers treat a zero Spec as
// "requires nothing extra" rather than erroring, since the catalog is
// descriptive metadata, not a validation gate.
func SpecFor(k Kind) Spec {
	if s, ok := specByKind[k]; ok {
		return s
	}
	return Spec{Kind: k, Label: string(k)}
}

// OpenAICompatibleKinds is the subset of Catalog that speaks the OpenAI
// chat-completions wire protocol and can share one openaicompat.Client.
var OpenAICompatibleKinds = []Kind{
	KindOpenAI, KindAzure, KindOllama, KindLMStudio, KindOpenRouter,
	KindTogether, KindGroq, KindMistral, KindXAI, KindFireworks,
	KindDeepSeek, KindCustomOpenAICompat,
}
