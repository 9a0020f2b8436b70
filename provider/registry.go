package provider

// Wiring the concrete per-kind Invoker implementations (openaicompat,
// anthropic, bedrock, gemini) into a Registry happens in
// cmd/arguslm/deps.go, not here: those sub-packages import provider
// for its Target/CompletionRequest/Invoker types, so provider itself
// must stay leaf-level and cannot import them back without a cycle.
