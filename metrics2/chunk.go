package metrics2

// ExtractChunkContent pulls the incremental content delta out of a
// provider.StreamChunk-shaped value. provider.StreamChunk is already a
// concrete struct in this codebase (unlike the original's dict/object
// dual shape coming from LiteLLM), so this reduces to reading one
// field — kept as a named function, rather than inlined at call sites,
// so every caller applies the same "empty means no token" rule that
// Collector.RecordToken depends on.
func ExtractChunkContent(content string) (string, bool) {
	if content == "" {
		return "", false
	}
	return content, true
}
