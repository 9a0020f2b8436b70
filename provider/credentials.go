package provider

import "go.uber.org/zap/zapcore"

// Credentials is the known subset of fields a provider target needs to
// authenticate: an API key, an optional base URL (local/self-hosted
// endpoints), an optional region (AWS Bedrock), and an optional API
// version (Azure OpenAI). A concrete struct is used in place of an
// untyped map per the redesign note in spec §9 — the key subset is
// closed and known, so Go's type system can enforce it.
type Credentials struct {
	APIKey     string
	BaseURL    string
	Region     string
	APIVersion string
}

// String never reveals the API key, so Credentials is safe to pass to
// fmt/log call sites by accident.
func (c Credentials) String() string { return "<redacted>" }

// MarshalLogObject implements zapcore.ObjectMarshaler, redacting APIKey
// while keeping the non-sensitive fields visible in structured logs.
func (c Credentials) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("has_api_key", c.APIKey != "")
	if c.BaseURL != "" {
		enc.AddString("base_url", c.BaseURL)
	}
	if c.Region != "" {
		enc.AddString("region", c.Region)
	}
	if c.APIVersion != "" {
		enc.AddString("api_version", c.APIVersion)
	}
	return nil
}

// ResolveAPIKey applies the §4.1 credential-injection rule: when no API
// key is configured but a base URL is present (local inference servers
// such as Ollama or LM Studio), OpenAI-compatible clients still require
// a non-empty bearer token, so the literal placeholder is substituted.
func (c Credentials) ResolveAPIKey() string {
	if c.APIKey == "" && c.BaseURL != "" {
		return "not-needed"
	}
	return c.APIKey
}
