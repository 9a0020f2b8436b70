// Copyright 2026 ArgusLM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package discovery resolves the model list a ProviderAccount currently
offers, for the §6.3 POST /{id}/refresh-models endpoint.

Every provider.Kind gets exactly one Adapter: LiveAdapter for kinds
whose upstream exposes a model-listing endpoint (OpenAI-compatible
GET /v1/models, Ollama's GET /api/tags), StaticSource for kinds that
don't (Anthropic, Bedrock, Vertex, Gemini), backed by a curated
literal. Call For(kind) to resolve the right one.
*/
package discovery
