package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/arguslm/arguslm/internal/tlsutil"
	"github.com/arguslm/arguslm/provider"
	"go.uber.org/zap"
)

// LiveAdapter calls a provider's own model-listing endpoint: the
// OpenAI-compatible GET /v1/models for most kinds, and Ollama's GET
// /api/tags for ollama targets, selected by target.Kind at call time
// since both share this adapter in the registry built by
// buildAdapters.
type LiveAdapter struct {
	httpClient *http.Client
}

// NewLiveAdapter builds a LiveAdapter sharing the teacher's hardened
// TLS transport (internal/tlsutil.SecureHTTPClient), same as
// openaicompat.Client — discovery calls are a GET against the same
// upstream, so there is no reason for a second transport
// configuration.
func NewLiveAdapter(logger *zap.Logger) *LiveAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveAdapter{httpClient: tlsutil.SecureHTTPClient(30 * time.Second)}
}

func (a *LiveAdapter) ListModels(ctx context.Context, target provider.Target) ([]string, error) {
	if target.Kind == provider.KindOllama {
		return a.listOllamaTags(ctx, target)
	}
	return a.listOpenAICompatModels(ctx, target)
}

func (a *LiveAdapter) listOpenAICompatModels(ctx context.Context, target provider.Target) ([]string, error) {
	url := strings.TrimRight(target.BaseURL, "/") + "/v1/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+target.Credentials.ResolveAPIKey())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, provider.ClassifyTransportError(err, string(target.Kind))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := provider.ReadErrorBody(resp.Body)
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode, msg, string(target.Kind))
	}

	var wire struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, provider.ClassifyTransportError(err, string(target.Kind))
	}

	ids := make([]string, 0, len(wire.Data))
	for _, m := range wire.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (a *LiveAdapter) listOllamaTags(ctx context.Context, target provider.Target) ([]string, error) {
	url := strings.TrimRight(target.BaseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build tags request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, provider.ClassifyTransportError(err, string(target.Kind))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := provider.ReadErrorBody(resp.Body)
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode, msg, string(target.Kind))
	}

	var wire struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, provider.ClassifyTransportError(err, string(target.Kind))
	}

	ids := make([]string, 0, len(wire.Models))
	for _, m := range wire.Models {
		ids = append(ids, m.Name)
	}
	return ids, nil
}
