package openaicompat

import (
	"context"
	"net/http"
	"time"

	"github.com/arguslm/arguslm/provider"
)

// Invoker adapts Client to provider.Invoker, so the same transport
// serves every OpenAI-compatible Kind in the registry.
type Invoker struct {
	client *Client
}

// NewInvoker wraps a Client as a provider.Invoker.
func NewInvoker(client *Client) *Invoker {
	return &Invoker{client: client}
}

func (i *Invoker) Complete(ctx context.Context, target provider.Target, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	return i.client.Complete(ctx, target, req)
}

func (i *Invoker) CompleteStream(ctx context.Context, target provider.Target, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	return i.client.CompleteStream(ctx, target, req)
}

// HealthCheck performs a lightweight GET against the models endpoint and
// returns its latency. Failures are classified the same way as
// Complete's, through ClassifyHTTPStatus and ClassifyTransportError.
// Nothing in this module calls it; uptime.Check probes with a streaming
// completion instead.
func (i *Invoker) HealthCheck(ctx context.Context, target provider.Target) (time.Duration, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(target.BaseURL, i.client.modelsPath()), nil)
	if err != nil {
		return 0, err
	}
	buildHeaders(httpReq, target.Credentials.ResolveAPIKey())

	resp, err := i.client.httpClient.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return latency, provider.ClassifyTransportError(err, string(target.Kind))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := provider.ReadErrorBody(resp.Body)
		return latency, provider.ClassifyHTTPStatus(resp.StatusCode, msg, string(target.Kind))
	}
	return latency, nil
}
