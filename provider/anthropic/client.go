// Package anthropic implements provider.Invoker for provider.KindAnthropic.
// The Messages API differs from the OpenAI-compatible wire protocol
// enough (x-api-key header, mandatory max_tokens, system prompt carried
// out-of-band, event-typed SSE) to warrant its own client rather than
// forcing it through openaicompat.
//
// Adapted from the teacher's providers/anthropic/provider.go: same
// header/body shape and SSE event-type switch, re-expressed against
// provider.Target/CompletionRequest/StreamChunk with the tool-calling
// and rewriter-chain machinery dropped.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arguslm/arguslm/internal/tlsutil"
	"github.com/arguslm/arguslm/provider"
)

const (
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

// Client is the Anthropic Messages API transport.
type Client struct {
	httpClient *http.Client
}

// New builds a Client using the teacher's hardened TLS transport.
func New() *Client {
	return &Client{httpClient: tlsutil.SecureHTTPClient(120 * time.Second)}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      *usage         `json:"usage"`
}

func buildHeaders(req *http.Request, apiKey string) {
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
}

func convertMessages(msgs []provider.Message) (system string, out []message) {
	for _, m := range msgs {
		if m.Role == provider.RoleSystem {
			system = m.Content
			continue
		}
		out = append(out, message{Role: string(m.Role), Content: m.Content})
	}
	return system, out
}

func maxTokensOrDefault(req provider.CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

func endpoint(baseURL string) string {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return strings.TrimRight(baseURL, "/") + "/v1/messages"
}

func (c *Client) Complete(ctx context.Context, target provider.Target, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	system, messages := convertMessages(req.Messages)
	body := chatRequest{
		Model:       target.QualifiedModel(),
		Messages:    messages,
		System:      system,
		MaxTokens:   maxTokensOrDefault(req),
		Temperature: req.Temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(target.BaseURL), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build anthropic request: %w", err)
	}
	buildHeaders(httpReq, target.Credentials.ResolveAPIKey())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.ClassifyTransportError(err, string(provider.KindAnthropic))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := provider.ReadErrorBody(resp.Body)
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode, msg, string(provider.KindAnthropic))
	}

	var wire chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, provider.ClassifyTransportError(err, string(provider.KindAnthropic))
	}

	out := &provider.CompletionResponse{CreatedAt: time.Now()}
	for _, block := range wire.Content {
		if block.Type == "text" {
			out.Content += block.Text
		}
	}
	if wire.Usage != nil {
		out.Usage = provider.Usage{InputTokens: wire.Usage.InputTokens, OutputTokens: wire.Usage.OutputTokens}
	}
	return out, nil
}

// streamEvent covers the event types CompleteStream cares about;
// message_start/content_block_start/stop and ping are parsed but
// produce no chunk.
type streamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Usage *usage `json:"usage"`
}

func (c *Client) CompleteStream(ctx context.Context, target provider.Target, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	system, messages := convertMessages(req.Messages)
	body := chatRequest{
		Model:     target.QualifiedModel(),
		Messages:  messages,
		System:    system,
		MaxTokens: maxTokensOrDefault(req),
		Stream:    true,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(target.BaseURL), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build anthropic request: %w", err)
	}
	buildHeaders(httpReq, target.Credentials.ResolveAPIKey())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.ClassifyTransportError(err, string(provider.KindAnthropic))
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := provider.ReadErrorBody(resp.Body)
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode, msg, string(provider.KindAnthropic))
	}

	ch := make(chan provider.StreamChunk)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					select {
					case <-ctx.Done():
					case ch <- provider.StreamChunk{Err: provider.ClassifyTransportError(err, string(provider.KindAnthropic))}:
					}
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			var ev streamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				continue
			}
			switch ev.Type {
			case "content_block_delta":
				if ev.Delta != nil && ev.Delta.Type == "text_delta" {
					select {
					case <-ctx.Done():
						return
					case ch <- provider.StreamChunk{Content: ev.Delta.Text}:
					}
				}
			case "message_delta":
				chunk := provider.StreamChunk{}
				if ev.Usage != nil {
					chunk.Usage = &provider.Usage{OutputTokens: ev.Usage.OutputTokens}
				}
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}
			case "message_stop":
				return
			}
		}
	}()
	return ch, nil
}
