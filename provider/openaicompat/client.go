// Package openaicompat is the shared transport for every provider.Kind
// that speaks the OpenAI chat-completions wire protocol: openai, azure,
// openrouter, together, groq, mistral, xai, fireworks, deepseek, ollama,
// lm_studio, and custom_openai_compatible. One Client instance serves
// any Target whose BaseURL+Credentials resolve at call time, so the
// registry need not construct one client per kind.
//
// Adapted from the teacher's llm/providers/openaicompat/provider.go: the
// same New/Completion/Stream/StreamSSE split, re-expressed against
// provider.Target/CompletionRequest/StreamChunk instead of agentflow's
// llm.ChatRequest/ChatResponse, and with the rewriter-chain/tool-calling
// machinery dropped since ArgusLM never issues tool calls.
package openaicompat

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
	"go.uber.org/zap"
)

const (
	defaultChatPath   = "/v1/chat/completions"
	defaultModelsPath = "/v1/models"
)

// Client is the shared OpenAI-compatible transport.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger

	// ChatPath and ModelsPath let a Target's kind override the default
	// endpoint paths (Azure's deployment-scoped URLs, for instance);
	// most kinds use the zero value and fall back to the v1 defaults.
	ChatPath   string
	ModelsPath string
}

// New builds a Client with the teacher's hardened transport and a given
// per-request timeout ceiling (the real per-call timeout still comes
// from the context passed to Complete/CompleteStream).
func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: tlsutil.SecureHTTPClient(120 * time.Second),
		logger:     logger,
	}
}

func (c *Client) chatPath() string {
	if c.ChatPath != "" {
		return c.ChatPath
	}
	return defaultChatPath
}

func (c *Client) modelsPath() string {
	if c.ModelsPath != "" {
		return c.ModelsPath
	}
	return defaultModelsPath
}

func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

func buildHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// chatRequest mirrors the wire shape of an OpenAI chat-completions
// request body; only the fields ArgusLM ever sends are present.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta *struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func convertMessages(msgs []provider.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func buildBody(target provider.Target, req provider.CompletionRequest, stream bool) chatRequest {
	return chatRequest{
		Model:       target.QualifiedModel(),
		Messages:    convertMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
}

// Complete performs a single non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, target provider.Target, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	body := buildBody(target, req, false)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(target.BaseURL, c.chatPath()), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	buildHeaders(httpReq, target.Credentials.ResolveAPIKey())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.ClassifyTransportError(err, string(target.Kind))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := provider.ReadErrorBody(resp.Body)
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode, msg, string(target.Kind))
	}

	var wire chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, provider.ClassifyTransportError(err, string(target.Kind))
	}

	out := &provider.CompletionResponse{}
	if len(wire.Choices) > 0 {
		out.Content = wire.Choices[0].Message.Content
	}
	if wire.Usage != nil {
		out.Usage = provider.Usage{
			InputTokens:  wire.Usage.PromptTokens,
			OutputTokens: wire.Usage.CompletionTokens,
		}
	}
	if wire.Created != 0 {
		out.CreatedAt = time.Unix(wire.Created, 0)
	}
	return out, nil
}

// CompleteStream performs a streaming chat completion via SSE.
func (c *Client) CompleteStream(ctx context.Context, target provider.Target, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	body := buildBody(target, req, true)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(target.BaseURL, c.chatPath()), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	buildHeaders(httpReq, target.Credentials.ResolveAPIKey())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.ClassifyTransportError(err, string(target.Kind))
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := provider.ReadErrorBody(resp.Body)
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode, msg, string(target.Kind))
	}

	return streamSSE(ctx, resp.Body, string(target.Kind)), nil
}

// streamSSE parses an OpenAI-compatible SSE body into a channel of
// StreamChunk, closing the channel on [DONE], EOF, or any parse/read
// error. The channel is one-shot: a caller that needs to retry a failed
// stream must call CompleteStream again (§4.1's streaming-retry rule).
func streamSSE(ctx context.Context, body io.ReadCloser, providerName string) <-chan provider.StreamChunk {
	ch := make(chan provider.StreamChunk)
	go func() {
		defer body.Close()
		defer close(ch)
		reader := bufio.NewReader(body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					select {
					case <-ctx.Done():
						return
					case ch <- provider.StreamChunk{Err: provider.ClassifyTransportError(err, providerName)}:
					}
				}
				return
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var wire chatResponse
			if err := json.Unmarshal([]byte(data), &wire); err != nil {
				select {
				case <-ctx.Done():
					return
				case ch <- provider.StreamChunk{Err: provider.ClassifyTransportError(err, providerName)}:
				}
				return
			}

			for _, choice := range wire.Choices {
				chunk := provider.StreamChunk{FinishReason: choice.FinishReason}
				if choice.Delta != nil {
					chunk.Content = choice.Delta.Content
				}
				if wire.Usage != nil {
					chunk.Usage = &provider.Usage{
						InputTokens:  wire.Usage.PromptTokens,
						OutputTokens: wire.Usage.CompletionTokens,
					}
				}
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}
			}
		}
	}()
	return ch
}
