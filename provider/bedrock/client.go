// Package bedrock implements provider.Invoker for provider.KindBedrock
// against the Bedrock Runtime Converse API, using the bearer-token
// authentication mode AWS Bedrock added alongside SigV4 (ArgusLM never
// asks an operator for an IAM access key/secret pair — only a bearer
// token and a region, per the credential shape the original collected
// for this kind; see app/discovery/bedrock.py in the retained Python
// sources).
//
// No pack example wires the AWS SDK (none of the corpus's go.mod files
// import aws-sdk-go/aws-sdk-go-v2), and Converse/ConverseStream's wire
// formats — plain JSON over HTTPS, with the stream response framed as
// AWS's self-describing binary event-stream — are simple enough to
// speak directly, so this client talks HTTPS Converse/ConverseStream
// the same way the anthropic and openaicompat clients speak their
// wire protocols, rather than pulling in an unwired SDK. The binary
// event-stream frame decoder is the one piece of this package with no
// ecosystem analogue in the corpus; it is isolated to eventstream.go
// and documented there.
package bedrock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/arguslm/arguslm/internal/tlsutil"
	"github.com/arguslm/arguslm/provider"
)

// Client is the Bedrock Runtime Converse/ConverseStream transport.
type Client struct {
	httpClient *http.Client
}

func New() *Client {
	return &Client{httpClient: tlsutil.SecureHTTPClient(120 * time.Second)}
}

type converseMessage struct {
	Role    string          `json:"role"`
	Content []converseBlock `json:"content"`
}

type converseBlock struct {
	Text string `json:"text"`
}

type converseRequest struct {
	Messages        []converseMessage `json:"messages"`
	System          []converseBlock   `json:"system,omitempty"`
	InferenceConfig *inferenceConfig  `json:"inferenceConfig,omitempty"`
}

type inferenceConfig struct {
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

type converseResponse struct {
	Output struct {
		Message converseMessage `json:"message"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"inputTokens"`
		OutputTokens int `json:"outputTokens"`
	} `json:"usage"`
}

func runtimeHost(region string) string {
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region)
}

func convertMessages(msgs []provider.Message) (system []converseBlock, out []converseMessage) {
	for _, m := range msgs {
		if m.Role == provider.RoleSystem {
			system = append(system, converseBlock{Text: m.Content})
			continue
		}
		out = append(out, converseMessage{Role: string(m.Role), Content: []converseBlock{{Text: m.Content}}})
	}
	return system, out
}

func buildHeaders(req *http.Request, bearerToken string) {
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) Complete(ctx context.Context, target provider.Target, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	system, messages := convertMessages(req.Messages)
	body := converseRequest{
		Messages: messages,
		System:   system,
		InferenceConfig: &inferenceConfig{
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal bedrock request: %w", err)
	}

	url := fmt.Sprintf("%s/model/%s/converse", runtimeHost(target.Region), target.ModelID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build bedrock request: %w", err)
	}
	buildHeaders(httpReq, target.Credentials.ResolveAPIKey())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.ClassifyTransportError(err, string(provider.KindBedrock))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := provider.ReadErrorBody(resp.Body)
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode, msg, string(provider.KindBedrock))
	}

	var wire converseResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, provider.ClassifyTransportError(err, string(provider.KindBedrock))
	}

	out := &provider.CompletionResponse{
		CreatedAt: time.Now(),
		Usage: provider.Usage{
			InputTokens:  wire.Usage.InputTokens,
			OutputTokens: wire.Usage.OutputTokens,
		},
	}
	for _, block := range wire.Output.Message.Content {
		out.Content += block.Text
	}
	return out, nil
}

func (c *Client) CompleteStream(ctx context.Context, target provider.Target, req provider.CompletionRequest) (<-chan provider.StreamChunk, error) {
	system, messages := convertMessages(req.Messages)
	body := converseRequest{
		Messages: messages,
		System:   system,
		InferenceConfig: &inferenceConfig{
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal bedrock request: %w", err)
	}

	url := fmt.Sprintf("%s/model/%s/converse-stream", runtimeHost(target.Region), target.ModelID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build bedrock request: %w", err)
	}
	buildHeaders(httpReq, target.Credentials.ResolveAPIKey())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, provider.ClassifyTransportError(err, string(provider.KindBedrock))
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := provider.ReadErrorBody(resp.Body)
		return nil, provider.ClassifyHTTPStatus(resp.StatusCode, msg, string(provider.KindBedrock))
	}

	ch := make(chan provider.StreamChunk)
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		decoder := newEventStreamDecoder(resp.Body)
		for {
			payload, err := decoder.Next()
			if err != nil {
				if !isEOF(err) {
					select {
					case <-ctx.Done():
					case ch <- provider.StreamChunk{Err: provider.ClassifyTransportError(err, string(provider.KindBedrock))}:
					}
				}
				return
			}

			var event struct {
				ContentBlockDelta *struct {
					Delta struct {
						Text string `json:"text"`
					} `json:"delta"`
				} `json:"contentBlockDelta"`
				Metadata *struct {
					Usage struct {
						InputTokens  int `json:"inputTokens"`
						OutputTokens int `json:"outputTokens"`
					} `json:"usage"`
				} `json:"metadata"`
				MessageStop *struct {
					StopReason string `json:"stopReason"`
				} `json:"messageStop"`
			}
			if err := json.Unmarshal(payload, &event); err != nil {
				continue
			}

			var chunk provider.StreamChunk
			switch {
			case event.ContentBlockDelta != nil:
				chunk.Content = event.ContentBlockDelta.Delta.Text
			case event.Metadata != nil:
				chunk.Usage = &provider.Usage{
					InputTokens:  event.Metadata.Usage.InputTokens,
					OutputTokens: event.Metadata.Usage.OutputTokens,
				}
			case event.MessageStop != nil:
				chunk.FinishReason = event.MessageStop.StopReason
			default:
				continue
			}
			select {
			case <-ctx.Done():
				return
			case ch <- chunk:
			}
		}
	}()
	return ch, nil
}

func isEOF(err error) bool {
	return err != nil && strings.Contains(err.Error(), "EOF")
}
