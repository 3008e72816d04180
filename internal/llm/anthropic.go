package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/daybrief/internal/domain"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicModel       = "claude-sonnet-4-20250514"
	anthropicVersion     = "2023-06-01"
	anthropicMaxTokens   = 4096
)

type AnthropicClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type anthropicRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	System      string           `json:"system,omitempty"`
	Messages    []domain.Message `json:"messages"`
	Temperature float32          `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AnthropicClient) Complete(ctx context.Context, messages []domain.Message, temperature float32) (*domain.Completion, error) {
	// Anthropic takes the system prompt as a top-level field, not a message.
	var system string
	chat := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = m.Content
			continue
		}
		chat = append(chat, m)
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       anthropicModel,
		MaxTokens:   anthropicMaxTokens,
		System:      system,
		Messages:    chat,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal messages request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create messages request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("messages request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read messages response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("messages API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal messages response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("messages API error: %s", result.Error.Message)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("messages API returned no text content")
	}

	return &domain.Completion{Content: strings.TrimSpace(sb.String())}, nil
}

// Stream wraps Complete and emits the result as a single content chunk
// followed by done. Incremental SSE decoding is not implemented for this
// provider; callers see the same chunk contract either way.
func (c *AnthropicClient) Stream(ctx context.Context, messages []domain.Message, temperature float32) (<-chan domain.StreamChunk, error) {
	out := make(chan domain.StreamChunk, 2)
	go func() {
		defer close(out)
		completion, err := c.Complete(ctx, messages, temperature)
		if err != nil {
			out <- domain.StreamChunk{Type: domain.ChunkError, Err: err.Error()}
			return
		}
		out <- domain.StreamChunk{Type: domain.ChunkContent, Content: completion.Content}
		out <- domain.StreamChunk{Type: domain.ChunkDone}
	}()
	return out, nil
}
