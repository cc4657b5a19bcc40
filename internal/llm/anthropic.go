package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

const defaultClaudeMaxTokens = 1024

// ClaudeClient generates text with the Anthropic Messages API.
// Anthropic has no embeddings endpoint, so it only implements Generator.
type ClaudeClient struct {
	client      *anthropic.Client
	model       string
	temperature float32
}

// NewClaudeClient creates a client. An empty baseURL uses the public API.
func NewClaudeClient(apiKey, baseURL, model string, temperature float32) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeClient{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       model,
		temperature: temperature,
	}
}

func (c *ClaudeClient) request(p Prompt) anthropic.MessagesRequest {
	maxTokens := p.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultClaudeMaxTokens
	}
	temperature := p.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	return anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: p.System,
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(p.User)},
			},
		},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
}

// Generate returns the concatenated text blocks of a message.
func (c *ClaudeClient) Generate(ctx context.Context, p Prompt) (string, error) {
	resp, err := c.client.CreateMessages(ctx, c.request(p))
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	var sb strings.Builder
	for _, content := range resp.Content {
		if content.Text != nil {
			sb.WriteString(*content.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// GenerateStream yields text deltas from a streamed message.
func (c *ClaudeClient) GenerateStream(ctx context.Context, p Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		stopped := false
		_, err := c.client.CreateMessagesStream(streamCtx, anthropic.MessagesStreamRequest{
			MessagesRequest: c.request(p),
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				if stopped || data.Delta.Text == nil || *data.Delta.Text == "" {
					return
				}
				if !yield(*data.Delta.Text, nil) {
					stopped = true
					cancel()
				}
			},
		})
		if stopped {
			return
		}
		// Cancellation by the caller surfaces as an error.
		if ctxErr := ctx.Err(); ctxErr != nil {
			yield("", fmt.Errorf("anthropic messages stream: %w", ctxErr))
			return
		}
		if err != nil {
			yield("", fmt.Errorf("anthropic messages stream: %w", err))
		}
	}
}
