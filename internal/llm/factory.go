package llm

import (
	"context"
	"fmt"
	"strings"
)

// ProviderConfig selects and configures one provider.
type ProviderConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Dim            int
	Temperature    float32
}

// ollamaBaseURL makes sure an Ollama URL points at its OpenAI-compatible API.
func ollamaBaseURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	return baseURL
}

// NewGenerator builds the generation client for cfg.Provider.
func NewGenerator(ctx context.Context, cfg ProviderConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.EmbeddingModel, cfg.Dim, cfg.Temperature), nil
	case "ollama":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, ollamaBaseURL(cfg.BaseURL), cfg.Model, cfg.EmbeddingModel, cfg.Dim, cfg.Temperature), nil
	case "anthropic", "claude":
		return NewClaudeClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.EmbeddingModel, cfg.Dim, cfg.Temperature)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// NewEmbedder builds the embedding client for cfg.Provider.
// Anthropic is rejected because it has no embeddings endpoint.
func NewEmbedder(ctx context.Context, cfg ProviderConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.EmbeddingModel, cfg.Dim, cfg.Temperature), nil
	case "ollama":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, ollamaBaseURL(cfg.BaseURL), cfg.Model, cfg.EmbeddingModel, cfg.Dim, cfg.Temperature), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.EmbeddingModel, cfg.Dim, cfg.Temperature)
	default:
		return nil, fmt.Errorf("%w for embeddings: %s", ErrUnknownProvider, cfg.Provider)
	}
}
