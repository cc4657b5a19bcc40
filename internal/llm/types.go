package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm.go -package=mocks portfolio-rag/internal/llm Embedder,Generator

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrUnknownProvider is returned by the factory for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown llm provider")
	// ErrEmbeddingSize is returned when a provider returns vectors of the wrong dimension.
	ErrEmbeddingSize = errors.New("embedding size mismatch")
	// ErrEmptyResponse is returned when a provider answers without any text.
	ErrEmptyResponse = errors.New("empty response from llm")
)

// Prompt is a single generation request.
type Prompt struct {
	// System is the system instruction.
	System string
	// User is the user turn.
	User string
	// Temperature controls randomness. Zero means the client's default.
	Temperature float32
	// MaxTokens limits the output length. Zero means the client's default.
	MaxTokens int
}

// Embedder maps texts to fixed-length vectors.
type Embedder interface {
	// EmbedTexts returns one vector per input text, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text from a prompt.
type Generator interface {
	// Generate returns the full completion.
	Generate(ctx context.Context, p Prompt) (string, error)
	// GenerateStream yields completion fragments as they arrive. A non-nil error
	// ends the sequence. Cancelling ctx or breaking out of the loop stops the
	// upstream stream.
	GenerateStream(ctx context.Context, p Prompt) iter.Seq2[string, error]
}

// validateVectors checks count and dimension of an embedding response.
// A dim of zero disables the dimension check.
func validateVectors(vectors [][]float32, want, dim int) error {
	if len(vectors) != want {
		return fmt.Errorf("expected %d embeddings, got %d", want, len(vectors))
	}
	if dim <= 0 {
		return nil
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("embedding %d has size %d, expected %d: %w", i, len(vec), dim, ErrEmbeddingSize)
		}
	}
	return nil
}

// errorSeq returns a sequence that yields a single error.
func errorSeq(err error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		yield("", err)
	}
}
