package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks portfolio-rag/internal/vectorstore Store,LexicalSearcher,Writer

import (
	"context"

	"portfolio-rag/internal/corpus"
)

// LexicalOnlyFloor is a similarity floor no cosine score can reach. Passing it
// with a zero vector turns a hybrid search into a lexical-only search.
const LexicalOnlyFloor float32 = 2

// Config holds the ranking constants of the stores.
type Config struct {
	// LexicalWeight scales lexical scores so a text-only hit never looks as
	// confident as a strong vector match.
	LexicalWeight float64 `toml:"lexical_weight"`
	// LexicalScanFactor multiplies k for the Qdrant full-text scroll, leaving
	// room for local rescoring.
	LexicalScanFactor int `toml:"lexical_scan_factor"`
}

// DefaultConfig returns the tuned store constants.
func DefaultConfig() Config {
	return Config{
		LexicalWeight:     DefaultLexicalWeight,
		LexicalScanFactor: DefaultLexicalScanFactor,
	}
}

// SearchQuery is one hybrid lookup.
type SearchQuery struct {
	// Text drives the lexical half of the search.
	Text string
	// Vector drives the vector half. A nil or all-zero vector disables it.
	Vector []float32
	// TopK caps the number of results.
	TopK int
	// SimilarityFloor drops vector hits scoring below it.
	SimilarityFloor float32
}

// SearchResult is a passage with the store's raw relevance score.
type SearchResult struct {
	ID       string
	Text     string
	Score    float32
	Metadata corpus.Metadata
}

// Store is the read side used at query time.
type Store interface {
	// Search returns up to q.TopK results ordered by descending score.
	Search(ctx context.Context, q SearchQuery) ([]SearchResult, error)
	// Count returns the number of indexed passages.
	Count(ctx context.Context) (int, error)
}

// LexicalSearcher is implemented by stores that can run a text-only query.
type LexicalSearcher interface {
	LexicalSearch(ctx context.Context, text string, k int) ([]SearchResult, error)
}

// Writer is the ingestion side of a store.
type Writer interface {
	// Upsert inserts or replaces passages by ID.
	Upsert(ctx context.Context, passages []corpus.Passage) error
	// DeleteByFile removes every passage cut from file.
	DeleteByFile(ctx context.Context, file string) error
}

// IsZeroVector reports whether v is empty or all zeros.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
