package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-collection-boot/async"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/llm"
	"portfolio-rag/internal/vectorstore"
)

// RetrieverConfig sizes the per-expansion candidate pool.
type RetrieverConfig struct {
	// PoolMultiplier times the final count gives the pool size...
	PoolMultiplier int `toml:"pool_multiplier"`
	// ...unless PoolMin is larger.
	PoolMin int `toml:"pool_min"`
	// SimilarityFloor drops vector hits below it.
	SimilarityFloor float32 `toml:"similarity_floor"`
	// KeyPrefixRunes is how much of the text goes into the dedup key.
	KeyPrefixRunes int `toml:"key_prefix_runes"`
}

// DefaultRetrieverConfig returns the tuned defaults.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		PoolMultiplier:  6,
		PoolMin:         40,
		SimilarityFloor: 0,
		KeyPrefixRunes:  64,
	}
}

// Retriever runs every expansion against the store and merges the hits.
type Retriever struct {
	embedder llm.Embedder
	store    vectorstore.Store
	cfg      RetrieverConfig
}

// NewRetriever creates a retriever.
func NewRetriever(embedder llm.Embedder, store vectorstore.Store, cfg RetrieverConfig) *Retriever {
	if cfg.KeyPrefixRunes <= 0 {
		cfg.KeyPrefixRunes = 64
	}
	return &Retriever{embedder: embedder, store: store, cfg: cfg}
}

// PoolSize is the number of hits requested per expansion for finalK answers.
func (r *Retriever) PoolSize(finalK int) int {
	return max(finalK*r.cfg.PoolMultiplier, r.cfg.PoolMin, 1)
}

// CompositeKey identifies a passage across expansions by its source and opening text.
func CompositeKey(sourceName, text string, prefixRunes int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > prefixRunes {
		runes = runes[:prefixRunes]
	}
	return sourceName + "|" + string(runes)
}

// Retrieve searches every expansion and returns the candidates keyed by
// composite key, each holding the best score any expansion gave it.
// An expansion whose hybrid search fails is retried lexically; one that still
// fails is skipped. ErrNoExpansionSucceeded is returned only when all fail.
func (r *Retriever) Retrieve(ctx context.Context, expansions []string, finalK int) (map[string]Candidate, error) {
	logger := contextutil.LoggerFromContext(ctx)
	if len(expansions) == 0 {
		return nil, ErrNoExpansionSucceeded
	}
	topK := r.PoolSize(finalK)

	vectors, err := r.embed(ctx, expansions)
	if err != nil {
		logger.WarnContext(ctx, "expansion embedding failed, using lexical search", "error", err)
	}

	tasks := make([]<-chan async.Result[[]vectorstore.SearchResult], len(expansions))
	for i, text := range expansions {
		var vector []float32
		if vectors != nil {
			vector = vectors[i]
		}
		tasks[i] = async.Go(func() ([]vectorstore.SearchResult, error) {
			return r.searchOne(ctx, text, vector, topK)
		})
	}

	merged := make(map[string]Candidate)
	succeeded := 0
	for i, task := range tasks {
		hits, err := async.Await(task)
		if err != nil {
			logger.WarnContext(ctx, "expansion retrieval failed", "expansion", i, "error", err)
			continue
		}
		succeeded++
		for _, hit := range hits {
			r.merge(merged, hit)
		}
	}

	logger.DebugContext(ctx, "candidates retrieved",
		"expansions", len(expansions),
		"succeeded", succeeded,
		"candidates", len(merged),
	)
	if succeeded == 0 {
		return nil, ErrNoExpansionSucceeded
	}
	return merged, nil
}

func (r *Retriever) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

// searchOne runs a hybrid search, or a lexical-only one when vector is nil or
// the hybrid search fails.
func (r *Retriever) searchOne(ctx context.Context, text string, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	if vector != nil {
		hits, err := r.store.Search(ctx, vectorstore.SearchQuery{
			Text:            text,
			Vector:          vector,
			TopK:            topK,
			SimilarityFloor: r.cfg.SimilarityFloor,
		})
		if err == nil {
			return hits, nil
		}
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "hybrid search failed, retrying lexically", "error", err)
	}
	hits, err := r.store.Search(ctx, vectorstore.SearchQuery{
		Text:            text,
		Vector:          make([]float32, len(vector)),
		TopK:            topK,
		SimilarityFloor: vectorstore.LexicalOnlyFloor,
	})
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return hits, nil
}

// merge keeps the higher score per key; equal scores keep the smaller ID so
// the outcome does not depend on which expansion found the passage first.
func (r *Retriever) merge(merged map[string]Candidate, hit vectorstore.SearchResult) {
	key := CompositeKey(hit.Metadata.DisplayName(), hit.Text, r.cfg.KeyPrefixRunes)
	next := Candidate{
		Key:      key,
		ID:       hit.ID,
		Text:     hit.Text,
		Metadata: hit.Metadata,
		Raw:      float64(hit.Score),
	}
	prev, ok := merged[key]
	if !ok || next.Raw > prev.Raw || (next.Raw == prev.Raw && next.ID < prev.ID) {
		merged[key] = next
	}
}
