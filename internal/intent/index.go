package intent

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/llm"
)

const indexEmbedBatchSize = 64

// Match is a labeled example with the raw score reported by an index.
type Match struct {
	Example
	Raw float64
}

// ExampleIndex finds the labeled examples nearest to a query.
type ExampleIndex interface {
	// Search returns up to k matches. The order of equal scores is not guaranteed.
	Search(ctx context.Context, query string, k int) ([]Match, error)
	// Scale reports the range of Match.Raw.
	Scale() ScoreScale
}

type indexedExample struct {
	example Example
	vector  []float32
}

// CachedIndex embeds the labeled examples on first use and keeps the vectors
// until Reset. Concurrent searches share one build; a failed build is retried
// by the next search.
type CachedIndex struct {
	embedder llm.Embedder
	examples []Example

	buildMu sync.Mutex
	mu      sync.RWMutex
	entries []indexedExample
}

// NewCachedIndex creates an index over examples. Nothing is embedded until the first Search.
func NewCachedIndex(embedder llm.Embedder, examples []Example) *CachedIndex {
	copied := make([]Example, len(examples))
	copy(copied, examples)
	return &CachedIndex{embedder: embedder, examples: copied}
}

// Scale reports cosine similarity.
func (c *CachedIndex) Scale() ScoreScale {
	return ScaleCosineSimilarity
}

// Built reports whether the example vectors are cached.
func (c *CachedIndex) Built() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries != nil
}

// Size returns the number of labeled examples.
func (c *CachedIndex) Size() int {
	return len(c.examples)
}

// Reset drops the cached vectors so the next Search rebuilds them.
func (c *CachedIndex) Reset() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

func (c *CachedIndex) load(ctx context.Context) ([]indexedExample, error) {
	c.mu.RLock()
	entries := c.entries
	c.mu.RUnlock()
	if entries != nil {
		return entries, nil
	}

	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	c.mu.RLock()
	entries = c.entries
	c.mu.RUnlock()
	if entries != nil {
		return entries, nil
	}

	entries, err := c.build(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return entries, nil
}

func (c *CachedIndex) build(ctx context.Context) ([]indexedExample, error) {
	logger := contextutil.LoggerFromContext(ctx)

	entries := make([]indexedExample, 0, len(c.examples))
	for start := 0; start < len(c.examples); start += indexEmbedBatchSize {
		end := min(start+indexEmbedBatchSize, len(c.examples))
		batch := c.examples[start:end]
		texts := make([]string, len(batch))
		for i, ex := range batch {
			texts[i] = ex.Text
		}
		vectors, err := c.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed intent examples: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("expected %d example embeddings, got %d", len(batch), len(vectors))
		}
		for i, ex := range batch {
			entries = append(entries, indexedExample{example: ex, vector: vectors[i]})
		}
	}
	logger.InfoContext(ctx, "intent index built", "examples", len(entries))
	return entries, nil
}

// Search embeds query and returns the k most similar examples by cosine similarity.
func (c *CachedIndex) Search(ctx context.Context, query string, k int) ([]Match, error) {
	entries, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	vectors, err := c.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}
	q := vectors[0]

	matches := make([]Match, 0, len(entries))
	for _, e := range entries {
		if len(e.vector) != len(q) {
			continue
		}
		matches = append(matches, Match{Example: e.example, Raw: cosineSimilarity(q, e.vector)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Raw > matches[j].Raw })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + 1e-12)
}
