package vectorstore

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/SaiNageswarS/go-collection-boot/ds"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/corpus"
)

const (
	// DefaultLexicalWeight scales normalized lexical scores in hybrid mode.
	DefaultLexicalWeight = 0.5
	// DefaultLexicalScanFactor widens the Qdrant full-text scroll.
	DefaultLexicalScanFactor = 4
)

// MemoryStore is an in-process hybrid store: cosine similarity over passage
// embeddings plus BM25 over passage text. It is safe for concurrent use;
// Replace swaps the whole corpus atomically.
type MemoryStore struct {
	mu            sync.RWMutex
	passages      []corpus.Passage
	lexical       *bm25Index
	lexicalWeight float64
}

// NewMemoryStore builds a store over passages.
func NewMemoryStore(passages []corpus.Passage) *MemoryStore {
	s := &MemoryStore{lexicalWeight: DefaultLexicalWeight}
	s.Replace(passages)
	return s
}

// Tune applies cfg. Non-positive values keep the current setting.
func (s *MemoryStore) Tune(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.LexicalWeight > 0 {
		s.lexicalWeight = cfg.LexicalWeight
	}
}

// Replace swaps the indexed corpus.
func (s *MemoryStore) Replace(passages []corpus.Passage) {
	copied := slices.Clone(passages)
	idx := buildLexical(copied)

	s.mu.Lock()
	s.passages = copied
	s.lexical = idx
	s.mu.Unlock()
}

func buildLexical(passages []corpus.Passage) *bm25Index {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return newBM25Index(texts)
}

// swapLocked installs passages and rebuilds the lexical index. Callers hold
// the write lock, so concurrent writers never merge into a stale snapshot.
func (s *MemoryStore) swapLocked(passages []corpus.Passage) {
	s.passages = passages
	s.lexical = buildLexical(passages)
}

// Count returns the number of passages.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passages), nil
}

type scored struct {
	idx   int
	score float64
	id    string
}

// worse orders results so the heap root is the weakest: lower score first,
// then larger ID first, keeping eviction deterministic on ties.
func worse(a, b scored) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.id > b.id
}

func (s *MemoryStore) topK(candidates []scored, k int) []scored {
	h := ds.NewMinHeap(worse)
	for _, c := range candidates {
		h.Push(c)
		if h.Len() > k {
			h.Pop()
		}
	}
	out := h.ToSortedSlice()
	slices.SortFunc(out, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	return out
}

func (s *MemoryStore) results(top []scored) []SearchResult {
	out := make([]SearchResult, 0, len(top))
	for _, t := range top {
		p := s.passages[t.idx]
		out = append(out, SearchResult{
			ID:       p.ID,
			Text:     p.Text,
			Score:    float32(t.score),
			Metadata: p.Metadata,
		})
	}
	return out
}

// Search scores every passage by the better of its vector similarity (when it
// clears the floor) and its weighted lexical score.
func (s *MemoryStore) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	if q.TopK <= 0 {
		return nil, fmt.Errorf("top_k must be greater than 0")
	}
	logger := contextutil.LoggerFromContext(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()

	useVector := !IsZeroVector(q.Vector)
	var lexical []float64
	if q.Text != "" {
		lexical = s.lexical.normalizedScores(q.Text)
	}

	candidates := make([]scored, 0, len(s.passages))
	var vectorHits, lexicalHits int
	for i, p := range s.passages {
		best := math.Inf(-1)
		if useVector && len(p.Embedding) == len(q.Vector) {
			if sim := cosine(q.Vector, p.Embedding); sim >= float64(q.SimilarityFloor) {
				best = sim
				vectorHits++
			}
		}
		if lexical != nil && lexical[i] > 0 {
			if lex := lexical[i] * s.lexicalWeight; lex > best {
				best = lex
			}
			lexicalHits++
		}
		if math.IsInf(best, -1) {
			continue
		}
		candidates = append(candidates, scored{idx: i, score: best, id: p.ID})
	}

	out := s.results(s.topK(candidates, q.TopK))
	logger.DebugContext(ctx, "memory search completed",
		"top_k", q.TopK,
		"vector_hits", vectorHits,
		"lexical_hits", lexicalHits,
		"results", len(out),
	)
	return out, nil
}

// LexicalSearch ranks passages by normalized BM25 only.
func (s *MemoryStore) LexicalSearch(ctx context.Context, text string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := s.lexical.normalizedScores(text)
	candidates := make([]scored, 0, len(scores))
	for i, sc := range scores {
		if sc > 0 {
			candidates = append(candidates, scored{idx: i, score: sc, id: s.passages[i].ID})
		}
	}
	return s.results(s.topK(candidates, k)), nil
}

// Upsert replaces passages with matching IDs and appends new ones.
func (s *MemoryStore) Upsert(ctx context.Context, passages []corpus.Passage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := slices.Clone(s.passages)
	pos := make(map[string]int, len(merged))
	for i, p := range merged {
		pos[p.ID] = i
	}
	for _, p := range passages {
		if i, ok := pos[p.ID]; ok {
			merged[i] = p
			continue
		}
		pos[p.ID] = len(merged)
		merged = append(merged, p)
	}
	s.swapLocked(merged)
	return nil
}

// DeleteByFile drops every passage whose metadata points at file.
func (s *MemoryStore) DeleteByFile(ctx context.Context, file string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := slices.DeleteFunc(slices.Clone(s.passages), func(p corpus.Passage) bool {
		return p.Metadata.File == file
	})
	if len(kept) == len(s.passages) {
		return nil
	}
	s.swapLocked(kept)
	return nil
}

// cosine returns the cosine similarity of a and b.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + 1e-12)
}
