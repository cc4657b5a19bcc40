package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-rag/internal/corpus"
)

func testPassages() []corpus.Passage {
	return []corpus.Passage{
		{ID: "lead#0", Text: "I lead design teams through coaching and clear goals.", Embedding: []float32{1, 0, 0},
			Metadata: corpus.Metadata{File: "lead.md", SourceType: corpus.SourceLeadership}},
		{ID: "bio#0", Text: "Product designer based in Warsaw with ten years of experience.", Embedding: []float32{0.8, 0.6, 0},
			Metadata: corpus.Metadata{File: "bio.md", SourceType: corpus.SourceBio}},
		{ID: "case#0", Text: "The Acme design system reduced UI defects by forty percent.", Embedding: []float32{0, 0, 1},
			Metadata: corpus.Metadata{File: "case.md", SourceType: corpus.SourceCaseStudy}},
	}
}

func TestMemoryStore_Count(t *testing.T) {
	store := NewMemoryStore(testPassages())
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	empty := NewMemoryStore(nil)
	n, err = empty.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMemoryStore_SearchVector(t *testing.T) {
	store := NewMemoryStore(testPassages())

	results, err := store.Search(context.Background(), SearchQuery{
		Vector:          []float32{1, 0, 0},
		TopK:            2,
		SimilarityFloor: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "lead#0", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "bio#0", results[1].ID)
	assert.InDelta(t, 0.8, results[1].Score, 1e-6)
	assert.Equal(t, corpus.SourceLeadership, results[0].Metadata.SourceType)
}

func TestMemoryStore_SearchFloorDropsVectorHits(t *testing.T) {
	store := NewMemoryStore(testPassages())

	results, err := store.Search(context.Background(), SearchQuery{
		Vector:          []float32{1, 0, 0},
		TopK:            5,
		SimilarityFloor: 0.9,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "lead#0", results[0].ID)
}

func TestMemoryStore_LexicalOnlyFallback(t *testing.T) {
	store := NewMemoryStore(testPassages())

	results, err := store.Search(context.Background(), SearchQuery{
		Text:            "design system defects",
		Vector:          make([]float32, 3),
		TopK:            5,
		SimilarityFloor: LexicalOnlyFloor,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "case#0", results[0].ID)
	assert.InDelta(t, DefaultLexicalWeight, results[0].Score, 1e-6)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestMemoryStore_HybridTakesBetterScore(t *testing.T) {
	store := NewMemoryStore(testPassages())

	results, err := store.Search(context.Background(), SearchQuery{
		Text:            "Warsaw",
		Vector:          []float32{1, 0, 0},
		TopK:            3,
		SimilarityFloor: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "lead#0", results[0].ID)
	assert.Equal(t, "bio#0", results[1].ID)
	assert.InDelta(t, 0.8, results[1].Score, 1e-6)
}

func TestMemoryStore_LexicalSearch(t *testing.T) {
	store := NewMemoryStore(testPassages())

	results, err := store.LexicalSearch(context.Background(), "coaching goals", 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "lead#0", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestMemoryStore_InvalidTopK(t *testing.T) {
	store := NewMemoryStore(testPassages())
	_, err := store.Search(context.Background(), SearchQuery{Text: "x", TopK: 0})
	assert.Error(t, err)
}

func TestMemoryStore_UpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testPassages())

	require.NoError(t, store.Upsert(ctx, []corpus.Passage{
		{ID: "bio#0", Text: "Updated bio", Metadata: corpus.Metadata{File: "bio.md"}},
		{ID: "bio#1", Text: "Second bio chunk", Metadata: corpus.Metadata{File: "bio.md"}},
	}))
	n, _ := store.Count(ctx)
	assert.Equal(t, 4, n)

	require.NoError(t, store.DeleteByFile(ctx, "bio.md"))
	n, _ = store.Count(ctx)
	assert.Equal(t, 2, n)
}

func TestMemoryStore_ConcurrentUpsertsKeepEveryPassage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	const writers = 16
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			file := fmt.Sprintf("file%d.md", i)
			assert.NoError(t, store.Upsert(ctx, []corpus.Passage{
				{ID: file + "#0", Text: "chunk zero of " + file, Metadata: corpus.Metadata{File: file}},
				{ID: file + "#1", Text: "chunk one of " + file, Metadata: corpus.Metadata{File: file}},
			}))
		}()
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2*writers, n)

	require.NoError(t, store.DeleteByFile(ctx, "file7.md"))
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2*writers-2, n)
}

func TestMemoryStore_ConcurrentDeleteAndUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testPassages())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, store.DeleteByFile(ctx, "lead.md"))
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, store.Upsert(ctx, []corpus.Passage{
			{ID: "new#0", Text: "Fresh passage", Metadata: corpus.Metadata{File: "new.md"}},
		}))
	}()
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMemoryStore_LexicalWeight(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(testPassages())
	store.Tune(Config{LexicalWeight: 0.25})

	results, err := store.Search(ctx, SearchQuery{Text: "Acme design system defects", TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "case#0", results[0].ID)
	assert.LessOrEqual(t, results[0].Score, float32(0.25))
}

func TestIsZeroVector(t *testing.T) {
	assert.True(t, IsZeroVector(nil))
	assert.True(t, IsZeroVector([]float32{0, 0}))
	assert.False(t, IsZeroVector([]float32{0, 0.1}))
}
