package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/corpus"
	"portfolio-rag/internal/llm"
	"portfolio-rag/internal/textutil"
	"portfolio-rag/internal/vectorstore"
)

// DefaultBatchSize is the number of passages embedded per provider call.
const DefaultBatchSize = 64

// PassageStore is the durable side of ingestion.
type PassageStore interface {
	// FileHashes returns the content hash recorded for every indexed file.
	FileHashes(ctx context.Context) (map[string]string, error)
	// ReplaceFile swaps all passages of file.
	ReplaceFile(ctx context.Context, file, hash string, passages []corpus.Passage) error
	// DeleteByFile removes all passages of file.
	DeleteByFile(ctx context.Context, file string) error
}

// PipelineConfig controls a Pipeline.
type PipelineConfig struct {
	// Root is the corpus directory.
	Root string
	// BatchSize caps texts per embedding call.
	BatchSize int
	// Force re-indexes files whose content hash is unchanged.
	Force bool
	// EmbeddingModel is recorded in the index version.
	EmbeddingModel string
}

// Pipeline turns markdown files into embedded passages. Passages go to the
// durable store and to every mirror (e.g. Qdrant).
type Pipeline struct {
	store    PassageStore
	embedder llm.Embedder
	chunker  *GoldmarkChunker
	mirrors  []vectorstore.Writer
	cfg      PipelineConfig
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(store PassageStore, embedder llm.Embedder, chunker *GoldmarkChunker, cfg PipelineConfig, mirrors ...vectorstore.Writer) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Pipeline{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		mirrors:  mirrors,
		cfg:      cfg,
	}
}

// FileOutcome says what happened to one file.
type FileOutcome string

const (
	OutcomeIndexed   FileOutcome = "indexed"
	OutcomeUnchanged FileOutcome = "unchanged"
	OutcomeEmpty     FileOutcome = "empty"
)

// BuildPassages parses one document into passages without embeddings.
func (p *Pipeline) BuildPassages(relPath string, content []byte) ([]corpus.Passage, error) {
	fm, body, err := ParseFrontmatter(content)
	if err != nil {
		return nil, err
	}
	title, chunks, err := p.chunker.ChunkMarkdown(body, relPath)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk markdown: %w", err)
	}

	base := fm.Metadata(relPath)
	if base.SourceName == "" {
		base.SourceName = title
	}

	passages := make([]corpus.Passage, 0, len(chunks))
	for _, chunk := range chunks {
		meta := base
		meta.ChunkIndex = chunk.Index
		text := chunk.Text
		if chunk.Heading != "" && !strings.EqualFold(chunk.Heading, title) {
			text = chunk.Heading + "\n" + text
		}
		passages = append(passages, corpus.Passage{
			ID:       corpus.PassageID(relPath, chunk.Index),
			Text:     text,
			Metadata: meta,
		})
	}
	return passages, nil
}

// IndexFile indexes one file. knownHash is the hash stored by the last run, or "".
func (p *Pipeline) IndexFile(ctx context.Context, file ScannedFile, knownHash string) (FileOutcome, []corpus.Passage, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file %s: %w", file.AbsPath, err)
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	if !p.cfg.Force && knownHash == hash {
		logger.DebugContext(ctx, "skipping unchanged file", "rel_path", file.RelPath, "hash", hash)
		return OutcomeUnchanged, nil, nil
	}

	passages, err := p.BuildPassages(file.RelPath, content)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse %s: %w", file.RelPath, err)
	}

	if err := p.embed(ctx, passages); err != nil {
		return "", nil, err
	}

	for _, m := range p.mirrors {
		if err := m.DeleteByFile(ctx, file.RelPath); err != nil {
			return "", nil, fmt.Errorf("failed to delete old passages from mirror: %w", err)
		}
		if len(passages) > 0 {
			if err := m.Upsert(ctx, passages); err != nil {
				return "", nil, fmt.Errorf("failed to upsert passages to mirror: %w", err)
			}
		}
	}
	// The durable store is written last so its hash only advances once every mirror succeeded.
	if err := p.store.ReplaceFile(ctx, file.RelPath, hash, passages); err != nil {
		return "", nil, fmt.Errorf("failed to store passages: %w", err)
	}

	if len(passages) == 0 {
		logger.WarnContext(ctx, "no passages generated", "rel_path", file.RelPath)
		return OutcomeEmpty, nil, nil
	}
	logger.InfoContext(ctx, "indexed file", "rel_path", file.RelPath, "passages", len(passages))
	return OutcomeIndexed, passages, nil
}

// embed fills in passage embeddings in batches.
func (p *Pipeline) embed(ctx context.Context, passages []corpus.Passage) error {
	for start := 0; start < len(passages); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(passages))
		texts := make([]string, 0, end-start)
		for _, ps := range passages[start:end] {
			texts = append(texts, ps.Text)
		}

		vectors, err := p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors))
		}
		for i, v := range vectors {
			passages[start+i].Embedding = v
		}
	}
	return nil
}

// IndexAll scans the corpus root, indexes new and changed files and removes
// passages of files that no longer exist. Errors for individual files are
// logged and counted; the run continues.
func (p *Pipeline) IndexAll(ctx context.Context) (*RunStats, error) {
	logger := contextutil.LoggerFromContext(ctx)
	stats := newRunStats(uuid.New().String(), p.chunker.Config(), p.cfg.EmbeddingModel)
	logger = logger.With("run_id", stats.RunID)

	files, err := ScanDir(ctx, p.cfg.Root)
	if err != nil {
		return nil, err
	}
	known, err := p.store.FileHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load indexed files: %w", err)
	}
	stats.FilesScanned = len(files)
	logger.InfoContext(ctx, "starting indexing", "root", p.cfg.Root, "total_files", len(files), "known_files", len(known))

	seen := make(map[string]struct{}, len(files))
	var tokenCounts []int
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return stats.finish(), err
		}
		seen[file.RelPath] = struct{}{}

		outcome, passages, err := p.IndexFile(ctx, file, known[file.RelPath])
		if err != nil {
			stats.FilesFailed++
			stats.Failures = append(stats.Failures, FileFailure{RelPath: file.RelPath, Error: err.Error()})
			logger.ErrorContext(ctx, "failed to index file", "rel_path", file.RelPath, "error", err)
			continue
		}
		switch outcome {
		case OutcomeIndexed:
			stats.FilesIndexed++
		case OutcomeUnchanged:
			stats.FilesUnchanged++
		case OutcomeEmpty:
			stats.FilesEmpty++
		}
		stats.PassagesWritten += len(passages)
		for _, ps := range passages {
			tokenCounts = append(tokenCounts, textutil.EstimateTokens(ps.Text))
		}
	}

	var removeErrs []error
	for file := range known {
		if _, ok := seen[file]; ok {
			continue
		}
		if err := p.remove(ctx, file); err != nil {
			removeErrs = append(removeErrs, err)
			logger.ErrorContext(ctx, "failed to remove deleted file", "rel_path", file, "error", err)
			continue
		}
		stats.FilesRemoved++
		logger.InfoContext(ctx, "removed passages of deleted file", "rel_path", file)
	}

	stats.ChunkTokenStats = computeTokenStats(tokenCounts)
	stats.finish()
	logger.InfoContext(ctx, "indexing completed",
		"total_files", stats.FilesScanned,
		"indexed", stats.FilesIndexed,
		"unchanged", stats.FilesUnchanged,
		"removed", stats.FilesRemoved,
		"errors", stats.FilesFailed,
		"passages", stats.PassagesWritten,
	)

	if stats.FilesFailed > 0 {
		removeErrs = append(removeErrs, fmt.Errorf("indexing completed with %d errors", stats.FilesFailed))
	}
	return stats, errors.Join(removeErrs...)
}

func (p *Pipeline) remove(ctx context.Context, file string) error {
	for _, m := range p.mirrors {
		if err := m.DeleteByFile(ctx, file); err != nil {
			return fmt.Errorf("failed to delete %s from mirror: %w", file, err)
		}
	}
	return p.store.DeleteByFile(ctx, file)
}
