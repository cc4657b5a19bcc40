package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/corpus"
)

// ErrIndexingInProgress is returned when a run is requested while another is active.
var ErrIndexingInProgress = errors.New("indexing already in progress")

// PassageSource lists the durable corpus.
type PassageSource interface {
	ListAll(ctx context.Context) ([]corpus.Passage, error)
}

// PassageSink receives the refreshed corpus after a run.
type PassageSink interface {
	Replace(passages []corpus.Passage)
}

// Syncer runs the pipeline one run at a time and refreshes a live in-memory
// store from the durable corpus afterwards.
type Syncer struct {
	pipeline *Pipeline
	source   PassageSource
	sink     PassageSink
	mu       sync.Mutex
}

// NewSyncer creates a Syncer. sink may be nil when the serving store is
// written directly by the pipeline (e.g. Qdrant).
func NewSyncer(pipeline *Pipeline, source PassageSource, sink PassageSink) *Syncer {
	return &Syncer{pipeline: pipeline, source: source, sink: sink}
}

// Reindex runs the pipeline. force re-embeds unchanged files.
func (s *Syncer) Reindex(ctx context.Context, force bool) (*RunStats, error) {
	if !s.mu.TryLock() {
		return nil, ErrIndexingInProgress
	}
	defer s.mu.Unlock()

	p := s.pipeline
	if force {
		p = p.forced()
	}
	stats, runErr := p.IndexAll(ctx)
	if stats == nil {
		return nil, runErr
	}

	if s.sink != nil {
		passages, err := s.source.ListAll(ctx)
		if err != nil {
			return stats, errors.Join(runErr, fmt.Errorf("failed to reload passages: %w", err))
		}
		s.sink.Replace(passages)
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "reloaded serving store", "passages", len(passages))
	}
	return stats, runErr
}

func (p *Pipeline) forced() *Pipeline {
	cp := *p
	cp.cfg.Force = true
	return &cp
}
