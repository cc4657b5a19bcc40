package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"
)

// ChunkerVersion identifies the chunking logic. Bump it when passage
// boundaries change so stale indexes are detectable.
const ChunkerVersion = "v2.0"

// RunStats describes one ingestion run.
type RunStats struct {
	RunID           string          `json:"run_id"`
	StartedAt       time.Time       `json:"started_at"`
	Duration        time.Duration   `json:"duration_ns"`
	FilesScanned    int             `json:"files_scanned"`
	FilesIndexed    int             `json:"files_indexed"`
	FilesUnchanged  int             `json:"files_unchanged"`
	FilesEmpty      int             `json:"files_empty"`
	FilesRemoved    int             `json:"files_removed"`
	FilesFailed     int             `json:"files_failed"`
	Failures        []FileFailure   `json:"failures,omitempty"`
	PassagesWritten int             `json:"passages_written"`
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	ChunkerVersion  string          `json:"chunker_version"`
	// IndexVersion is a hash of chunker version, embedding model and chunking params.
	IndexVersion string `json:"index_version"`
}

// FileFailure records why one file could not be indexed.
type FileFailure struct {
	RelPath string `json:"rel_path"`
	Error   string `json:"error"`
}

// ChunkTokenStats contains statistics about token counts in passages.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func newRunStats(runID string, cfg ChunkerConfig, embeddingModel string) *RunStats {
	return &RunStats{
		RunID:          runID,
		StartedAt:      time.Now().UTC(),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   IndexVersion(cfg, embeddingModel),
	}
}

func (s *RunStats) finish() *RunStats {
	s.Duration = time.Since(s.StartedAt)
	return s
}

// IndexVersion returns a short hash identifying an index build.
func IndexVersion(cfg ChunkerConfig, embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|max=%d|overlap=%d|min=%d",
		ChunkerVersion, embeddingModel, cfg.MaxTokens, cfg.OverlapTokens, cfg.MinTokens)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
