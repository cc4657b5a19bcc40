package retrieval

import (
	"errors"

	"portfolio-rag/internal/corpus"
)

// ErrNoExpansionSucceeded is returned when every expansion failed to retrieve.
var ErrNoExpansionSucceeded = errors.New("no expansion retrieved any candidates")

// Candidate is a passage deduplicated across expansions. Raw is the best
// store score seen for its Key.
type Candidate struct {
	Key      string
	ID       string
	Text     string
	Metadata corpus.Metadata
	Raw      float64
}

// Boosted is a candidate with its heuristic boost applied.
type Boosted struct {
	Candidate
	// Boost is the summed increment, Score = Raw * (1 + Boost).
	Boost float64
	Score float64
}

// Tier is the confidence band chosen from the top boosted score.
type Tier string

const (
	TierTight    Tier = "tight"
	TierModerate Tier = "moderate"
	TierWide     Tier = "wide"
	// TierFallback means no candidate cleared a usable threshold.
	TierFallback Tier = "fallback"
)

// Citation is a source reference shown with an answer.
type Citation struct {
	Quote      string `json:"quote"`
	SourceName string `json:"source_name"`
	Link       string `json:"link,omitempty"`
}

// Selection is the context chosen for generation.
type Selection struct {
	Passages      []Boosted
	Citations     []Citation
	LowConfidence bool
	Tier          Tier
	Threshold     float64
	Tokens        int
}
