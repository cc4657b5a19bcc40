package retrieval

import (
	"portfolio-rag/internal/corpus"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/textutil"
)

// thresholdEpsilon keeps candidates sitting exactly on a tier boundary.
const thresholdEpsilon = 1e-9

// SelectorConfig holds the tier breakpoints and selection constants.
type SelectorConfig struct {
	TightAt        float64 `toml:"tight_at"`
	TightMargin    float64 `toml:"tight_margin"`
	ModerateAt     float64 `toml:"moderate_at"`
	ModerateMargin float64 `toml:"moderate_margin"`
	WideMargin     float64 `toml:"wide_margin"`
	// MinUsableScore is the absolute floor under every tier.
	MinUsableScore float64 `toml:"min_usable_score"`
	// StartCount is where budgeted growth begins.
	StartCount int `toml:"start_count"`
	// MaxOverlap is the Jaccard overlap at which a candidate counts as a duplicate.
	MaxOverlap float64 `toml:"max_overlap"`
	// FallbackCount caps the terminal fallback.
	FallbackCount int `toml:"fallback_count"`
	// QuoteRunes caps citation quotes.
	QuoteRunes int `toml:"quote_runes"`
	// GatedIntents map an intent to the source type preferred under low confidence.
	GatedIntents map[string]string `toml:"gated_intents"`
}

// DefaultSelectorConfig returns the tuned defaults.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		TightAt:        0.8,
		TightMargin:    0.1,
		ModerateAt:     0.65,
		ModerateMargin: 0.2,
		WideMargin:     0.3,
		MinUsableScore: 0.15,
		StartCount:     3,
		MaxOverlap:     0.5,
		FallbackCount:  10,
		QuoteRunes:     240,
		GatedIntents: map[string]string{
			string(intent.CaseStudy):  string(corpus.SourceCaseStudy),
			string(intent.Experience): string(corpus.SourceExperience),
		},
	}
}

// Selector picks a diverse context that fits the token budget.
type Selector struct {
	cfg SelectorConfig
}

// NewSelector creates a selector.
func NewSelector(cfg SelectorConfig) *Selector {
	if cfg.StartCount <= 0 {
		cfg.StartCount = 1
	}
	if cfg.FallbackCount <= 0 {
		cfg.FallbackCount = 10
	}
	return &Selector{cfg: cfg}
}

// tier returns the band and threshold for the top boosted score.
func (s *Selector) tier(top float64) (Tier, float64) {
	var (
		t      Tier
		margin float64
	)
	switch {
	case top >= s.cfg.TightAt:
		t, margin = TierTight, s.cfg.TightMargin
	case top >= s.cfg.ModerateAt:
		t, margin = TierModerate, s.cfg.ModerateMargin
	default:
		t, margin = TierWide, s.cfg.WideMargin
	}
	return t, max(top-margin, s.cfg.MinUsableScore)
}

// Select chooses passages from ranked, which must be sorted by boosted score.
// maxCount caps the selection (zero means no cap) and budget caps the summed
// token estimate. The result is empty only when ranked is.
func (s *Selector) Select(ranked []Boosted, id intent.ID, maxCount, budget int) Selection {
	if len(ranked) == 0 {
		return Selection{Tier: TierFallback, LowConfidence: true}
	}

	tier, threshold := s.tier(ranked[0].Score)
	sel := Selection{Tier: tier, Threshold: threshold, LowConfidence: tier == TierWide}

	pool := aboveThreshold(ranked, threshold)
	if tier == TierWide {
		if sourceType, ok := s.cfg.GatedIntents[string(id)]; ok {
			if onType := s.onType(ranked, sourceType); len(onType) > 0 {
				pool = onType
			}
		}
	}

	if len(pool) == 0 {
		sel.Tier = TierFallback
		sel.LowConfidence = true
		pool = ranked[:min(s.cfg.FallbackCount, len(ranked))]
		maxCount = len(pool)
	}

	sel.Passages = s.grow(pool, maxCount, budget)
	sel.Tokens = tokens(sel.Passages)
	sel.Citations = Citations(sel.Passages, s.cfg.QuoteRunes)
	return sel
}

func aboveThreshold(ranked []Boosted, threshold float64) []Boosted {
	var out []Boosted
	for _, c := range ranked {
		if c.Score+thresholdEpsilon >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// onType returns the usable candidates of sourceType from the whole ranking.
func (s *Selector) onType(ranked []Boosted, sourceType string) []Boosted {
	var out []Boosted
	for _, c := range ranked {
		if string(c.Metadata.SourceType) == sourceType && c.Score+thresholdEpsilon >= s.cfg.MinUsableScore {
			out = append(out, c)
		}
	}
	return out
}

// grow starts at StartCount diverse passages and adds one at a time while the
// token estimate stays within budget. A start that is already over budget
// shrinks until it fits or only one passage remains.
func (s *Selector) grow(pool []Boosted, maxCount, budget int) []Boosted {
	limit := len(pool)
	if maxCount > 0 {
		limit = min(limit, maxCount)
	}
	if limit == 0 {
		return nil
	}
	sets := tokenSets(pool)

	n := min(s.cfg.StartCount, limit)
	chosen := s.diverse(pool, sets, n)
	if budget <= 0 {
		return chosen
	}

	for n > 1 && tokens(chosen) > budget {
		n--
		chosen = s.diverse(pool, sets, n)
	}
	for n < limit {
		next := s.diverse(pool, sets, n+1)
		if tokens(next) > budget {
			break
		}
		chosen = next
		n++
	}
	return chosen
}

// diverse walks pool in order, taking candidates whose overlap with every
// accepted one is below MaxOverlap, then backfills from the skipped ones.
func (s *Selector) diverse(pool []Boosted, sets []map[string]struct{}, n int) []Boosted {
	n = min(n, len(pool))
	accepted := make([]int, 0, n)
	var skipped []int
	for i := range pool {
		if len(accepted) == n {
			break
		}
		redundant := false
		for _, j := range accepted {
			if textutil.Jaccard(sets[i], sets[j]) >= s.cfg.MaxOverlap {
				redundant = true
				break
			}
		}
		if redundant {
			skipped = append(skipped, i)
			continue
		}
		accepted = append(accepted, i)
	}
	for _, i := range skipped {
		if len(accepted) == n {
			break
		}
		accepted = append(accepted, i)
	}

	out := make([]Boosted, len(accepted))
	for k, i := range accepted {
		out[k] = pool[i]
	}
	return out
}

func tokenSets(pool []Boosted) []map[string]struct{} {
	sets := make([]map[string]struct{}, len(pool))
	for i, c := range pool {
		sets[i] = textutil.TokenSet(c.Text)
	}
	return sets
}

func tokens(list []Boosted) int {
	total := 0
	for _, c := range list {
		total += textutil.EstimateTokens(c.Text)
	}
	return total
}
