package intent

import (
	"cmp"
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"slices"
	"strings"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/textutil"
)

// scoreEpsilon is the tolerance under which two aggregate scores count as tied.
const scoreEpsilon = 1e-6

// Rule forces Intent when any keyword matches the query. Single-word keywords
// match as token prefixes ("nda" matches "NDA" and "ndas" but not "agenda");
// multi-word keywords match as phrases.
type Rule struct {
	Intent   ID       `toml:"intent" json:"intent"`
	Keywords []string `toml:"keywords" json:"keywords"`
}

// Config holds the classifier's tuned constants.
type Config struct {
	// SearchK is how many nearest examples are fetched. Must be >= AggregateK.
	SearchK int `toml:"search_k"`
	// AggregateK is how many of the fetched examples vote.
	AggregateK int `toml:"aggregate_k"`
	// Threshold is the minimum winning vote below which the query needs clarification.
	Threshold float64 `toml:"threshold"`
	// MaxCandidates caps the ranked intents kept for adjudication.
	MaxCandidates int `toml:"max_candidates"`
	// Priority breaks ties between equal votes.
	Priority []ID `toml:"priority"`
	// Rules are checked before any similarity search.
	Rules []Rule `toml:"rules"`
	// Scale overrides the index's reported score range when not ScaleAuto.
	Scale ScoreScale `toml:"-"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		SearchK:       24,
		AggregateK:    6,
		Threshold:     0.45,
		MaxCandidates: 2,
		Priority:      slices.Clone(DefaultPriority),
		Rules: []Rule{
			{Intent: NDAPrivacy, Keywords: []string{"nda", "pouf", "confidential"}},
		},
	}
}

// Evidence is one voting example.
type Evidence struct {
	Intent ID      `json:"intent"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// Candidate is an intent with its aggregated vote.
type Candidate struct {
	Intent ID      `json:"id"`
	Score  float64 `json:"score"`
}

// Result is the outcome of classifying one query.
type Result struct {
	TopIntent  ID          `json:"topIntent"`
	Confidence float64     `json:"confidence"`
	Evidence   []Evidence  `json:"evidence"`
	Candidates []Candidate `json:"candidates,omitempty"`
	// Override is set when a keyword rule decided the intent.
	Override bool `json:"override,omitempty"`
	// FellBack is set when the winning vote was under the threshold.
	FellBack bool `json:"fellBack,omitempty"`
}

// FallbackResult is the result used when classification cannot run.
func FallbackResult() Result {
	return Result{TopIntent: Clarification, Evidence: []Evidence{}, FellBack: true}
}

// Classifier maps queries to intents.
type Classifier struct {
	index ExampleIndex
	cfg   Config
}

// NewClassifier creates a classifier over index.
func NewClassifier(index ExampleIndex, cfg Config) *Classifier {
	if cfg.AggregateK <= 0 {
		cfg.AggregateK = 6
	}
	if cfg.SearchK < cfg.AggregateK {
		cfg.SearchK = cfg.AggregateK
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 2
	}
	return &Classifier{index: index, cfg: cfg}
}

// MatchRule returns the intent of the first rule matching query.
func (c *Classifier) MatchRule(query string) (ID, bool) {
	tokens := textutil.Tokenize(textutil.Fold(query))
	for _, rule := range c.cfg.Rules {
		for _, kw := range rule.Keywords {
			kw = textutil.Fold(kw)
			if kw == "" {
				continue
			}
			if strings.Contains(kw, " ") {
				if textutil.ContainsPhrase(query, kw) {
					return rule.Intent, true
				}
				continue
			}
			for _, token := range tokens {
				if strings.HasPrefix(token, kw) {
					return rule.Intent, true
				}
			}
		}
	}
	return "", false
}

// Classify returns the intent of query.
func (c *Classifier) Classify(ctx context.Context, query string) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if id, ok := c.MatchRule(query); ok {
		logger.DebugContext(ctx, "intent forced by rule", "intent", id)
		return Result{
			TopIntent:  id,
			Confidence: 1,
			Evidence:   []Evidence{{Intent: id, Score: 1, Text: query}},
			Candidates: []Candidate{{Intent: id, Score: 1}},
			Override:   true,
		}, nil
	}

	matches, err := c.index.Search(ctx, query, c.cfg.SearchK)
	if err != nil {
		return Result{}, fmt.Errorf("failed to search intent examples: %w", err)
	}

	scale := c.cfg.Scale
	if scale == ScaleAuto {
		scale = c.index.Scale()
	}
	evidence := make([]Evidence, 0, len(matches))
	for _, m := range matches {
		evidence = append(evidence, Evidence{
			Intent: m.Intent,
			Score:  NormalizeScore(m.Raw, scale),
			Text:   m.Text,
		})
	}
	sortEvidence(evidence)
	if len(evidence) > c.cfg.AggregateK {
		evidence = evidence[:c.cfg.AggregateK]
	}

	ranked := c.aggregate(evidence)
	if len(ranked) == 0 {
		return FallbackResult(), nil
	}

	top := ranked[0]
	result := Result{
		TopIntent:  top.Intent,
		Confidence: min(1, top.Score),
		Evidence:   evidence,
		Candidates: ranked[:min(c.cfg.MaxCandidates, len(ranked))],
	}
	if top.Score < c.cfg.Threshold {
		result.TopIntent = Clarification
		result.FellBack = true
	}

	logger.DebugContext(ctx, "intent classified",
		"intent", result.TopIntent,
		"winner", top.Intent,
		"score", top.Score,
		"fell_back", result.FellBack,
	)
	return result, nil
}

// aggregate sums votes per intent and ranks them by score, priority, then ID.
func (c *Classifier) aggregate(evidence []Evidence) []Candidate {
	sums := make(map[ID]float64)
	for _, e := range evidence {
		sums[e.Intent] += e.Score
	}
	priority := c.cfg.Priority
	ranked := make([]Candidate, 0, len(sums))
	for id, score := range sums {
		ranked = append(ranked, Candidate{Intent: id, Score: score})
	}
	slices.SortFunc(ranked, func(a, b Candidate) int {
		if math.Abs(a.Score-b.Score) > scoreEpsilon {
			return cmp.Compare(b.Score, a.Score)
		}
		if r := cmp.Compare(priorityRank(priority, a.Intent), priorityRank(priority, b.Intent)); r != 0 {
			return r
		}
		return cmp.Compare(a.Intent, b.Intent)
	})
	return ranked
}

// sortEvidence orders by similarity, then text, then a stable hash, so equal
// similarities give the same order regardless of what the index returned.
func sortEvidence(evidence []Evidence) {
	slices.SortFunc(evidence, func(a, b Evidence) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Text, b.Text); c != 0 {
			return c
		}
		return cmp.Compare(stableHash(a), stableHash(b))
	})
}

func stableHash(e Evidence) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(e.Intent))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(e.Text))
	return h.Sum32()
}
