package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"portfolio-rag/internal/indexer"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/retrieval"
	"portfolio-rag/internal/vectorstore"
)

// Tuning groups every empirically tuned constant of the pipeline.
type Tuning struct {
	Intent      intent.Config             `toml:"intent"`
	Adjudicator intent.AdjudicatorConfig  `toml:"adjudicator"`
	Expander    retrieval.ExpanderConfig  `toml:"expander"`
	Retriever   retrieval.RetrieverConfig `toml:"retriever"`
	Booster     retrieval.BoosterConfig   `toml:"booster"`
	Selector    retrieval.SelectorConfig  `toml:"selector"`
	Chunker     indexer.ChunkerConfig     `toml:"chunker"`
	Store       vectorstore.Config        `toml:"store"`
}

// DefaultTuning returns the tuned defaults.
func DefaultTuning() Tuning {
	return Tuning{
		Intent:      intent.DefaultConfig(),
		Adjudicator: intent.DefaultAdjudicatorConfig(),
		Expander:    retrieval.DefaultExpanderConfig(),
		Retriever:   retrieval.DefaultRetrieverConfig(),
		Booster:     retrieval.DefaultBoosterConfig(),
		Selector:    retrieval.DefaultSelectorConfig(),
		Chunker:     indexer.DefaultChunkerConfig(),
		Store:       vectorstore.DefaultConfig(),
	}
}

// LoadTuning decodes the TOML file at path over DefaultTuning. An empty path
// returns the defaults. Unknown keys are rejected so typos do not go unnoticed.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to open tuning file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Tuning{}, fmt.Errorf("unknown tuning keys in %s:\n%s", path, strict.String())
		}
		return Tuning{}, fmt.Errorf("failed to decode tuning file %s: %w", path, err)
	}

	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// Validate checks the relations between tuned values.
func (t Tuning) Validate() error {
	var errs []error
	if t.Intent.AggregateK <= 0 || t.Intent.SearchK < t.Intent.AggregateK {
		errs = append(errs, fmt.Errorf("intent: search_k (%d) must be >= aggregate_k (%d) > 0", t.Intent.SearchK, t.Intent.AggregateK))
	}
	if t.Intent.Threshold < 0 || t.Intent.Threshold > 1 {
		errs = append(errs, fmt.Errorf("intent: threshold must be within [0, 1], got %g", t.Intent.Threshold))
	}
	for _, rule := range t.Intent.Rules {
		if !rule.Intent.Valid() {
			errs = append(errs, fmt.Errorf("intent: rule targets unknown intent %q", rule.Intent))
		}
	}
	if t.Adjudicator.RelativeGap < 0 {
		errs = append(errs, errors.New("adjudicator: relative_gap must not be negative"))
	}
	if t.Retriever.PoolMultiplier <= 0 || t.Retriever.PoolMin <= 0 {
		errs = append(errs, errors.New("retriever: pool_multiplier and pool_min must be positive"))
	}
	if t.Selector.ModerateAt > t.Selector.TightAt {
		errs = append(errs, fmt.Errorf("selector: moderate_at (%g) must not exceed tight_at (%g)", t.Selector.ModerateAt, t.Selector.TightAt))
	}
	if t.Selector.MaxOverlap <= 0 || t.Selector.MaxOverlap > 1 {
		errs = append(errs, fmt.Errorf("selector: max_overlap must be within (0, 1], got %g", t.Selector.MaxOverlap))
	}
	if t.Chunker.MaxTokens <= 0 {
		errs = append(errs, errors.New("chunker: max_tokens must be positive"))
	}
	if t.Store.LexicalWeight <= 0 || t.Store.LexicalWeight > 1 {
		errs = append(errs, fmt.Errorf("store: lexical_weight must be within (0, 1], got %g", t.Store.LexicalWeight))
	}
	if t.Store.LexicalScanFactor < 1 {
		errs = append(errs, fmt.Errorf("store: lexical_scan_factor must be at least 1, got %d", t.Store.LexicalScanFactor))
	}
	return errors.Join(errs...)
}
