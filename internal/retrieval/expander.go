package retrieval

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/textutil"
	"portfolio-rag/internal/vectorstore"
)

// queryPlaceholder marks where the query goes in a template. Templates without
// it are appended to the query.
const queryPlaceholder = "{query}"

// ExpanderConfig holds the expansion templates and pseudo-relevance feedback settings.
type ExpanderConfig struct {
	// Templates maps an intent ID to its templates, highest priority first.
	Templates map[string][]string `toml:"templates"`
	// MaxExpansions caps the output, including the query itself.
	MaxExpansions int `toml:"max_expansions"`
	// PRFSeedK is how many lexical hits feed pseudo-relevance feedback. Zero disables it.
	PRFSeedK int `toml:"prf_seed_k"`
	// PRFTerms caps the feedback expansions.
	PRFTerms int `toml:"prf_terms"`
	// PRFMinTokenLen drops short feedback terms.
	PRFMinTokenLen int `toml:"prf_min_token_len"`
}

// DefaultExpanderConfig returns the tuned defaults.
func DefaultExpanderConfig() ExpanderConfig {
	return ExpanderConfig{
		Templates: map[string][]string{
			string(intent.Competencies):       {"{query} skills verification", "usability heuristics {query}", "{query} design process"},
			string(intent.Leadership):         {"{query} leadership style team mentoring", "{query} managing designers"},
			string(intent.Experience):         {"{query} career roles responsibilities", "{query} companies projects timeline"},
			string(intent.CaseStudy):          {"{query} case study outcomes metrics", "{query} project trade-offs"},
			string(intent.ProductSense):       {"{query} product prioritisation", "{query} problem framing"},
			string(intent.ResearchProcess):    {"{query} user research methods", "{query} usability testing synthesis"},
			string(intent.DesignSystems):      {"{query} design system components tokens", "{query} governance adoption"},
			string(intent.MetricsExperiments): {"{query} KPIs A/B tests", "{query} measuring impact"},
			string(intent.StakeholderMgmt):    {"{query} stakeholder alignment", "{query} conflict resolution"},
			string(intent.ToolsAutomation):    {"{query} tools AI automation workflow", "{query} Figma prototyping"},
			string(intent.SkillVerification):  {"{query} skills verification seniority"},
			string(intent.DomainExpertise):    {"{query} industry domain experience"},
			string(intent.FitAssessment):      {"{query} role fit strengths"},
			string(intent.Behavioral):         {"{query} situation action result"},
		},
		MaxExpansions:  4,
		PRFSeedK:       5,
		PRFTerms:       3,
		PRFMinTokenLen: 4,
	}
}

// Expander widens a query into up to MaxExpansions related strings.
type Expander struct {
	cfg      ExpanderConfig
	searcher vectorstore.LexicalSearcher
}

// NewExpander creates an expander. searcher may be nil, which disables feedback.
func NewExpander(cfg ExpanderConfig, searcher vectorstore.LexicalSearcher) *Expander {
	if cfg.MaxExpansions <= 0 {
		cfg.MaxExpansions = 4
	}
	return &Expander{cfg: cfg, searcher: searcher}
}

// Expand returns the query followed by its expansions for id. The first
// element is always query. Intents outside the retrieval families get no extras.
func (e *Expander) Expand(ctx context.Context, id intent.ID, query string) []string {
	query = strings.TrimSpace(query)
	out := []string{query}
	if !id.IsRetrieval() || e.cfg.MaxExpansions <= 1 {
		return out
	}
	slots := e.cfg.MaxExpansions - 1

	feedback := e.feedback(ctx, query)
	if len(feedback) > slots {
		feedback = feedback[:slots]
	}

	seen := map[string]struct{}{textutil.Normalize(query): {}}
	add := func(s string) {
		key := textutil.Normalize(s)
		if _, dup := seen[key]; dup || key == "" {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	templates := e.cfg.Templates[string(id)]
	for _, tpl := range templates[:min(len(templates), slots-len(feedback))] {
		add(applyTemplate(tpl, query))
	}
	for _, term := range feedback {
		add(query + " " + term)
	}
	return out
}

func applyTemplate(tpl, query string) string {
	if strings.Contains(tpl, queryPlaceholder) {
		return strings.TrimSpace(strings.ReplaceAll(tpl, queryPlaceholder, query))
	}
	return query + " " + tpl
}

// feedback runs one lexical seed query and returns the most frequent content
// terms of its hits that are not already in the query.
func (e *Expander) feedback(ctx context.Context, query string) []string {
	if e.searcher == nil || e.cfg.PRFSeedK <= 0 || e.cfg.PRFTerms <= 0 {
		return nil
	}
	logger := contextutil.LoggerFromContext(ctx)

	hits, err := e.searcher.LexicalSearch(ctx, query, e.cfg.PRFSeedK)
	if err != nil {
		logger.WarnContext(ctx, "feedback search failed", "error", err)
		return nil
	}

	inQuery := textutil.TokenSet(textutil.Fold(query))
	counts := make(map[string]int)
	for _, hit := range hits {
		for _, token := range textutil.ContentTokens(textutil.Fold(hit.Text), e.cfg.PRFMinTokenLen) {
			if _, ok := inQuery[token]; ok {
				continue
			}
			counts[token]++
		}
	}

	type termCount struct {
		term  string
		count int
	}
	terms := make([]termCount, 0, len(counts))
	for term, count := range counts {
		terms = append(terms, termCount{term, count})
	}
	slices.SortFunc(terms, func(a, b termCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.term, b.term)
	})

	out := make([]string, 0, e.cfg.PRFTerms)
	for _, t := range terms[:min(len(terms), e.cfg.PRFTerms)] {
		out = append(out, t.term)
	}
	return out
}
