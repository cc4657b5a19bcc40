package retrieval

import (
	"cmp"
	"slices"
	"strings"

	"portfolio-rag/internal/corpus"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/textutil"
)

// KeywordCluster is a topic recognized in both the query and passage keywords.
type KeywordCluster struct {
	Name      string   `toml:"name"`
	Terms     []string `toml:"terms"`
	Increment float64  `toml:"increment"`
}

// BoosterConfig holds the boost constants.
type BoosterConfig struct {
	// Table maps intent ID to source type to increment.
	Table    map[string]map[string]float64 `toml:"table"`
	Clusters []KeywordCluster              `toml:"clusters"`
	// EntityPerHit is added per query token found in the source name, up to EntityCap.
	EntityPerHit      float64 `toml:"entity_per_hit"`
	EntityCap         float64 `toml:"entity_cap"`
	EntityMinTokenLen int     `toml:"entity_min_token_len"`
}

// DefaultBoosterConfig returns the tuned defaults.
func DefaultBoosterConfig() BoosterConfig {
	bio := string(corpus.SourceBio)
	leadership := string(corpus.SourceLeadership)
	experience := string(corpus.SourceExperience)
	caseStudy := string(corpus.SourceCaseStudy)
	content := string(corpus.SourceContent)

	return BoosterConfig{
		Table: map[string]map[string]float64{
			string(intent.Competencies):       {content: 0.10, caseStudy: 0.05},
			string(intent.Leadership):         {leadership: 0.20, experience: 0.05},
			string(intent.Experience):         {experience: 0.15, bio: 0.10},
			string(intent.CaseStudy):          {caseStudy: 0.20},
			string(intent.ProductSense):       {caseStudy: 0.10},
			string(intent.ResearchProcess):    {caseStudy: 0.10, content: 0.05},
			string(intent.DesignSystems):      {caseStudy: 0.10, content: 0.05},
			string(intent.MetricsExperiments): {caseStudy: 0.15},
			string(intent.StakeholderMgmt):    {leadership: 0.10, caseStudy: 0.05},
			string(intent.ToolsAutomation):    {content: 0.10},
			string(intent.SkillVerification):  {experience: 0.10, caseStudy: 0.05},
			string(intent.DomainExpertise):    {experience: 0.10, caseStudy: 0.05},
			string(intent.FitAssessment):      {bio: 0.10, experience: 0.05},
			string(intent.Behavioral):         {leadership: 0.10, caseStudy: 0.05},
		},
		Clusters: []KeywordCluster{
			{
				Name:      "design_systems",
				Terms:     []string{"design system", "design systems", "component library", "design tokens", "storybook"},
				Increment: 0.05,
			},
			{
				Name:      "ai",
				Terms:     []string{"ai", "rag", "llm", "llms", "genai", "machine learning", "gpt"},
				Increment: 0.05,
			},
		},
		EntityPerHit:      0.03,
		EntityCap:         0.15,
		EntityMinTokenLen: 3,
	}
}

// Booster applies intent, keyword and entity boosts to raw scores.
type Booster struct {
	cfg BoosterConfig
}

// NewBooster creates a booster.
func NewBooster(cfg BoosterConfig) *Booster {
	return &Booster{cfg: cfg}
}

// BoostSum returns the summed increment for c. It is never negative.
func (b *Booster) BoostSum(c Candidate, id intent.ID, query string) float64 {
	sum := b.cfg.Table[string(id)][string(c.Metadata.SourceType)]

	keywords := c.Metadata.Keywords()
	for _, cluster := range b.cfg.Clusters {
		if mentions(cluster.Terms, query) && mentionsAny(cluster.Terms, keywords) {
			sum += cluster.Increment
		}
	}

	sum += b.entityBoost(c, query)
	return max(0, sum)
}

// entityBoost rewards query tokens that appear literally in the source name.
func (b *Booster) entityBoost(c Candidate, query string) float64 {
	name := textutil.Fold(c.Metadata.SourceName)
	if name == "" {
		name = textutil.Fold(c.Metadata.DisplayName())
	}
	if name == "" {
		return 0
	}
	hits := 0
	for _, token := range textutil.ContentTokens(textutil.Fold(query), b.cfg.EntityMinTokenLen) {
		if strings.Contains(name, token) {
			hits++
		}
	}
	return min(b.cfg.EntityCap, b.cfg.EntityPerHit*float64(hits))
}

func mentions(terms []string, text string) bool {
	for _, term := range terms {
		if textutil.ContainsPhrase(text, term) {
			return true
		}
	}
	return false
}

func mentionsAny(terms, texts []string) bool {
	for _, text := range texts {
		if mentions(terms, text) {
			return true
		}
	}
	return false
}

// Boost scores every candidate and returns them by boosted score, then raw
// score, then key.
func (b *Booster) Boost(candidates map[string]Candidate, id intent.ID, query string) []Boosted {
	out := make([]Boosted, 0, len(candidates))
	for _, c := range candidates {
		sum := b.BoostSum(c, id, query)
		out = append(out, Boosted{Candidate: c, Boost: sum, Score: c.Raw * (1 + sum)})
	}
	SortBoosted(out)
	return out
}

// SortBoosted orders by descending score with deterministic tie-breaks.
func SortBoosted(list []Boosted) {
	slices.SortFunc(list, func(a, b Boosted) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Raw, a.Raw); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
}
