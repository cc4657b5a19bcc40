package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/llm"
)

// ErrMalformedAdjudication is returned when the model's reply cannot be used.
var ErrMalformedAdjudication = errors.New("malformed adjudication response")

// RerankState tracks one adjudication attempt.
type RerankState string

const (
	// RerankNotNeeded means the top candidates were not close enough to ask.
	RerankNotNeeded RerankState = "not_needed"
	// RerankInvoked means the model was asked but gave no usable answer.
	RerankInvoked RerankState = "invoked"
	// RerankResolved means the model picked one of the two candidates.
	RerankResolved RerankState = "resolved"
)

// RerankOutcome reports what the adjudicator did.
type RerankOutcome struct {
	State  RerankState `json:"state"`
	From   ID          `json:"from,omitempty"`
	To     ID          `json:"to,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

// AdjudicatorConfig holds the adjudicator's tuned constants.
type AdjudicatorConfig struct {
	// Enabled turns adjudication on.
	Enabled bool `toml:"enabled"`
	// RelativeGap is the largest (top - second) / top that still counts as a close call.
	RelativeGap float64 `toml:"relative_gap"`
	// TieBreak is the preference order written into the instructions.
	TieBreak string `toml:"tie_break"`
}

// DefaultAdjudicatorConfig returns the tuned defaults.
func DefaultAdjudicatorConfig() AdjudicatorConfig {
	return AdjudicatorConfig{
		Enabled:     true,
		RelativeGap: 0.10,
		TieBreak:    "compliance > process.assignment_brief > assets.assets_request > logistics.compensation > retrieval_core.case_study",
	}
}

// Adjudicator asks an LLM to choose between two close intent candidates.
// It never fails a request: errors leave the classifier's choice in place.
type Adjudicator struct {
	generator llm.Generator
	cfg       AdjudicatorConfig
}

// NewAdjudicator creates an adjudicator backed by generator.
func NewAdjudicator(generator llm.Generator, cfg AdjudicatorConfig) *Adjudicator {
	return &Adjudicator{generator: generator, cfg: cfg}
}

// NeedsAdjudication reports whether res is a close call between exactly two intents.
func (a *Adjudicator) NeedsAdjudication(res Result) bool {
	if a == nil || a.generator == nil || !a.cfg.Enabled {
		return false
	}
	if res.Override || res.FellBack || len(res.Candidates) != 2 {
		return false
	}
	top, second := res.Candidates[0].Score, res.Candidates[1].Score
	if top <= 0 {
		return false
	}
	return (top-second)/top < a.cfg.RelativeGap
}

type adjudication struct {
	FinalIntent string `json:"final_intent"`
	Reason      string `json:"reason"`
}

func (a *Adjudicator) prompt(query string, first, second ID) llm.Prompt {
	system := fmt.Sprintf(`You are an intent adjudicator for interview conversations.
Given the candidate's message and two candidate intents, decide which is correct.
Prefer %s in ties.
Respond only with JSON: {"final_intent": "<one of the two ids>", "reason": "<short reason>"}.`, a.cfg.TieBreak)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Text: %s\n", query)
	fmt.Fprintf(&sb, "Candidates: %s vs %s\n", first, second)
	for _, id := range []ID{first, second} {
		if d := Describe(id); d != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", id, d)
		}
	}
	return llm.Prompt{System: system, User: sb.String(), MaxTokens: 200}
}

// parseAdjudication extracts the first JSON object from reply and checks that
// the chosen intent is one of the candidates.
func parseAdjudication(reply string, first, second ID) (adjudication, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return adjudication{}, fmt.Errorf("%w: no JSON object", ErrMalformedAdjudication)
	}
	var out adjudication
	if err := json.Unmarshal([]byte(reply[start:end+1]), &out); err != nil {
		return adjudication{}, fmt.Errorf("%w: %v", ErrMalformedAdjudication, err)
	}
	out.FinalIntent = strings.TrimSpace(out.FinalIntent)
	if ID(out.FinalIntent) != first && ID(out.FinalIntent) != second {
		return adjudication{}, fmt.Errorf("%w: %q is not a candidate", ErrMalformedAdjudication, out.FinalIntent)
	}
	return out, nil
}

// Rerank returns res with its top intent possibly replaced by the model's choice.
func (a *Adjudicator) Rerank(ctx context.Context, query string, res Result) (Result, RerankOutcome) {
	if !a.NeedsAdjudication(res) {
		return res, RerankOutcome{State: RerankNotNeeded}
	}
	logger := contextutil.LoggerFromContext(ctx)

	first, second := res.Candidates[0].Intent, res.Candidates[1].Intent
	outcome := RerankOutcome{State: RerankInvoked, From: res.TopIntent}

	reply, err := a.generator.Generate(ctx, a.prompt(query, first, second))
	if err != nil {
		logger.WarnContext(ctx, "intent adjudication failed", "error", err)
		return res, outcome
	}
	verdict, err := parseAdjudication(reply, first, second)
	if err != nil {
		logger.WarnContext(ctx, "intent adjudication unusable", "error", err)
		return res, outcome
	}

	outcome.State = RerankResolved
	outcome.To = ID(verdict.FinalIntent)
	outcome.Reason = verdict.Reason
	res.TopIntent = outcome.To
	logger.DebugContext(ctx, "intent adjudicated", "from", outcome.From, "to", outcome.To)
	return res, outcome
}
