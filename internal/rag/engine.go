package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks portfolio-rag/internal/rag Engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/llm"
	"portfolio-rag/internal/retrieval"
	"portfolio-rag/internal/vectorstore"
)

var (
	// ErrStoreUnavailable is returned when the passage store cannot be reached.
	ErrStoreUnavailable = errors.New("passage store unavailable")
	// ErrGeneration is returned when the answer could not be generated.
	ErrGeneration = errors.New("answer generation failed")
)

// Engine answers questions from the indexed passages.
type Engine interface {
	// Ask returns a complete answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// AskStream classifies, retrieves and selects before returning, so a store
	// failure is returned directly. The stream yields token events followed by
	// one done event; a generation failure yields an error event together with
	// the error.
	AskStream(ctx context.Context, req AskRequest) (iter.Seq2[StreamEvent, error], error)
}

// Classifier assigns an intent to a question.
type Classifier interface {
	Classify(ctx context.Context, query string) (intent.Result, error)
}

// Adjudicator may revise a close intent call.
type Adjudicator interface {
	Rerank(ctx context.Context, query string, res intent.Result) (intent.Result, intent.RerankOutcome)
}

// Config holds the engine's request-level settings.
type Config struct {
	// TopK caps the number of passages sent to the model.
	TopK int
	// TokenBudget caps the estimated size of the selected passages.
	TokenBudget int
	// Temperature and MaxTokens are passed to the generator.
	Temperature float32
	MaxTokens   int
}

// Deps are the engine's collaborators. Adjudicator may be nil.
type Deps struct {
	Store       vectorstore.Store
	Generator   llm.Generator
	Classifier  Classifier
	Adjudicator Adjudicator
	Expander    *retrieval.Expander
	Retriever   *retrieval.Retriever
	Booster     *retrieval.Booster
	Selector    *retrieval.Selector
}

type answerMode string

const (
	modeAnswer        answerMode = "answer"
	modeNotEnoughData answerMode = "not_enough_data"
	modeClarify       answerMode = "clarify"
)

// plan is everything decided before generation.
type plan struct {
	mode       answerMode
	result     intent.Result
	rerank     intent.RerankOutcome
	expansions []string
	ranked     []retrieval.Boosted
	selection  retrieval.Selection
	prompt     llm.Prompt
	timings    Timings
	started    time.Time
}

type ragEngine struct {
	deps Deps
	cfg  Config
}

// NewEngine creates an answer engine.
func NewEngine(deps Deps, cfg Config) Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = 2200
	}
	return &ragEngine{deps: deps, cfg: cfg}
}

func (e *ragEngine) prepare(ctx context.Context, req AskRequest) (*plan, error) {
	logger := contextutil.LoggerFromContext(ctx)
	p := &plan{started: time.Now(), rerank: intent.RerankOutcome{State: intent.RerankNotNeeded}}

	count, err := e.deps.Store.Count(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to count passages", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if count == 0 {
		logger.InfoContext(ctx, "no passages indexed")
		p.mode = modeNotEnoughData
		p.result = intent.Result{TopIntent: intent.Clarification, Evidence: []intent.Evidence{}}
		return p, nil
	}

	start := time.Now()
	p.result, err = e.deps.Classifier.Classify(ctx, req.Message)
	if err != nil {
		logger.WarnContext(ctx, "intent classification failed, asking for clarification", "error", err)
		p.result = intent.FallbackResult()
	}
	if e.deps.Adjudicator != nil {
		p.result, p.rerank = e.deps.Adjudicator.Rerank(ctx, req.Message, p.result)
	}
	p.timings.ClassifyMs = time.Since(start).Milliseconds()

	start = time.Now()
	p.expansions = e.deps.Expander.Expand(ctx, p.result.TopIntent, req.Message)
	candidates, err := e.deps.Retriever.Retrieve(ctx, p.expansions, e.cfg.TopK)
	p.timings.RetrieveMs = time.Since(start).Milliseconds()
	if err != nil || len(candidates) == 0 {
		logger.WarnContext(ctx, "no candidates retrieved", "error", err)
		p.mode = modeNotEnoughData
		return p, nil
	}

	start = time.Now()
	p.ranked = e.deps.Booster.Boost(candidates, p.result.TopIntent, req.Message)
	p.selection = e.deps.Selector.Select(p.ranked, p.result.TopIntent, e.cfg.TopK, e.cfg.TokenBudget)
	p.timings.SelectMs = time.Since(start).Milliseconds()

	logger.InfoContext(ctx, "context selected",
		"intent", p.result.TopIntent,
		"confidence", p.result.Confidence,
		"rerank", p.rerank.State,
		"expansions", len(p.expansions),
		"candidates", len(p.ranked),
		"selected", len(p.selection.Passages),
		"tier", p.selection.Tier,
		"tokens", p.selection.Tokens,
	)

	if p.result.FellBack && p.selection.LowConfidence {
		p.mode = modeClarify
		return p, nil
	}

	p.mode = modeAnswer
	p.prompt = llm.Prompt{
		System:      systemPrompt,
		User:        buildUserPrompt(req.Message, p.selection.Passages),
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	}
	logger.DebugContext(ctx, "prompt built", "user_prompt_length", len(p.prompt.User))
	return p, nil
}

func (p *plan) intentInfo() IntentInfo {
	return IntentInfo{ID: p.result.TopIntent, Confidence: p.result.Confidence}
}

func (p *plan) citations() []retrieval.Citation {
	if p.mode != modeAnswer || p.selection.Citations == nil {
		return []retrieval.Citation{}
	}
	return p.selection.Citations
}

func (p *plan) lowConfidence() bool {
	return p.mode != modeAnswer || p.selection.LowConfidence
}

// fixedAnswer returns the canned answer for modes that skip generation.
func (p *plan) fixedAnswer() string {
	if p.mode == modeClarify {
		return ClarificationAnswer
	}
	return NotEnoughDataAnswer
}

func (p *plan) finish() {
	p.timings.TotalMs = time.Since(p.started).Milliseconds()
}

func (p *plan) debugInfo() *DebugInfo {
	selected := make(map[string]struct{}, len(p.selection.Passages))
	for _, s := range p.selection.Passages {
		selected[s.Key] = struct{}{}
	}
	candidates := make([]ScoredCandidate, 0, len(p.ranked))
	for _, c := range p.ranked {
		_, ok := selected[c.Key]
		candidates = append(candidates, ScoredCandidate{
			ID:         c.ID,
			SourceName: c.Metadata.DisplayName(),
			SourceType: c.Metadata.SourceType,
			Raw:        c.Raw,
			Boost:      c.Boost,
			Final:      c.Score,
			Selected:   ok,
		})
	}
	expansions := p.expansions
	if expansions == nil {
		expansions = []string{}
	}
	return &DebugInfo{
		Intent:     p.result,
		Rerank:     p.rerank,
		Expansions: expansions,
		Tier:       p.selection.Tier,
		Threshold:  p.selection.Threshold,
		Tokens:     p.selection.Tokens,
		Candidates: candidates,
		Mode:       string(p.mode),
		Timings:    p.timings,
	}
}

// Ask answers a question.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	p, err := e.prepare(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}

	answer := p.fixedAnswer()
	if p.mode == modeAnswer {
		start := time.Now()
		answer, err = e.deps.Generator.Generate(ctx, p.prompt)
		p.timings.GenerateMs = time.Since(start).Milliseconds()
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate answer", "error", err)
			return AskResponse{}, fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		answer = strings.TrimSpace(answer)
		if p.selection.LowConfidence {
			answer += caveatSuffix()
		}
	}
	p.finish()

	resp := AskResponse{
		Answer:        answer,
		Citations:     p.citations(),
		Intent:        p.intentInfo(),
		LowConfidence: p.lowConfidence(),
		Timings:       p.timings,
	}
	if req.Debug {
		resp.Debug = p.debugInfo()
	}
	logger.InfoContext(ctx, "answer ready",
		"mode", p.mode,
		"answer_length", len(answer),
		"citations", len(resp.Citations),
		"total_ms", p.timings.TotalMs,
	)
	return resp, nil
}

// AskStream streams an answer. Breaking out of the loop or cancelling ctx
// stops the upstream generation.
func (e *ragEngine) AskStream(ctx context.Context, req AskRequest) (iter.Seq2[StreamEvent, error], error) {
	p, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	return func(yield func(StreamEvent, error) bool) {
		logger := contextutil.LoggerFromContext(ctx)

		if p.mode != modeAnswer {
			if !yield(StreamEvent{Type: EventToken, Token: p.fixedAnswer()}, nil) {
				return
			}
			p.finish()
			yield(e.doneEvent(p), nil)
			return
		}

		start := time.Now()
		emitted := 0
		for token, err := range e.deps.Generator.GenerateStream(ctx, p.prompt) {
			if err != nil {
				logger.ErrorContext(ctx, "answer stream failed", "error", err, "tokens_emitted", emitted)
				wrapped := fmt.Errorf("%w: %w", ErrGeneration, err)
				yield(StreamEvent{Type: EventError, Error: ErrGeneration.Error()}, wrapped)
				return
			}
			if token == "" {
				continue
			}
			emitted++
			if !yield(StreamEvent{Type: EventToken, Token: token}, nil) {
				logger.InfoContext(ctx, "answer stream abandoned by consumer", "tokens_emitted", emitted)
				return
			}
		}
		p.timings.GenerateMs = time.Since(start).Milliseconds()

		if p.selection.LowConfidence {
			if !yield(StreamEvent{Type: EventToken, Token: caveatSuffix()}, nil) {
				return
			}
		}
		p.finish()
		logger.InfoContext(ctx, "answer stream completed", "tokens_emitted", emitted, "total_ms", p.timings.TotalMs)
		yield(e.doneEvent(p), nil)
	}, nil
}

func (e *ragEngine) doneEvent(p *plan) StreamEvent {
	info := p.intentInfo()
	timings := p.timings
	return StreamEvent{
		Type:          EventDone,
		Citations:     p.citations(),
		Intent:        &info,
		LowConfidence: p.lowConfidence(),
		Timings:       &timings,
	}
}
