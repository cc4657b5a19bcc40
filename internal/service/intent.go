package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_intent_service.go -package=mocks portfolio-rag/internal/service IntentService

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/rag"
)

// IntentIndex is the cached example index behind the classifier.
// This interface is defined from the service layer's perspective (consumer-first).
type IntentIndex interface {
	Reset()
	Built() bool
	Size() int
}

// IntentResponse is the debug view of one classification.
type IntentResponse struct {
	Result intent.Result         `json:"result"`
	Rerank *intent.RerankOutcome `json:"rerank,omitempty"`
}

// IndexStatus describes the intent example index.
type IndexStatus struct {
	Built    bool `json:"built"`
	Examples int  `json:"examples"`
}

// IntentService exposes the intent classifier for inspection.
type IntentService interface {
	// Classify classifies query and, when configured, adjudicates close calls.
	Classify(ctx context.Context, query string) (IntentResponse, error)
	// Reset drops the cached example vectors. The next classification rebuilds them.
	Reset(ctx context.Context)
	// Status reports the state of the example index.
	Status() IndexStatus
}

type intentService struct {
	classifier  rag.Classifier
	adjudicator rag.Adjudicator
	index       IntentIndex
}

// NewIntentService creates a new IntentService. adjudicator may be nil.
func NewIntentService(classifier rag.Classifier, adjudicator rag.Adjudicator, index IntentIndex) IntentService {
	return &intentService{classifier: classifier, adjudicator: adjudicator, index: index}
}

// Classify classifies a query.
func (s *intentService) Classify(ctx context.Context, query string) (IntentResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query = strings.TrimSpace(query)
	if query == "" {
		return IntentResponse{}, &ValidationError{Field: "query", Message: "cannot be empty"}
	}
	if utf8.RuneCountInString(query) > MaxMessageLength {
		return IntentResponse{}, &ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("must be at most %d characters", MaxMessageLength),
		}
	}

	res, err := s.classifier.Classify(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "failed to classify query", "error", err)
		return IntentResponse{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	resp := IntentResponse{Result: res}
	if s.adjudicator != nil {
		final, outcome := s.adjudicator.Rerank(ctx, query, res)
		resp.Result = final
		resp.Rerank = &outcome
	}
	logger.InfoContext(ctx, "query classified", "intent", resp.Result.TopIntent, "confidence", resp.Result.Confidence)
	return resp, nil
}

// Reset drops the example index.
func (s *intentService) Reset(ctx context.Context) {
	s.index.Reset()
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "intent index reset")
}

// Status reports the example index state.
func (s *intentService) Status() IndexStatus {
	return IndexStatus{Built: s.index.Built(), Examples: s.index.Size()}
}
