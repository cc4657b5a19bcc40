package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_service.go -package=mocks portfolio-rag/internal/service QueryService

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/rag"
	"portfolio-rag/internal/storage"
)

const (
	// MaxMessageLength is the longest accepted question, in characters.
	MaxMessageLength = 2000
	// MaxSessionIDLength is the longest accepted session id.
	MaxSessionIDLength = 128
)

// EventRecorder stores chat events.
// This interface is defined from the service layer's perspective (consumer-first).
type EventRecorder interface {
	Insert(ctx context.Context, event *storage.ChatEvent) error
}

// QueryRequest is a question in the domain layer.
type QueryRequest struct {
	Message   string
	SessionID string
	Debug     bool
}

// QueryService answers questions about the indexed corpus.
type QueryService interface {
	// Answer returns a complete answer.
	Answer(ctx context.Context, req QueryRequest) (rag.AskResponse, error)
	// Stream validates req and returns the answer's event stream. Validation
	// errors are returned before any event is produced.
	Stream(ctx context.Context, req QueryRequest) (iter.Seq2[rag.StreamEvent, error], error)
}

type queryService struct {
	engine   rag.Engine
	recorder EventRecorder
}

// NewQueryService creates a new QueryService. recorder may be nil.
func NewQueryService(engine rag.Engine, recorder EventRecorder) QueryService {
	return &queryService{engine: engine, recorder: recorder}
}

func validateQuery(req QueryRequest) (rag.AskRequest, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return rag.AskRequest{}, &ValidationError{Field: "message", Message: "cannot be empty"}
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return rag.AskRequest{}, &ValidationError{
			Field:   "message",
			Message: fmt.Sprintf("must be at most %d characters", MaxMessageLength),
		}
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if len(sessionID) > MaxSessionIDLength {
		return rag.AskRequest{}, &ValidationError{
			Field:   "session_id",
			Message: fmt.Sprintf("must be at most %d characters", MaxSessionIDLength),
		}
	}
	return rag.AskRequest{Message: message, SessionID: sessionID, Debug: req.Debug}, nil
}

// mapEngineError translates engine failures into the service error taxonomy.
func mapEngineError(err error) error {
	if errors.Is(err, rag.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return WrapError(err, "failed to answer question")
}

// Answer answers a question.
func (s *queryService) Answer(ctx context.Context, req QueryRequest) (rag.AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	askReq, err := validateQuery(req)
	if err != nil {
		logger.WarnContext(ctx, "invalid query request", "error", err)
		return rag.AskResponse{}, err
	}

	resp, err := s.engine.Ask(ctx, askReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		s.record(ctx, &storage.ChatEvent{
			Type:      storage.EventError,
			SessionID: askReq.SessionID,
			Message:   askReq.Message,
			Error:     err.Error(),
		})
		return rag.AskResponse{}, mapEngineError(err)
	}

	s.record(ctx, eventFromAnswer(storage.EventQuery, askReq, resp.Intent, resp.LowConfidence, len(resp.Citations), resp.Timings))
	logger.InfoContext(ctx, "query processed successfully",
		"message_length", len(askReq.Message),
		"answer_length", len(resp.Answer),
		"intent", resp.Intent.ID,
	)
	return resp, nil
}

// Stream answers a question as a stream of events.
func (s *queryService) Stream(ctx context.Context, req QueryRequest) (iter.Seq2[rag.StreamEvent, error], error) {
	logger := contextutil.LoggerFromContext(ctx)

	askReq, err := validateQuery(req)
	if err != nil {
		logger.WarnContext(ctx, "invalid streaming query request", "error", err)
		return nil, err
	}

	upstream, err := s.engine.AskStream(ctx, askReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to start answer stream", "error", err)
		s.record(ctx, &storage.ChatEvent{
			Type:      storage.EventError,
			SessionID: askReq.SessionID,
			Message:   askReq.Message,
			Error:     err.Error(),
		})
		return nil, mapEngineError(err)
	}

	return func(yield func(rag.StreamEvent, error) bool) {
		for ev, err := range upstream {
			switch {
			case err != nil || ev.Type == rag.EventError:
				msg := ev.Error
				if err != nil {
					msg = err.Error()
				}
				s.record(ctx, &storage.ChatEvent{
					Type:      storage.EventError,
					SessionID: askReq.SessionID,
					Message:   askReq.Message,
					Error:     msg,
				})
				if err != nil {
					err = mapEngineError(err)
				}
			case ev.Type == rag.EventDone:
				var info rag.IntentInfo
				if ev.Intent != nil {
					info = *ev.Intent
				}
				var timings rag.Timings
				if ev.Timings != nil {
					timings = *ev.Timings
				}
				s.record(ctx, eventFromAnswer(storage.EventStream, askReq, info, ev.LowConfidence, len(ev.Citations), timings))
			}
			if !yield(ev, err) {
				return
			}
		}
	}, nil
}

func eventFromAnswer(typ storage.EventType, req rag.AskRequest, info rag.IntentInfo, low bool, citations int, t rag.Timings) *storage.ChatEvent {
	return &storage.ChatEvent{
		Type:          typ,
		SessionID:     req.SessionID,
		Message:       req.Message,
		Intent:        string(info.ID),
		Confidence:    info.Confidence,
		LowConfidence: low,
		Citations:     citations,
		ClassifyMs:    t.ClassifyMs,
		RetrieveMs:    t.RetrieveMs,
		SelectMs:      t.SelectMs,
		GenerateMs:    t.GenerateMs,
		TotalMs:       t.TotalMs,
	}
}

// record stores event without failing the request. The insert ignores
// cancellation of ctx.
func (s *queryService) record(ctx context.Context, event *storage.ChatEvent) {
	if s.recorder == nil {
		return
	}
	event.RequestID = contextutil.RequestIDFromContext(ctx)
	if err := s.recorder.Insert(context.WithoutCancel(ctx), event); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to record chat event", "error", err)
	}
}
