package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_event_service.go -package=mocks portfolio-rag/internal/service EventService

import (
	"context"
	"errors"
	"fmt"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/storage"
)

// EventQuery filters the chat event listing.
type EventQuery struct {
	Limit     int
	Offset    int
	Type      string
	SessionID string
}

// EventService reads the chat event log.
type EventService interface {
	List(ctx context.Context, q EventQuery) ([]storage.ChatEvent, error)
	Get(ctx context.Context, id string) (*storage.ChatEvent, error)
}

type eventService struct {
	store storage.EventStore
}

// NewEventService creates a new EventService.
func NewEventService(store storage.EventStore) EventService {
	return &eventService{store: store}
}

// List returns events newest first.
func (s *eventService) List(ctx context.Context, q EventQuery) ([]storage.ChatEvent, error) {
	if q.Limit < 0 {
		return nil, &ValidationError{Field: "limit", Message: "must not be negative"}
	}
	if q.Offset < 0 {
		return nil, &ValidationError{Field: "offset", Message: "must not be negative"}
	}
	typ := storage.EventType(q.Type)
	switch typ {
	case "", storage.EventQuery, storage.EventStream, storage.EventError:
	default:
		return nil, &ValidationError{Field: "type", Message: "must be one of query, stream, error"}
	}

	events, err := s.store.List(ctx, storage.EventFilter{
		Limit:     q.Limit,
		Offset:    q.Offset,
		Type:      typ,
		SessionID: q.SessionID,
	})
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list chat events", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return events, nil
}

// Get returns one event.
func (s *eventService) Get(ctx context.Context, id string) (*storage.ChatEvent, error) {
	event, err := s.store.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: event %s", ErrNotFound, id)
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get chat event", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return event, nil
}
