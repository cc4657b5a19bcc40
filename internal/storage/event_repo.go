package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_event_store.go -package=mocks portfolio-rag/internal/storage EventStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultEventLimit applies when a filter leaves Limit unset.
	DefaultEventLimit = 50
	// MaxEventLimit caps a single listing.
	MaxEventLimit = 200
)

// EventStore defines the interface for chat event storage operations.
type EventStore interface {
	// Insert stores an event. A missing ID or CreatedAt is filled in.
	Insert(ctx context.Context, event *ChatEvent) error
	// List returns events newest first.
	List(ctx context.Context, filter EventFilter) ([]ChatEvent, error)
	// GetByID returns ErrNotFound if the event does not exist.
	GetByID(ctx context.Context, id string) (*ChatEvent, error)
}

// EventRepo implements EventStore on SQLite.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// eventTimeLayout is fixed width so created_at sorts lexically.
const eventTimeLayout = "2006-01-02T15:04:05.000000000Z"

const eventColumns = `id, created_at, type, session_id, request_id, message, intent, confidence,
	low_confidence, citations, classify_ms, retrieve_ms, select_ms, generate_ms, total_ms, error`

// Insert stores an event.
func (r *EventRepo) Insert(ctx context.Context, event *ChatEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chat_events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		event.ID, event.CreatedAt.UTC().Format(eventTimeLayout), string(event.Type),
		nullString(event.SessionID), nullString(event.RequestID), event.Message,
		nullString(event.Intent), event.Confidence, event.LowConfidence, event.Citations,
		event.ClassifyMs, event.RetrieveMs, event.SelectMs, event.GenerateMs, event.TotalMs,
		nullString(event.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat event: %w", err)
	}
	return nil
}

// List returns events matching filter, newest first.
func (r *EventRepo) List(ctx context.Context, filter EventFilter) ([]ChatEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	limit = min(limit, MaxEventLimit)
	offset := max(filter.Offset, 0)

	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, filter.SessionID)
	}

	query := "SELECT " + eventColumns + " FROM chat_events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	events := []ChatEvent{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat events: %w", err)
	}
	return events, nil
}

// GetByID returns a single event.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*ChatEvent, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM chat_events WHERE id = ?", id)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return event, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (*ChatEvent, error) {
	var (
		e                                      ChatEvent
		createdAt, eventType                   string
		sessionID, requestID, intentID, errMsg sql.NullString
		confidence                             sql.NullFloat64
	)
	err := s.Scan(&e.ID, &createdAt, &eventType, &sessionID, &requestID, &e.Message, &intentID, &confidence,
		&e.LowConfidence, &e.Citations, &e.ClassifyMs, &e.RetrieveMs, &e.SelectMs, &e.GenerateMs, &e.TotalMs, &errMsg)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chat event: %w", err)
	}
	e.CreatedAt, err = time.Parse(eventTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chat event time: %w", err)
	}
	e.Type = EventType(eventType)
	e.SessionID = sessionID.String
	e.RequestID = requestID.String
	e.Intent = intentID.String
	e.Confidence = confidence.Float64
	e.Error = errMsg.String
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
