package storage

import "time"

// EventType classifies a chat event.
type EventType string

const (
	EventQuery  EventType = "query"
	EventStream EventType = "stream"
	EventError  EventType = "error"
)

// ChatEvent is one answered (or failed) question.
type ChatEvent struct {
	ID            string    `json:"id"`              // UUID
	CreatedAt     time.Time `json:"created_at"`
	Type          EventType `json:"type"`
	SessionID     string    `json:"session_id,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	Message       string    `json:"message"`
	Intent        string    `json:"intent,omitempty"`
	Confidence    float64   `json:"confidence"`
	LowConfidence bool      `json:"low_confidence"`
	Citations     int       `json:"citations"`
	ClassifyMs    int64     `json:"classify_ms"`
	RetrieveMs    int64     `json:"retrieve_ms"`
	SelectMs      int64     `json:"select_ms"`
	GenerateMs    int64     `json:"generate_ms"`
	TotalMs       int64     `json:"total_ms"`
	Error         string    `json:"error,omitempty"`
}

// EventFilter narrows an event listing. Zero values match everything.
type EventFilter struct {
	Limit     int
	Offset    int
	Type      EventType
	SessionID string
}
