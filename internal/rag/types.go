package rag

import (
	"encoding/json"

	"portfolio-rag/internal/corpus"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/retrieval"
)

// AskRequest is one question to the answer engine.
type AskRequest struct {
	// Message is the user's question.
	Message string `json:"message"`
	// SessionID optionally groups questions from one visitor.
	SessionID string `json:"session_id,omitempty"`
	// Debug returns ranking details with the answer.
	Debug bool `json:"debug,omitempty"`
}

// IntentInfo is the intent reported with an answer.
type IntentInfo struct {
	ID         intent.ID `json:"id"`
	Confidence float64   `json:"confidence"`
}

// AskResponse is a complete answer.
type AskResponse struct {
	Answer        string               `json:"answer"`
	Citations     []retrieval.Citation `json:"citations"`
	Intent        IntentInfo           `json:"intent"`
	LowConfidence bool                 `json:"lowConfidence"`
	Debug         *DebugInfo           `json:"debug,omitempty"`
	// Timings are recorded in the event log, not returned to clients.
	Timings Timings `json:"-"`
}

// EventType names a streaming event.
type EventType string

const (
	EventToken EventType = "token"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// StreamEvent is one frame of a streamed answer. A stream is any number of
// token events followed by exactly one done or error event.
type StreamEvent struct {
	Type          EventType            `json:"type"`
	Token         string               `json:"token,omitempty"`
	Citations     []retrieval.Citation `json:"citations,omitempty"`
	Intent        *IntentInfo          `json:"intent,omitempty"`
	LowConfidence bool                 `json:"lowConfidence,omitempty"`
	Error         string               `json:"error,omitempty"`
	Timings       *Timings             `json:"-"`
}

// MarshalJSON always writes citations, intent and lowConfidence on done
// events so clients see the same shape as a non-streamed answer.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	if e.Type != EventDone {
		type plain StreamEvent
		return json.Marshal(plain(e))
	}
	citations := e.Citations
	if citations == nil {
		citations = []retrieval.Citation{}
	}
	return json.Marshal(struct {
		Type          EventType            `json:"type"`
		Citations     []retrieval.Citation `json:"citations"`
		Intent        *IntentInfo          `json:"intent"`
		LowConfidence bool                 `json:"lowConfidence"`
	}{
		Type:          e.Type,
		Citations:     citations,
		Intent:        e.Intent,
		LowConfidence: e.LowConfidence,
	})
}

// Timings are per-stage durations in milliseconds.
type Timings struct {
	ClassifyMs int64 `json:"classify_ms"`
	RetrieveMs int64 `json:"retrieve_ms"`
	SelectMs   int64 `json:"select_ms"`
	GenerateMs int64 `json:"generate_ms"`
	TotalMs    int64 `json:"total_ms"`
}

// DebugInfo explains how an answer's context was chosen.
type DebugInfo struct {
	Intent     intent.Result        `json:"intent"`
	Rerank     intent.RerankOutcome `json:"rerank"`
	Expansions []string             `json:"expansions"`
	Tier       retrieval.Tier       `json:"tier"`
	Threshold  float64              `json:"threshold"`
	Tokens     int                  `json:"tokens"`
	Candidates []ScoredCandidate    `json:"candidates"`
	Mode       string               `json:"mode"`
	Timings    Timings              `json:"timings"`
}

// ScoredCandidate is one ranked passage in debug output.
type ScoredCandidate struct {
	ID         string            `json:"id"`
	SourceName string            `json:"source_name"`
	SourceType corpus.SourceType `json:"source_type"`
	Raw        float64           `json:"raw"`
	Boost      float64           `json:"boost"`
	Final      float64           `json:"final"`
	Selected   bool              `json:"selected"`
}
