package rag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/retrieval"
)

func TestStreamEvent_MarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		event StreamEvent
		want  string
	}{
		{
			name:  "token",
			event: StreamEvent{Type: EventToken, Token: "Hi"},
			want:  `{"type":"token","token":"Hi"}`,
		},
		{
			name:  "error",
			event: StreamEvent{Type: EventError, Error: "generation failed"},
			want:  `{"type":"error","error":"generation failed"}`,
		},
		{
			name: "done with citations",
			event: StreamEvent{
				Type:      EventDone,
				Citations: []retrieval.Citation{{Quote: "q", SourceName: "CV"}},
				Intent:    &IntentInfo{ID: intent.Leadership, Confidence: 0.8},
				Timings:   &Timings{TotalMs: 12},
			},
			want: `{"type":"done","citations":[{"quote":"q","source_name":"CV"}],"intent":{"id":"retrieval_core.leadership","confidence":0.8},"lowConfidence":false}`,
		},
		{
			name: "clarification done without citations",
			event: StreamEvent{
				Type:   EventDone,
				Intent: &IntentInfo{ID: intent.Clarification},
			},
			want: `{"type":"done","citations":[],"intent":{"id":"conversational.clarification","confidence":0},"lowConfidence":false}`,
		},
		{
			name: "done with empty citation slice",
			event: StreamEvent{
				Type:      EventDone,
				Citations: []retrieval.Citation{},
				Intent:    &IntentInfo{ID: intent.Clarification},
			},
			want: `{"type":"done","citations":[],"intent":{"id":"conversational.clarification","confidence":0},"lowConfidence":false}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestStreamEvent_DoneRoundTripsThroughDecoder(t *testing.T) {
	data, err := json.Marshal(StreamEvent{Type: EventDone, LowConfidence: true})
	require.NoError(t, err)

	var got StreamEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, EventDone, got.Type)
	assert.True(t, got.LowConfidence)
	assert.NotNil(t, got.Citations)
	assert.Empty(t, got.Citations)
}
