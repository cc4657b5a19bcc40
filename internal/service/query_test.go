package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"testing"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/intent"
	"portfolio-rag/internal/rag"
	ragmocks "portfolio-rag/internal/rag/mocks"
	"portfolio-rag/internal/retrieval"
	"portfolio-rag/internal/service"
	"portfolio-rag/internal/storage"
	storagemocks "portfolio-rag/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testContext returns a context for testing.
func testContext() context.Context {
	return contextutil.WithRequestID(context.Background(), "req-1")
}

func sampleResponse() rag.AskResponse {
	return rag.AskResponse{
		Answer: "They led the design system rollout.",
		Citations: []retrieval.Citation{
			{Quote: "Led the rollout", SourceName: "Acme"},
			{Quote: "Built tokens", SourceName: "Beta"},
		},
		Intent:  rag.IntentInfo{ID: intent.CaseStudy, Confidence: 0.8},
		Timings: rag.Timings{ClassifyMs: 1, RetrieveMs: 2, SelectMs: 3, GenerateMs: 4, TotalMs: 10},
	}
}

func eventsOf(evs ...rag.StreamEvent) iter.Seq2[rag.StreamEvent, error] {
	return func(yield func(rag.StreamEvent, error) bool) {
		for _, ev := range evs {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func TestQueryService_AnswerValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   service.QueryRequest
		field string
	}{
		{name: "empty message", req: service.QueryRequest{Message: ""}, field: "message"},
		{name: "whitespace message", req: service.QueryRequest{Message: "  \n\t "}, field: "message"},
		{name: "too long", req: service.QueryRequest{Message: strings.Repeat("ż", service.MaxMessageLength+1)}, field: "message"},
		{name: "session too long", req: service.QueryRequest{Message: "hi", SessionID: strings.Repeat("s", service.MaxSessionIDLength+1)}, field: "session_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engine := ragmocks.NewMockEngine(ctrl)
			svc := service.NewQueryService(engine, nil)

			_, err := svc.Answer(testContext(), tt.req)
			var ve *service.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)

			_, err = svc.Stream(testContext(), tt.req)
			require.ErrorAs(t, err, &ve)
		})
	}
}

func TestQueryService_AnswerMaxLengthAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	svc := service.NewQueryService(engine, nil)

	msg := strings.Repeat("ą", service.MaxMessageLength)
	engine.EXPECT().Ask(gomock.Any(), rag.AskRequest{Message: msg}).Return(sampleResponse(), nil)

	_, err := svc.Answer(testContext(), service.QueryRequest{Message: msg})
	require.NoError(t, err)
}

func TestQueryService_AnswerRecordsEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	events := storagemocks.NewMockEventStore(ctrl)
	svc := service.NewQueryService(engine, events)

	engine.EXPECT().
		Ask(gomock.Any(), rag.AskRequest{Message: "what did they build?", SessionID: "s1", Debug: true}).
		Return(sampleResponse(), nil)

	var recorded *storage.ChatEvent
	events.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *storage.ChatEvent) error {
		recorded = e
		return nil
	})

	resp, err := svc.Answer(testContext(), service.QueryRequest{Message: "  what did they build? ", SessionID: "s1", Debug: true})
	require.NoError(t, err)
	assert.Equal(t, sampleResponse().Answer, resp.Answer)

	require.NotNil(t, recorded)
	assert.Equal(t, storage.EventQuery, recorded.Type)
	assert.Equal(t, "what did they build?", recorded.Message)
	assert.Equal(t, "s1", recorded.SessionID)
	assert.Equal(t, "req-1", recorded.RequestID)
	assert.Equal(t, string(intent.CaseStudy), recorded.Intent)
	assert.Equal(t, 2, recorded.Citations)
	assert.Equal(t, int64(10), recorded.TotalMs)
	assert.Equal(t, int64(4), recorded.GenerateMs)
}

func TestQueryService_AnswerRecorderFailureIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	events := storagemocks.NewMockEventStore(ctrl)
	svc := service.NewQueryService(engine, events)

	engine.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(sampleResponse(), nil)
	events.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	resp, err := svc.Answer(testContext(), service.QueryRequest{Message: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)
}

func TestQueryService_AnswerErrors(t *testing.T) {
	tests := []struct {
		name      string
		engineErr error
		want      error
		notWant   error
	}{
		{
			name:      "store unavailable",
			engineErr: errors.Join(rag.ErrStoreUnavailable, errors.New("connection refused")),
			want:      service.ErrUnavailable,
		},
		{
			name:      "generation failed",
			engineErr: errors.Join(rag.ErrGeneration, errors.New("timeout")),
			want:      rag.ErrGeneration,
			notWant:   service.ErrExternalService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engine := ragmocks.NewMockEngine(ctrl)
			events := storagemocks.NewMockEventStore(ctrl)
			svc := service.NewQueryService(engine, events)

			engine.EXPECT().Ask(gomock.Any(), gomock.Any()).Return(rag.AskResponse{}, tt.engineErr)
			events.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *storage.ChatEvent) error {
				assert.Equal(t, storage.EventError, e.Type)
				assert.NotEmpty(t, e.Error)
				return nil
			})

			_, err := svc.Answer(testContext(), service.QueryRequest{Message: "hello"})
			require.ErrorIs(t, err, tt.want)
			if tt.notWant != nil {
				assert.NotErrorIs(t, err, tt.notWant)
			}
		})
	}
}

func TestQueryService_StreamPassesEventsAndRecordsDone(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	events := storagemocks.NewMockEventStore(ctrl)
	svc := service.NewQueryService(engine, events)

	info := rag.IntentInfo{ID: intent.Leadership, Confidence: 0.7}
	timings := rag.Timings{TotalMs: 42}
	upstream := eventsOf(
		rag.StreamEvent{Type: rag.EventToken, Token: "Hello"},
		rag.StreamEvent{Type: rag.EventToken, Token: " world"},
		rag.StreamEvent{
			Type:          rag.EventDone,
			Citations:     []retrieval.Citation{{Quote: "q", SourceName: "s"}},
			Intent:        &info,
			LowConfidence: true,
			Timings:       &timings,
		},
	)
	engine.EXPECT().AskStream(gomock.Any(), rag.AskRequest{Message: "hi"}).Return(upstream, nil)

	var recorded *storage.ChatEvent
	events.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *storage.ChatEvent) error {
		recorded = e
		return nil
	})

	seq, err := svc.Stream(testContext(), service.QueryRequest{Message: "hi"})
	require.NoError(t, err)

	var types []rag.EventType
	for ev, err := range seq {
		require.NoError(t, err)
		types = append(types, ev.Type)
	}
	assert.Equal(t, []rag.EventType{rag.EventToken, rag.EventToken, rag.EventDone}, types)

	require.NotNil(t, recorded)
	assert.Equal(t, storage.EventStream, recorded.Type)
	assert.Equal(t, string(intent.Leadership), recorded.Intent)
	assert.True(t, recorded.LowConfidence)
	assert.Equal(t, 1, recorded.Citations)
	assert.Equal(t, int64(42), recorded.TotalMs)
}

func TestQueryService_StreamErrorMapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	events := storagemocks.NewMockEventStore(ctrl)
	svc := service.NewQueryService(engine, events)

	upstream := iter.Seq2[rag.StreamEvent, error](func(yield func(rag.StreamEvent, error) bool) {
		if !yield(rag.StreamEvent{Type: rag.EventToken, Token: "par"}, nil) {
			return
		}
		yield(rag.StreamEvent{Type: rag.EventError, Error: rag.ErrGeneration.Error()}, rag.ErrGeneration)
	})
	engine.EXPECT().AskStream(gomock.Any(), gomock.Any()).Return(upstream, nil)
	events.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *storage.ChatEvent) error {
		assert.Equal(t, storage.EventError, e.Type)
		return nil
	})

	seq, err := svc.Stream(testContext(), service.QueryRequest{Message: "hi"})
	require.NoError(t, err)

	var last error
	var n int
	for ev, err := range seq {
		n++
		if err != nil {
			last = err
			assert.Equal(t, rag.EventError, ev.Type)
		}
	}
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, last, rag.ErrGeneration)
	assert.NotErrorIs(t, last, service.ErrUnavailable)
}

func TestQueryService_StreamStoreUnavailableBeforeFirstEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	events := storagemocks.NewMockEventStore(ctrl)
	svc := service.NewQueryService(engine, events)

	engine.EXPECT().AskStream(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: %w", rag.ErrStoreUnavailable, errors.New("connection refused")))
	events.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *storage.ChatEvent) error {
		assert.Equal(t, storage.EventError, e.Type)
		assert.Contains(t, e.Error, "connection refused")
		return nil
	})

	seq, err := svc.Stream(testContext(), service.QueryRequest{Message: "hi"})
	require.ErrorIs(t, err, service.ErrUnavailable)
	assert.Nil(t, seq)
}

func TestQueryService_StreamConsumerBreak(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := ragmocks.NewMockEngine(ctrl)
	events := storagemocks.NewMockEventStore(ctrl)
	svc := service.NewQueryService(engine, events)

	engine.EXPECT().AskStream(gomock.Any(), gomock.Any()).Return(eventsOf(
		rag.StreamEvent{Type: rag.EventToken, Token: "a"},
		rag.StreamEvent{Type: rag.EventToken, Token: "b"},
		rag.StreamEvent{Type: rag.EventDone},
	), nil)
	// No Insert expected: the consumer stops before the done event.

	seq, err := svc.Stream(testContext(), service.QueryRequest{Message: "hi"})
	require.NoError(t, err)
	for range seq {
		break
	}
}
