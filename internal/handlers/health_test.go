package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"portfolio-rag/internal/service"
	vsmocks "portfolio-rag/internal/vectorstore/mocks"
)

type fixedStatus service.IndexStatus

func (s fixedStatus) Status() service.IndexStatus { return service.IndexStatus(s) }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		count      int
		countErr   error
		intents    IntentStatusReporter
		wantStatus int
		wantHealth string
		wantIndex  string
	}{
		{
			name:       "healthy",
			method:     http.MethodGet,
			count:      42,
			intents:    fixedStatus{Built: true, Examples: 120},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
			wantIndex:  "ok",
		},
		{
			name:       "empty corpus is degraded",
			method:     http.MethodGet,
			count:      0,
			intents:    fixedStatus{Examples: 120},
			wantStatus: http.StatusOK,
			wantHealth: "degraded",
			wantIndex:  "cold",
		},
		{
			name:       "store unreachable",
			method:     http.MethodGet,
			countErr:   errors.New("connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := vsmocks.NewMockStore(ctrl)
			if tt.method == http.MethodGet {
				store.EXPECT().Count(gomock.Any()).DoAndReturn(func(ctx context.Context) (int, error) {
					if _, ok := ctx.Deadline(); !ok {
						t.Error("health check should run with a deadline")
					}
					return tt.count, tt.countErr
				})
			}

			req := httptest.NewRequest(tt.method, "/api/health", http.NoBody)
			w := httptest.NewRecorder()
			NewHealthHandler(store, tt.intents).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantHealth == "" {
				return
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantHealth)
			}
			if resp.Passages != tt.count {
				t.Errorf("Passages = %d, want %d", resp.Passages, tt.count)
			}
			if got := resp.Checks["intent_index"]; got != tt.wantIndex {
				t.Errorf("intent_index check = %q, want %q", got, tt.wantIndex)
			}
		})
	}
}
