package handlers

import (
	"context"
	"net/http"
	"time"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/service"
)

// PassageCounter reports the size of the serving store.
type PassageCounter interface {
	Count(ctx context.Context) (int, error)
}

// IntentStatusReporter reports the state of the intent example index.
type IntentStatusReporter interface {
	Status() service.IndexStatus
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              PassageCounter
	intents            IntentStatusReporter
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. intents may be nil.
func NewHealthHandler(store PassageCounter, intents IntentStatusReporter) *HealthHandler {
	return &HealthHandler{
		store:              store,
		intents:            intents,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// Passages is the number of passages in the serving store.
	Passages int `json:"passages"`

	// IntentIndex reports whether intent examples are embedded.
	IntentIndex *service.IndexStatus `json:"intent_index,omitempty"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health. It returns 503 when the store is
// unreachable and reports an empty corpus as degraded.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string),
	}
	httpStatus := http.StatusOK

	count, err := h.store.Count(checkCtx)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "store health check failed", "error", err)
		resp.Checks["store"] = "error"
		resp.Issues = append(resp.Issues, "store_unavailable")
		resp.Status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case count == 0:
		resp.Checks["store"] = "empty"
		resp.Issues = append(resp.Issues, "corpus_empty")
		resp.Status = "degraded"
	default:
		resp.Checks["store"] = "ok"
	}
	resp.Passages = count

	if h.intents != nil {
		status := h.intents.Status()
		resp.IntentIndex = &status
		if status.Built {
			resp.Checks["intent_index"] = "ok"
		} else {
			resp.Checks["intent_index"] = "cold"
		}
	}

	writeJSON(ctx, w, httpStatus, resp)
}
