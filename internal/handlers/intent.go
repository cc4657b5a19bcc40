package handlers

import (
	"net/http"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/service"
)

// IntentHandler exposes the intent classifier for debugging.
type IntentHandler struct {
	intentService service.IntentService
}

// NewIntentHandler creates a new IntentHandler.
func NewIntentHandler(intentService service.IntentService) *IntentHandler {
	return &IntentHandler{intentService: intentService}
}

// IntentRequest represents the HTTP request payload for classification.
type IntentRequest struct {
	Query string `json:"query"`
}

// IntentResetResponse is returned after the example index is dropped.
type IntentResetResponse struct {
	Status string              `json:"status"`
	Index  service.IndexStatus `json:"index"`
}

// Classify handles POST /api/intent.
func (h *IntentHandler) Classify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req IntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.intentService.Classify(ctx, req.Query)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to classify query")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Reset handles POST /api/intent/reset.
func (h *IntentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.intentService.Reset(ctx)
	writeJSON(ctx, w, http.StatusOK, IntentResetResponse{
		Status: "reset",
		Index:  h.intentService.Status(),
	})
}
