package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/rag"
	"portfolio-rag/internal/service"
)

// QueryHandler handles HTTP requests for portfolio questions.
type QueryHandler struct {
	queryService service.QueryService
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queryService service.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// QueryRequest represents the HTTP request payload for a question.
type QueryRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ServeHTTP answers a question as JSON, or as Server-Sent Events when
// ?stream=true. ?debug=true adds ranking details to JSON answers.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req QueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	svcReq := service.QueryRequest{
		Message:   req.Message,
		SessionID: req.SessionID,
		Debug:     queryFlag(r, "debug"),
	}

	if queryFlag(r, "stream") {
		h.handleStream(w, r, svcReq)
		return
	}

	resp, err := h.queryService.Answer(ctx, svcReq)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to answer question")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// handleStream writes the answer as "data: <json>\n\n" frames. Errors found
// before the first frame get a regular JSON error response; later errors end
// the stream with an error frame.
func (h *QueryHandler) handleStream(w http.ResponseWriter, r *http.Request, req service.QueryRequest) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	events, err := h.queryService.Stream(ctx, req)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to answer question")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev, err := range events {
		if err != nil {
			_, msg := errorStatus(err, "Failed to generate answer")
			logger.ErrorContext(ctx, "error streaming answer", "error", err)
			ev = rag.StreamEvent{Type: rag.EventError, Error: msg}
		}
		if werr := writeEvent(w, ev); werr != nil {
			logger.InfoContext(ctx, "client went away during stream", "error", werr)
			return
		}
		flusher.Flush()
		if err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, ev rag.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
