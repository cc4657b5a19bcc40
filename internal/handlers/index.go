package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"portfolio-rag/internal/contextutil"
	"portfolio-rag/internal/indexer"
)

// Reindexer runs an ingestion pass over the corpus directory.
type Reindexer interface {
	Reindex(ctx context.Context, force bool) (*indexer.RunStats, error)
}

// IndexHandler handles HTTP requests for triggering re-indexing.
type IndexHandler struct {
	reindexer Reindexer

	mu      sync.Mutex
	running bool
	last    *indexer.RunStats
	lastErr string
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(reindexer Reindexer) *IndexHandler {
	return &IndexHandler{reindexer: reindexer}
}

// IndexResponse represents the response from the index endpoints.
type IndexResponse struct {
	Message string            `json:"message,omitempty"`
	Status  string            `json:"status"`
	LastRun *indexer.RunStats `json:"last_run,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Trigger handles POST /api/index. The run continues in the background after
// the response; ?force=true re-embeds unchanged files.
func (h *IndexHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	force := queryFlag(r, "force")

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		writeError(w, http.StatusConflict, "Indexing already in progress")
		return
	}
	h.running = true
	h.mu.Unlock()

	logger.InfoContext(ctx, "re-indexing triggered via API", "force", force)

	// Keep the request logger but not the request's cancellation.
	runCtx := context.WithoutCancel(ctx)
	go func() {
		stats, err := h.reindexer.Reindex(runCtx, force)

		h.mu.Lock()
		defer h.mu.Unlock()
		h.running = false
		if stats != nil {
			h.last = stats
		}
		h.lastErr = ""
		if err != nil {
			h.lastErr = err.Error()
			if errors.Is(err, indexer.ErrIndexingInProgress) {
				logger.WarnContext(runCtx, "re-indexing skipped", "error", err)
				return
			}
			logger.ErrorContext(runCtx, "re-indexing completed with errors", "error", err)
			return
		}
		logger.InfoContext(runCtx, "re-indexing completed successfully")
	}()

	message := "Indexing started. Check server logs for progress."
	if force {
		message = "Forced re-indexing started. Check server logs for progress."
	}
	writeJSON(ctx, w, http.StatusAccepted, IndexResponse{
		Message: message,
		Status:  "accepted",
	})
}

// Status handles GET /api/index.
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := IndexResponse{Status: "idle", LastRun: h.last, Error: h.lastErr}
	if h.running {
		resp.Status = "running"
	}
	h.mu.Unlock()
	writeJSON(r.Context(), w, http.StatusOK, resp)
}
