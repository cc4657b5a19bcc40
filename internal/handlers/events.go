package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"portfolio-rag/internal/service"
	"portfolio-rag/internal/storage"
)

// EventsHandler serves the chat event log.
type EventsHandler struct {
	eventService service.EventService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(eventService service.EventService) *EventsHandler {
	return &EventsHandler{eventService: eventService}
}

// EventListResponse is a page of chat events.
type EventListResponse struct {
	Events []storage.ChatEvent `json:"events"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// List handles GET /api/events?limit=&offset=&type=&session_id=.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation error: limit: must be an integer")
		return
	}
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation error: offset: must be an integer")
		return
	}

	events, err := h.eventService.List(ctx, service.EventQuery{
		Limit:     limit,
		Offset:    offset,
		Type:      q.Get("type"),
		SessionID: q.Get("session_id"),
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list events")
		return
	}

	effective := limit
	if effective == 0 {
		effective = storage.DefaultEventLimit
	}
	writeJSON(ctx, w, http.StatusOK, EventListResponse{
		Events: events,
		Limit:  min(effective, storage.MaxEventLimit),
		Offset: offset,
	})
}

// Get handles GET /api/events/{id}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event, err := h.eventService.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get event")
		return
	}
	writeJSON(ctx, w, http.StatusOK, event)
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
