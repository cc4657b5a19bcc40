package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"portfolio-rag/internal/handlers"
	"portfolio-rag/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	QueryService  service.QueryService
	IntentService service.IntentService
	EventService  service.EventService
	Store         handlers.PassageCounter
	// Reindexer is optional; without it the /api/index routes are not mounted.
	Reindexer handlers.Reindexer
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	queryHandler := handlers.NewQueryHandler(deps.QueryService)
	intentHandler := handlers.NewIntentHandler(deps.IntentService)
	eventsHandler := handlers.NewEventsHandler(deps.EventService)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.IntentService)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/rag/query", queryHandler)

		r.Post("/intent", intentHandler.Classify)
		r.Post("/intent/reset", intentHandler.Reset)

		r.Get("/events", eventsHandler.List)
		r.Get("/events/{id}", eventsHandler.Get)

		r.Method(http.MethodGet, "/health", healthHandler)

		if deps.Reindexer != nil {
			indexHandler := handlers.NewIndexHandler(deps.Reindexer)
			r.Post("/index", indexHandler.Trigger)
			r.Get("/index", indexHandler.Status)
		}
	})

	return r
}
