// Package api exposes the operator HTTP surface: relay over HTTP, history
// inspection, model switching, and archive queries.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/parleybot/parley/internal/api/handlers"
	"github.com/parleybot/parley/internal/domain/archive"
	"github.com/parleybot/parley/internal/domain/conversation"
	"github.com/parleybot/parley/internal/domain/models"
	"github.com/parleybot/parley/internal/domain/relay"
	"github.com/parleybot/parley/internal/version"
)

// Deps carries the services the router exposes.
type Deps struct {
	Store    *conversation.Store
	Pipeline *relay.Pipeline
	Registry *models.Registry
	Archive  *archive.Service
}

// NewRouter creates and configures the chi router with all routes.
// The API carries no authentication: it is meant for a trusted operator
// network, not the public internet.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + version.Version + `"}`)) //nolint:errcheck
	})

	conversationHandler := handlers.NewConversationHandler(deps.Store, deps.Pipeline)
	modelsHandler := handlers.NewModelsHandler(deps.Registry)
	archiveHandler := handlers.NewArchiveHandler(deps.Archive)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/conversations/{key}", func(r chi.Router) {
			r.Post("/messages", conversationHandler.PostMessage)   // POST /api/v1/conversations/{key}/messages
			r.Get("/history", conversationHandler.GetHistory)      // GET /api/v1/conversations/{key}/history
			r.Delete("/history", conversationHandler.ClearHistory) // DELETE /api/v1/conversations/{key}/history
			r.Delete("/", conversationHandler.RemoveConversation)  // DELETE /api/v1/conversations/{key}
		})

		r.Route("/models", func(r chi.Router) {
			r.Get("/", modelsHandler.ListModels)      // GET /api/v1/models
			r.Put("/active", modelsHandler.SetActive) // PUT /api/v1/models/active
		})

		r.Get("/transcripts", archiveHandler.ListTranscripts) // GET /api/v1/transcripts?key=&limit=&offset=
		r.Get("/usage", archiveHandler.GetUsage)              // GET /api/v1/usage
	})

	return r
}
