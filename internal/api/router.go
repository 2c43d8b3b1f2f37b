package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/videre-project/asi-worker/internal/api/response"
	"github.com/videre-project/asi-worker/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// WebSocket endpoint (no JSON content-type requirement)
	s.router.Get("/ws", s.wsHub.ServeWs)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.With(s.rateLimitMiddleware).Post("/asi", s.asiHandler.Score)
		r.Get("/asi/stats", s.asiHandler.Stats)
	})
}

// healthCheck returns server health status.
func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "asi-worker",
		"version": version.GetVersion(),
	})
}
