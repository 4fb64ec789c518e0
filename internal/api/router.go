package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)

			// WS ticket requires authentication - admin must be logged in
			// to request a ticket
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Door endpoints. Status is read-only; lock is the only
			// write - the API can never unlock the door.
			r.Route("/door", func(r chi.Router) {
				r.Get("/", s.handleDoorStatus)
				r.Post("/lock", s.handleDoorLock)
			})

			// Identity endpoints
			r.Route("/identities", func(r chi.Router) {
				r.Get("/", s.handleListIdentities)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetIdentity)
					r.Patch("/", s.handleUpdateIdentity)
				})
			})

			// Audit trail endpoints (read-only, the trail is append-only)
			r.Route("/access-logs", func(r chi.Router) {
				r.Get("/", s.handleListAccessLogs)
				r.Get("/stats", s.handleAccessLogStats)
			})

			// System event log
			r.Get("/events", s.handleListEvents)

			// Dry-run reconciliation of a verdict pair
			r.Post("/attempts/validate", s.handleValidateAttempt)

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
