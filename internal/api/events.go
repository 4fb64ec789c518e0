package api

import (
	"net/http"
	"strconv"
)

// handleListEvents returns recent system events, newest first.
//
// Query parameters:
//   - limit: page size, defaults to 100
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusOK, map[string]any{"events": []any{}, "count": 0})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := s.events.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing system events failed", "error", err)
		writeInternalError(w, "failed to list system events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}
