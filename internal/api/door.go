package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/wardgate/wardgate-core/internal/door"
)

// doorStatusResponse is the response body for GET /door.
type doorStatusResponse struct {
	State           string `json:"state"`
	GrantedTo       string `json:"granted_to,omitempty"`
	RelockAt        string `json:"relock_at,omitempty"`
	TimeUntilRelock int    `json:"time_until_relock_seconds"`
}

// handleDoorStatus returns the current door state snapshot.
func (s *Server) handleDoorStatus(w http.ResponseWriter, _ *http.Request) {
	status := s.door.Status()

	resp := doorStatusResponse{
		State:     string(status.State),
		GrantedTo: status.GrantedTo,
	}
	if !status.RelockAt.IsZero() {
		resp.RelockAt = status.RelockAt.UTC().Format(time.RFC3339)
		resp.TimeUntilRelock = int(status.TimeUntilRelock.Round(time.Second).Seconds())
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleDoorLock relocks the door immediately, cancelling any pending
// auto-relock. There is deliberately no unlock counterpart: the only path
// to an unlocked door is a granted biometric attempt.
func (s *Server) handleDoorLock(w http.ResponseWriter, r *http.Request) {
	if err := s.door.Lock(r.Context()); err != nil {
		if errors.Is(err, door.ErrAlreadyLocked) {
			writeConflict(w, "door is already locked")
			return
		}
		s.logger.Error("manual lock failed", "error", err)
		writeInternalError(w, "lock actuation failed")
		return
	}

	claims, _ := claimsFromContext(r.Context())
	if claims != nil {
		s.logger.Info("door locked via API", "admin_id", claims.Subject)
	}

	writeJSON(w, http.StatusOK, s.door.Status())
}
