package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wardgate/wardgate-core/internal/sensor"
)

// verdictSpec describes one sensor verdict in a validate request.
type verdictSpec struct {
	// Status is "matched", "unmatched", or "failed".
	Status string `json:"status"`

	// IdentityID is required when Status is "matched".
	IdentityID string `json:"identity_id,omitempty"`

	// Confidence is the match confidence in [0, 1].
	Confidence float64 `json:"confidence,omitempty"`

	// Failure selects the failure kind when Status is "failed":
	// "timeout" or "disconnected". Defaults to "timeout".
	Failure string `json:"failure,omitempty"`
}

// validateRequest is the request body for POST /attempts/validate.
type validateRequest struct {
	Face        verdictSpec `json:"face"`
	Fingerprint verdictSpec `json:"fingerprint"`
}

// handleValidateAttempt runs a verdict pair through reconciliation without
// side effects: no lockout bookkeeping, no door actuation, no audit entry.
// Dashboards use it to answer "what would this combination decide".
func (s *Server) handleValidateAttempt(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "authentication engine not running")
		return
	}

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	face, err := verdictFromSpec("face", req.Face)
	if err != nil {
		writeBadRequest(w, "face: "+err.Error())
		return
	}
	fp, err := verdictFromSpec("fingerprint", req.Fingerprint)
	if err != nil {
		writeBadRequest(w, "fingerprint: "+err.Error())
		return
	}

	decision := s.engine.Validate(r.Context(), face, fp)

	resp := map[string]any{"decision": decision}
	if decision.Err != nil {
		resp["error"] = decision.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// verdictFromSpec builds a sensor verdict from its wire description.
func verdictFromSpec(name string, spec verdictSpec) (sensor.Verdict, error) {
	v := sensor.Verdict{
		Sensor:     name,
		CapturedAt: time.Now().UTC(),
	}

	switch spec.Status {
	case "matched":
		if spec.IdentityID == "" {
			return v, &queryError{"identity_id is required for a matched verdict"}
		}
		if spec.Confidence < 0 || spec.Confidence > 1 {
			return v, &queryError{"confidence must be in [0, 1]"}
		}
		v.IdentityID = spec.IdentityID
		v.Confidence = spec.Confidence
	case "unmatched":
		// zero verdict: someone was read, nobody matched
	case "failed":
		switch spec.Failure {
		case "", "timeout":
			v.Err = sensor.ErrTimeout
		case "disconnected":
			v.Err = sensor.ErrDisconnected
		default:
			return v, &queryError{"failure must be timeout or disconnected"}
		}
	default:
		return v, &queryError{"status must be matched, unmatched, or failed"}
	}

	return v, nil
}
