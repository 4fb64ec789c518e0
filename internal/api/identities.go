package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wardgate/wardgate-core/internal/identity"
)

// identityResponse is an identity decorated with enrollment counts.
type identityResponse struct {
	identity.Identity
	FaceTemplates        int `json:"face_templates"`
	FingerprintTemplates int `json:"fingerprint_templates"`
}

// handleListIdentities returns all enrolled identities.
func (s *Server) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	identities, err := s.identities.List(r.Context())
	if err != nil {
		s.logger.Error("listing identities failed", "error", err)
		writeInternalError(w, "failed to list identities")
		return
	}

	resp := make([]identityResponse, 0, len(identities))
	for i := range identities {
		faces, prints := s.identities.TemplateCounts(identities[i].ID)
		resp = append(resp, identityResponse{
			Identity:             identities[i],
			FaceTemplates:        faces,
			FingerprintTemplates: prints,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"identities": resp,
		"count":      len(resp),
	})
}

// handleGetIdentity returns a single identity by ID.
func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ident, err := s.identities.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeNotFound(w, "identity not found: "+id)
			return
		}
		s.logger.Error("getting identity failed", "identity_id", id, "error", err)
		writeInternalError(w, "failed to get identity")
		return
	}

	faces, prints := s.identities.TemplateCounts(ident.ID)
	writeJSON(w, http.StatusOK, identityResponse{
		Identity:             *ident,
		FaceTemplates:        faces,
		FingerprintTemplates: prints,
	})
}

// updateIdentityRequest is the request body for PATCH /identities/{id}.
// Only the active flag is mutable from the API; enrollment happens
// through the CLI where the sensors are physically reachable.
type updateIdentityRequest struct {
	Active *bool `json:"active"`
}

// handleUpdateIdentity enables or disables an identity.
// Disabling takes effect on the next authentication attempt.
func (s *Server) handleUpdateIdentity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Active == nil {
		writeBadRequest(w, "active field is required")
		return
	}

	if err := s.identities.SetActive(r.Context(), id, *req.Active); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeNotFound(w, "identity not found: "+id)
			return
		}
		s.logger.Error("updating identity failed", "identity_id", id, "error", err)
		writeInternalError(w, "failed to update identity")
		return
	}

	claims, _ := claimsFromContext(r.Context())
	if claims != nil {
		s.logger.Info("identity active flag changed",
			"identity_id", id,
			"active", *req.Active,
			"admin_id", claims.Subject,
		)
	}

	ident, err := s.identities.Get(r.Context(), id)
	if err != nil {
		writeInternalError(w, "failed to reload identity")
		return
	}
	writeJSON(w, http.StatusOK, ident)
}
