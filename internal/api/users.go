package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sernajr/eventos-core/internal/identity"
)

// handleListUsers returns every identity. Admin only.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.identity.List(r.Context(), claimsFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": profiles,
		"count": len(profiles),
	})
}

// handleGetUser returns a single identity. Self or admin.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	profile, err := s.identity.Get(r.Context(), claimsFromContext(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// handleUpdateUser patches an identity's display name and/or password.
// Self or admin.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req identity.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	profile, err := s.identity.Update(r.Context(), claimsFromContext(r.Context()), id, req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// setActiveRequest is the request body for PUT /users/{id}/active.
type setActiveRequest struct {
	Active *bool `json:"active"`
}

// handleSetUserActive activates or deactivates an identity. Admin only.
func (s *Server) handleSetUserActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Active == nil {
		writeBadRequest(w, "active field is required")
		return
	}

	profile, err := s.identity.SetActive(r.Context(), claimsFromContext(r.Context()), id, *req.Active)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// setRoleRequest is the request body for PUT /users/{id}/role.
type setRoleRequest struct {
	Role identity.Role `json:"role"`
}

// handleSetUserRole changes an identity's role. Admin only.
func (s *Server) handleSetUserRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	profile, err := s.identity.SetRole(r.Context(), claimsFromContext(r.Context()), id, req.Role)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
