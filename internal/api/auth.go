package api

import (
	"encoding/json"
	"net/http"

	"github.com/sernajr/eventos-core/internal/identity"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int              `json:"expires_in"`
	Profile     identity.Profile `json:"profile"`
}

// handleRegister creates a new identity.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req identity.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ident, err := s.identity.Register(r.Context(), claimsFromContext(r.Context()), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ident.ProfileView())
}

// handleLogin authenticates an identity and returns an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	token, ident, err := s.identity.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		Profile:     ident.ProfileView(),
	})
}

// handleLogout records the end of the session. Tokens are stateless, so the
// client must discard its copy; the token stays valid until expiry.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.identity.Logout(r.Context(), claimsFromContext(r.Context())); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "logged out",
	})
}

// handleProfile returns the authenticated identity's own record.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.identity.Profile(r.Context(), claimsFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
