package api

import (
	"net/http"
	"strconv"

	"github.com/sernajr/eventos-core/internal/audit"
	"github.com/sernajr/eventos-core/internal/identity"
)

// handleListAudit returns audit entries, most recent first. Admin only.
//
// Query parameters: action, entity_type, actor_id, limit, offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if d := identity.Authorize(claims, identity.RoleAdmin); !d.Allowed {
		writeForbidden(w, "insufficient permissions")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		ActorID:    q.Get("actor_id"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.auditLog.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit entries", "error", err)
		writeInternalError(w, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
