package handlers

import (
	"net/http"
	"strings"

	"github.com/openmohaa/tactical-api/internal/models"
)

// ResolveTeams looks an opponent up by name
// @Summary Resolve Team
// @Tags Teams
// @Produce json
// @Param name query string true "Team name or fragment"
// @Success 200 {object} models.TeamResolveResponse
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /teams/resolve [get]
func (h *Handler) ResolveTeams(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		h.errorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if h.directory == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Team directory is not configured")
		return
	}

	teams, err := h.directory.Resolve(r.Context(), name)
	if err != nil {
		h.logger.Errorw("Failed to resolve team", "error", err, "name", name)
		h.errorResponse(w, http.StatusBadGateway, "Failed to resolve team")
		return
	}

	h.jsonResponse(w, http.StatusOK, models.TeamResolveResponse{Query: name, Teams: teams})
}
