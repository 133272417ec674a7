package handlers

import (
	"net/http"
	"sort"
)

// InstallSchema creates the tables backing the team directory and plan history
// @Summary Install Database Schema
// @Description Creates the PostgreSQL teams table and the ClickHouse plan history table
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /system/install [post]
func (h *Handler) InstallSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names := make([]string, 0, len(h.installers))
	for name := range h.installers {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	hasError := false
	for _, name := range names {
		if err := h.installers[name](ctx); err != nil {
			h.logger.Errorw("failed to install schema", "db", name, "error", err)
			results[name] = "failed: " + err.Error()
			hasError = true
			continue
		}
		h.logger.Infow("successfully installed schema", "db", name)
		results[name] = "success"
	}

	statusCode := http.StatusOK
	if hasError {
		statusCode = http.StatusInternalServerError
	}

	h.jsonResponse(w, statusCode, map[string]interface{}{
		"status":  "completed",
		"results": results,
		"error":   hasError,
	})
}
