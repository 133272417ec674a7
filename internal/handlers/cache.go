package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
)

// GetCacheStats reports plan cache occupancy and hit rate
// @Summary Plan Cache Stats
// @Tags Cache
// @Produce json
// @Success 200 {object} models.CacheStats
// @Router /cache/stats [get]
func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.Stats(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to read cache stats", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to read cache stats")
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}

// DeleteCachedPlan evicts the cached plan for one opponent
// @Summary Evict Cached Plan
// @Tags Cache
// @Param opponentId path string true "Provider team ID"
// @Success 204
// @Router /cache/{opponentId} [delete]
func (h *Handler) DeleteCachedPlan(w http.ResponseWriter, r *http.Request) {
	opponentID := chi.URLParam(r, "opponentId")
	if opponentID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Opponent ID is required")
		return
	}

	key := h.service.PlanKey(opponentID)
	if err := h.cache.Delete(r.Context(), key); err != nil {
		h.logger.Errorw("Failed to evict cached plan", "error", err, "key", key)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to evict cached plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCache evicts every cached plan
// @Summary Clear Plan Cache
// @Tags Cache
// @Produce json
// @Success 200 {object} models.CacheClearResponse
// @Router /cache [delete]
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	removed, err := h.cache.Clear(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to clear plan cache", "error", err, "removed", removed)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to clear plan cache")
		return
	}
	h.logger.Infow("Plan cache cleared", "removed", removed)
	h.jsonResponse(w, http.StatusOK, models.CacheClearResponse{Removed: removed})
}

// GetScorerStatus reports which scorer builds plans
// @Summary ML Scorer Status
// @Tags AI
// @Produce json
// @Success 200 {object} models.ScorerStatus
// @Router /ml/status [get]
func (h *Handler) GetScorerStatus(w http.ResponseWriter, r *http.Request) {
	name, version := h.service.ScorerInfo()
	h.jsonResponse(w, http.StatusOK, models.ScorerStatus{
		Scorer:       name,
		ModelVersion: version,
		MLEnabled:    name != logic.ScorerRuleOnly,
	})
}
