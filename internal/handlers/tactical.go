package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
	"github.com/openmohaa/tactical-api/internal/provider"
)

// GetTacticalPlan returns the plan against an opponent, served from cache when fresh
// @Summary Get Tactical Plan
// @Tags Tactical
// @Produce json
// @Param opponentId path string true "Provider team ID"
// @Param opponent_name query string false "Display name"
// @Param refresh query bool false "Bypass the plan cache"
// @Success 200 {object} models.TacticalPlan
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /tactical-plan/{opponentId} [get]
func (h *Handler) GetTacticalPlan(w http.ResponseWriter, r *http.Request) {
	opponentID := chi.URLParam(r, "opponentId")
	if opponentID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Opponent ID is required")
		return
	}

	refresh := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "refresh must be a boolean")
			return
		}
		refresh = v
	}

	opponent := h.opponent(r.Context(), opponentID, r.URL.Query().Get("opponent_name"))
	plan, err := h.service.BuildPlan(r.Context(), logic.PlanRequest{Opponent: opponent, Refresh: refresh})
	if err != nil {
		h.logger.Errorw("Failed to build tactical plan", "error", err, "opponentID", opponentID)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to build tactical plan")
		return
	}

	h.jsonResponse(w, http.StatusOK, plan)
}

// RecalibratePlan rebuilds the plan with fresh observations. The result is never cached.
// @Summary Recalibrate Tactical Plan
// @Tags Tactical
// @Accept json
// @Produce json
// @Param opponentId path string true "Provider team ID"
// @Param body body models.RecalibrationRequest true "Observations"
// @Success 200 {object} models.TacticalPlan
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /tactical-plan/{opponentId}/recalibrate [post]
func (h *Handler) RecalibratePlan(w http.ResponseWriter, r *http.Request) {
	opponentID := chi.URLParam(r, "opponentId")
	if opponentID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Opponent ID is required")
		return
	}

	var req models.RecalibrationRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	opponent := h.opponent(r.Context(), opponentID, req.OpponentName)
	plan, err := h.service.Recalibrate(r.Context(), logic.PlanRequest{
		Opponent:     opponent,
		Observations: req.Observations,
	})
	if err != nil {
		h.logger.Errorw("Failed to recalibrate tactical plan", "error", err, "opponentID", opponentID)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to recalibrate tactical plan")
		return
	}

	h.jsonResponse(w, http.StatusOK, plan)
}

// GetFoundation returns the opponent's aggregated historical profile and form
// @Summary Get Opponent Foundation
// @Tags Tactical
// @Produce json
// @Param opponentId path string true "Provider team ID"
// @Success 200 {object} models.FoundationResponse
// @Failure 404 {object} map[string]string "No usable matches"
// @Failure 502 {object} map[string]string "Provider failure"
// @Failure 503 {object} map[string]string "Provider blocked"
// @Router /opponents/{opponentId}/foundation [get]
func (h *Handler) GetFoundation(w http.ResponseWriter, r *http.Request) {
	opponentID := chi.URLParam(r, "opponentId")
	if opponentID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Opponent ID is required")
		return
	}

	opponent := h.opponent(r.Context(), opponentID, r.URL.Query().Get("opponent_name"))
	foundation, err := h.service.Foundation(r.Context(), opponent)
	if err != nil {
		var (
			insufficient *logic.InsufficientDataError
			fetchErr     *logic.ExternalFetchError
		)
		switch {
		case errors.As(err, &insufficient):
			h.errorResponse(w, http.StatusNotFound, insufficient.Error())
		case errors.Is(err, provider.ErrBlocked):
			h.logger.Warnw("Match provider blocked request", "opponentID", opponentID, "error", err)
			h.errorResponse(w, http.StatusServiceUnavailable, "Match provider is blocking requests")
		case errors.As(err, &fetchErr):
			h.logger.Warnw("Match fetch failed", "opponentID", opponentID, "error", err)
			h.errorResponse(w, http.StatusBadGateway, "Failed to fetch opponent matches")
		default:
			h.logger.Errorw("Failed to build foundation", "error", err, "opponentID", opponentID)
			h.errorResponse(w, http.StatusInternalServerError, "Failed to build foundation")
		}
		return
	}

	h.jsonResponse(w, http.StatusOK, models.FoundationResponse{Opponent: opponent, Foundation: *foundation})
}

// opponent builds the identity passed to the pipeline. A missing display name
// is looked up in the team directory and falls back to the id.
func (h *Handler) opponent(ctx context.Context, id, name string) models.TeamIdentity {
	name = strings.TrimSpace(name)
	if name == "" && h.directory != nil {
		team, err := h.directory.Get(ctx, id)
		if err != nil {
			h.logger.Warnw("Team directory lookup failed", "opponentID", id, "error", err)
		} else if team != nil {
			name = team.Name
		}
	}
	if name == "" {
		name = id
	}
	return models.TeamIdentity{ID: id, Name: name}
}
