package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/openmohaa/tactical-api/internal/models"
	"github.com/openmohaa/tactical-api/internal/provider"
)

const (
	defaultFixtureLimit = 5
	maxFixtureLimit     = 50

	// Window the opponent list is drawn from
	opponentsPastFixtures     = 30
	opponentsUpcomingFixtures = 15
)

// GetUpcomingFixtures lists the configured team's next fixtures
// @Summary Upcoming Fixtures
// @Tags Fixtures
// @Produce json
// @Param limit query int false "Maximum fixtures (default 5, max 50)"
// @Success 200 {object} models.FixturesResponse
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 502 {object} map[string]string "Provider failure"
// @Failure 503 {object} map[string]string "Provider blocked"
// @Router /fixtures/upcoming [get]
func (h *Handler) GetUpcomingFixtures(w http.ResponseWriter, r *http.Request) {
	if h.fixtures == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Fixture source is not configured")
		return
	}
	limit, ok := h.fixtureLimit(w, r)
	if !ok {
		return
	}

	fixtures, err := h.fixtures.UpcomingFixtures(r.Context(), h.team, limit)
	if err != nil {
		h.fixtureError(w, err, h.team.ID)
		return
	}

	h.jsonResponse(w, http.StatusOK, models.FixturesResponse{Team: h.team, Count: len(fixtures), Fixtures: fixtures})
}

// GetOpponents lists the distinct opponents in the team's recent and upcoming fixtures
// @Summary Opponents
// @Tags Fixtures
// @Produce json
// @Success 200 {object} models.OpponentsResponse
// @Failure 502 {object} map[string]string "Provider failure"
// @Failure 503 {object} map[string]string "Provider blocked"
// @Router /opponents [get]
func (h *Handler) GetOpponents(w http.ResponseWriter, r *http.Request) {
	if h.fixtures == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Fixture source is not configured")
		return
	}

	var past, upcoming []models.Fixture
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		past, err = h.fixtures.RecentFixtures(ctx, h.team, opponentsPastFixtures)
		return err
	})
	g.Go(func() error {
		var err error
		upcoming, err = h.fixtures.UpcomingFixtures(ctx, h.team, opponentsUpcomingFixtures)
		return err
	})
	if err := g.Wait(); err != nil {
		h.fixtureError(w, err, h.team.ID)
		return
	}

	seen := make(map[string]bool)
	opponents := []models.TeamIdentity{}
	for _, f := range append(past, upcoming...) {
		if f.OpponentID == "" || seen[f.OpponentID] {
			continue
		}
		seen[f.OpponentID] = true
		opponents = append(opponents, f.Opponent())
	}
	sort.Slice(opponents, func(i, j int) bool {
		a, b := strings.ToLower(opponents[i].Name), strings.ToLower(opponents[j].Name)
		if a != b {
			return a < b
		}
		return opponents[i].ID < opponents[j].ID
	})

	h.jsonResponse(w, http.StatusOK, models.OpponentsResponse{Team: h.team, Count: len(opponents), Opponents: opponents})
}

// GetOpponentRecent returns an opponent's latest results and form
// @Summary Opponent Recent Form
// @Tags Fixtures
// @Produce json
// @Param opponentId path string true "Provider team ID"
// @Param opponent_name query string false "Display name"
// @Param limit query int false "Maximum matches (default 5, max 50)"
// @Success 200 {object} models.RecentFormResponse
// @Failure 404 {object} map[string]string "No finished matches"
// @Router /opponents/{opponentId}/recent [get]
func (h *Handler) GetOpponentRecent(w http.ResponseWriter, r *http.Request) {
	opponentID := chi.URLParam(r, "opponentId")
	if opponentID == "" {
		h.errorResponse(w, http.StatusBadRequest, "Opponent ID is required")
		return
	}
	if h.fixtures == nil {
		h.errorResponse(w, http.StatusServiceUnavailable, "Fixture source is not configured")
		return
	}
	limit, ok := h.fixtureLimit(w, r)
	if !ok {
		return
	}

	opponent := h.opponent(r.Context(), opponentID, r.URL.Query().Get("opponent_name"))
	recent, err := h.fixtures.RecentFixtures(r.Context(), opponent, limit)
	if err != nil {
		h.fixtureError(w, err, opponentID)
		return
	}
	if len(recent) == 0 {
		h.errorResponse(w, http.StatusNotFound, "No finished matches for opponent")
		return
	}

	form, stats := models.SummarizeForm(recent)
	h.jsonResponse(w, http.StatusOK, models.RecentFormResponse{
		Team:          opponent,
		Form:          form,
		RecentMatches: recent,
		Statistics:    stats,
	})
}

func (h *Handler) fixtureLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultFixtureLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxFixtureLimit {
		h.errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 50")
		return 0, false
	}
	return limit, true
}

func (h *Handler) fixtureError(w http.ResponseWriter, err error, teamID string) {
	if errors.Is(err, provider.ErrBlocked) {
		h.logger.Warnw("Fixture provider blocked request", "teamID", teamID, "error", err)
		h.errorResponse(w, http.StatusServiceUnavailable, "Match provider is blocking requests")
		return
	}
	h.logger.Errorw("Failed to fetch fixtures", "teamID", teamID, "error", err)
	h.errorResponse(w, http.StatusBadGateway, "Failed to fetch fixtures")
}
