package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openmohaa/tactical-api/internal/models"
	"github.com/openmohaa/tactical-api/internal/provider"
)

var homeTeam = models.TeamIdentity{ID: "17", Name: "Home FC"}

func finishedFixture(id, opponentID, opponentName string, home bool, homeScore, awayScore int) models.Fixture {
	return models.Fixture{
		MatchID:      id,
		Status:       models.FixtureFinished,
		IsHome:       home,
		OpponentID:   opponentID,
		OpponentName: opponentName,
		HomeScore:    &homeScore,
		AwayScore:    &awayScore,
	}
}

func upcomingFixture(id, opponentID, opponentName string) models.Fixture {
	return models.Fixture{MatchID: id, Status: models.FixtureUpcoming, OpponentID: opponentID, OpponentName: opponentName}
}

func TestGetUpcomingFixtures(t *testing.T) {
	var gotLimit int
	var gotTeam models.TeamIdentity
	source := &MockFixtureSource{
		UpcomingFunc: func(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error) {
			gotTeam, gotLimit = team, limit
			if limit == 13 {
				return nil, fmt.Errorf("fetch: %w", provider.ErrBlocked)
			}
			if limit == 14 {
				return nil, errors.New("sofascore returned 500")
			}
			return []models.Fixture{upcomingFixture("1", "42", "Rival United")}, nil
		},
	}

	tests := []struct {
		name       string
		query      string
		source     *MockFixtureSource
		wantStatus int
		wantLimit  int
	}{
		{"Default limit", "", source, http.StatusOK, 5},
		{"Explicit limit", "?limit=10", source, http.StatusOK, 10},
		{"Bad limit", "?limit=abc", source, http.StatusBadRequest, 0},
		{"Limit too large", "?limit=51", source, http.StatusBadRequest, 0},
		{"Provider blocked", "?limit=13", source, http.StatusServiceUnavailable, 13},
		{"Provider down", "?limit=14", source, http.StatusBadGateway, 14},
		{"No source", "", nil, http.StatusServiceUnavailable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotLimit = 0
			cfg := Config{Service: &MockTacticalService{}, Team: homeTeam}
			if tt.source != nil {
				cfg.Fixtures = tt.source
			}
			h := New(cfg)
			w := httptest.NewRecorder()

			h.GetUpcomingFixtures(w, httptest.NewRequest("GET", "/api/v1/fixtures/upcoming"+tt.query, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", w.Code, tt.wantStatus)
			}
			if gotLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", gotLimit, tt.wantLimit)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if gotTeam != homeTeam {
				t.Errorf("team = %+v, want %+v", gotTeam, homeTeam)
			}
			var resp models.FixturesResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Count != 1 || resp.Fixtures[0].OpponentName != "Rival United" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestGetOpponents(t *testing.T) {
	source := &MockFixtureSource{
		RecentFunc: func(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error) {
			if limit != opponentsPastFixtures {
				t.Errorf("recent limit = %d, want %d", limit, opponentsPastFixtures)
			}
			return []models.Fixture{
				finishedFixture("1", "42", "Rival United", true, 2, 0),
				finishedFixture("2", "7", "city", false, 1, 1),
				finishedFixture("3", "42", "Rival United", false, 0, 1),
			}, nil
		},
		UpcomingFunc: func(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error) {
			return []models.Fixture{upcomingFixture("4", "9", "Albion"), upcomingFixture("5", "", "TBD")}, nil
		},
	}
	h := New(Config{Service: &MockTacticalService{}, Team: homeTeam, Fixtures: source})
	w := httptest.NewRecorder()

	h.GetOpponents(w, httptest.NewRequest("GET", "/api/v1/opponents", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200", w.Code)
	}
	var resp models.OpponentsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []models.TeamIdentity{{ID: "9", Name: "Albion"}, {ID: "7", Name: "city"}, {ID: "42", Name: "Rival United"}}
	if resp.Count != len(want) {
		t.Fatalf("count = %d, want %d", resp.Count, len(want))
	}
	for i := range want {
		if resp.Opponents[i] != want[i] {
			t.Errorf("opponents[%d] = %+v, want %+v", i, resp.Opponents[i], want[i])
		}
	}
}

func TestGetOpponentsUpstreamFailure(t *testing.T) {
	source := &MockFixtureSource{
		UpcomingFunc: func(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error) {
			return nil, errors.New("sofascore returned 502")
		},
	}
	h := New(Config{Service: &MockTacticalService{}, Team: homeTeam, Fixtures: source})
	w := httptest.NewRecorder()

	h.GetOpponents(w, httptest.NewRequest("GET", "/api/v1/opponents", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", w.Code)
	}
}

func TestGetOpponentRecent(t *testing.T) {
	var gotTeam models.TeamIdentity
	source := &MockFixtureSource{
		RecentFunc: func(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error) {
			gotTeam = team
			if team.ID == "99" {
				return []models.Fixture{}, nil
			}
			fixtures := []models.Fixture{
				finishedFixture("1", "17", "Home FC", true, 3, 1),
				finishedFixture("2", "8", "Town", false, 2, 0),
				finishedFixture("3", "9", "Albion", true, 1, 1),
			}
			return fixtures[:min(limit, len(fixtures))], nil
		},
	}
	directory := &MockTeamDirectory{Teams: map[string]models.TeamIdentity{"42": {ID: "42", Name: "Rival United"}}}
	h := New(Config{Service: &MockTacticalService{}, Directory: directory, Fixtures: source})

	t.Run("Form and statistics", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest("GET", "/api/v1/opponents/42/recent", nil), "opponentId", "42")
		w := httptest.NewRecorder()
		h.GetOpponentRecent(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("StatusCode = %d, want 200", w.Code)
		}
		if gotTeam.Name != "Rival United" {
			t.Errorf("team name = %q, want directory name", gotTeam.Name)
		}
		var resp models.RecentFormResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Form != "WLD" {
			t.Errorf("form = %q, want WLD", resp.Form)
		}
		want := models.FormStatistics{GoalsScored: 4, GoalsConceded: 4, Wins: 1, Draws: 1, Losses: 1, FormPercentage: 33}
		if resp.Statistics != want {
			t.Errorf("statistics = %+v, want %+v", resp.Statistics, want)
		}
		if len(resp.RecentMatches) != 3 {
			t.Errorf("recent matches = %d, want 3", len(resp.RecentMatches))
		}
	})

	t.Run("Limit", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest("GET", "/api/v1/opponents/42/recent?limit=1&opponent_name=Rivals", nil), "opponentId", "42")
		w := httptest.NewRecorder()
		h.GetOpponentRecent(w, req)

		var resp models.RecentFormResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Form != "W" || resp.Team.Name != "Rivals" {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("No matches", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest("GET", "/api/v1/opponents/99/recent", nil), "opponentId", "99")
		w := httptest.NewRecorder()
		h.GetOpponentRecent(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", w.Code)
		}
	})

	t.Run("Missing id", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.GetOpponentRecent(w, httptest.NewRequest("GET", "/api/v1/opponents//recent", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("StatusCode = %d, want 400", w.Code)
		}
	})
}
