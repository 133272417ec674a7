package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
	"github.com/openmohaa/tactical-api/internal/provider"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetTacticalPlan(t *testing.T) {
	tests := []struct {
		name        string
		opponentID  string
		query       string
		buildErr    error
		wantStatus  int
		wantName    string
		wantRefresh bool
	}{
		{name: "Explicit name", opponentID: "42", query: "?opponent_name=Rival%20United", wantStatus: http.StatusOK, wantName: "Rival United"},
		{name: "Name from directory", opponentID: "7", wantStatus: http.StatusOK, wantName: "City FC"},
		{name: "Unknown falls back to id", opponentID: "99", wantStatus: http.StatusOK, wantName: "99"},
		{name: "Refresh", opponentID: "42", query: "?refresh=true", wantStatus: http.StatusOK, wantName: "42", wantRefresh: true},
		{name: "Bad refresh", opponentID: "42", query: "?refresh=maybe", wantStatus: http.StatusBadRequest},
		{name: "Missing id", opponentID: "", wantStatus: http.StatusBadRequest},
		{name: "Service error", opponentID: "42", buildErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got logic.PlanRequest
			svc := &MockTacticalService{
				BuildPlanFunc: func(ctx context.Context, req logic.PlanRequest) (*models.TacticalPlan, error) {
					got = req
					if tt.buildErr != nil {
						return nil, tt.buildErr
					}
					return &models.TacticalPlan{Opponent: req.Opponent.Name, OpponentID: req.Opponent.ID}, nil
				},
			}
			h := New(Config{
				Service:   svc,
				Directory: &MockTeamDirectory{Teams: map[string]models.TeamIdentity{"7": {ID: "7", Name: "City FC"}}},
			})

			req := httptest.NewRequest("GET", "/api/v1/tactical-plan/"+tt.opponentID+tt.query, nil)
			req = withURLParam(req, "opponentId", tt.opponentID)
			w := httptest.NewRecorder()

			h.GetTacticalPlan(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("StatusCode = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got.Opponent.Name != tt.wantName {
				t.Errorf("opponent name = %q, want %q", got.Opponent.Name, tt.wantName)
			}
			if got.Refresh != tt.wantRefresh {
				t.Errorf("refresh = %v, want %v", got.Refresh, tt.wantRefresh)
			}
			var plan models.TacticalPlan
			if err := json.Unmarshal(w.Body.Bytes(), &plan); err != nil {
				t.Fatalf("invalid body: %v", err)
			}
			if plan.OpponentID != tt.opponentID {
				t.Errorf("opponent_id = %q, want %q", plan.OpponentID, tt.opponentID)
			}
		})
	}
}

func TestRecalibratePlan(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantObs    int
	}{
		{
			name:       "Valid observations",
			body:       `{"opponent_name":"Rival","observations":[{"possession_percent":62,"pressing_level":"high"},{"shots_for":14}]}`,
			wantStatus: http.StatusOK,
			wantObs:    2,
		},
		{
			name:       "No observations",
			body:       `{"opponent_name":"Rival","observations":[]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "Possession out of range",
			body:       `{"observations":[{"possession_percent":140}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unknown pressing level",
			body:       `{"observations":[{"pressing_level":"extreme"}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unknown field",
			body:       `{"observations":[],"formation":"4-4-2"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Malformed JSON",
			body:       `{"observations":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Oversized payload",
			body:       `{"opponent_name":"` + strings.Repeat("a", MaxBodySize) + `"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got logic.PlanRequest
			svc := &MockTacticalService{
				RecalibrateFunc: func(ctx context.Context, req logic.PlanRequest) (*models.TacticalPlan, error) {
					got = req
					return &models.TacticalPlan{}, nil
				},
			}
			h := New(Config{Service: svc})

			req := httptest.NewRequest("POST", "/api/v1/tactical-plan/42/recalibrate", strings.NewReader(tt.body))
			req = withURLParam(req, "opponentId", "42")
			w := httptest.NewRecorder()

			h.RecalibratePlan(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("StatusCode = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK && len(got.Observations) != tt.wantObs {
				t.Errorf("observations = %d, want %d", len(got.Observations), tt.wantObs)
			}
		})
	}
}

func TestGetFoundation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Success", nil, http.StatusOK},
		{"Insufficient data", &logic.InsufficientDataError{TeamID: "42"}, http.StatusNotFound},
		{"Provider blocked", &logic.ExternalFetchError{Source: "sofascore", TeamID: "42", Err: provider.ErrBlocked}, http.StatusServiceUnavailable},
		{"Provider down", &logic.ExternalFetchError{Source: "sofascore", TeamID: "42", Err: fmt.Errorf("status 500")}, http.StatusBadGateway},
		{"Other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockTacticalService{
				FoundationFunc: func(ctx context.Context, opponent models.TeamIdentity) (*models.TacticalFoundation, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &models.TacticalFoundation{MatchesAnalyzed: 8}, nil
				},
			}
			h := New(Config{Service: svc})

			req := httptest.NewRequest("GET", "/api/v1/opponents/42/foundation", nil)
			req = withURLParam(req, "opponentId", "42")
			w := httptest.NewRecorder()

			h.GetFoundation(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestResolveTeams(t *testing.T) {
	dir := &MockTeamDirectory{
		ResolveFunc: func(ctx context.Context, name string) ([]models.TeamIdentity, error) {
			if name == "fail" {
				return nil, errors.New("search down")
			}
			return []models.TeamIdentity{{ID: "42", Name: "Rival United"}}, nil
		},
	}

	tests := []struct {
		name       string
		query      string
		directory  logic.TeamDirectory
		wantStatus int
	}{
		{"Found", "?name=rival", dir, http.StatusOK},
		{"Missing name", "", dir, http.StatusBadRequest},
		{"Search error", "?name=fail", dir, http.StatusBadGateway},
		{"No directory", "?name=rival", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Config{Service: &MockTacticalService{}, Directory: tt.directory})
			req := httptest.NewRequest("GET", "/api/v1/teams/resolve"+tt.query, nil)
			w := httptest.NewRecorder()

			h.ResolveTeams(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestCacheEndpoints(t *testing.T) {
	cache := &MockCacheAdmin{
		ClearFunc: func(ctx context.Context) (int, error) { return 3, nil },
		StatsFunc: func(ctx context.Context) (models.CacheStats, error) {
			return models.CacheStats{Backend: "redis", Entries: 3, Hits: 5, Misses: 2}, nil
		},
	}
	h := New(Config{Service: &MockTacticalService{}, Cache: cache})

	t.Run("Stats", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.GetCacheStats(w, httptest.NewRequest("GET", "/api/v1/cache/stats", nil))
		var stats models.CacheStats
		if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
			t.Fatal(err)
		}
		if w.Code != http.StatusOK || stats.Entries != 3 || stats.Backend != "redis" {
			t.Errorf("unexpected stats response %d %+v", w.Code, stats)
		}
	})

	t.Run("Delete one", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest("DELETE", "/api/v1/cache/42", nil), "opponentId", "42")
		w := httptest.NewRecorder()
		h.DeleteCachedPlan(w, req)
		if w.Code != http.StatusNoContent {
			t.Errorf("StatusCode = %d, want 204", w.Code)
		}
		if len(cache.Deleted) != 1 || cache.Deleted[0] != "17_42" {
			t.Errorf("deleted keys = %v", cache.Deleted)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ClearCache(w, httptest.NewRequest("DELETE", "/api/v1/cache", nil))
		if !strings.Contains(w.Body.String(), `"removed":3`) {
			t.Errorf("body = %s", w.Body.String())
		}
	})
}

func TestGetScorerStatus(t *testing.T) {
	tests := []struct {
		name    string
		svc     *MockTacticalService
		enabled bool
	}{
		{"Rule only", &MockTacticalService{}, false},
		{"ML assisted", &MockTacticalService{ScorerName: logic.ScorerMLAssisted, ScorerVersion: "2024.08-lr"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Config{Service: tt.svc})
			w := httptest.NewRecorder()
			h.GetScorerStatus(w, httptest.NewRequest("GET", "/api/v1/ml/status", nil))

			var status models.ScorerStatus
			if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
				t.Fatal(err)
			}
			if status.MLEnabled != tt.enabled {
				t.Errorf("ml_enabled = %v, want %v", status.MLEnabled, tt.enabled)
			}
		})
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
	}{
		{"No dependencies", nil, http.StatusOK},
		{"All healthy", map[string]Check{"redis": func(context.Context) error { return nil }}, http.StatusOK},
		{"One down", map[string]Check{
			"redis":    func(context.Context) error { return nil },
			"postgres": func(context.Context) error { return errors.New("refused") },
		}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Config{Checks: tt.checks, History: &MockHistoryQueue{Depth: 4}})
			w := httptest.NewRecorder()
			h.Ready(w, httptest.NewRequest("GET", "/ready", nil))
			if w.Code != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), `"queueDepth":4`) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

func TestInstallSchema(t *testing.T) {
	h := New(Config{Installers: map[string]Check{
		"clickhouse": func(context.Context) error { return nil },
		"postgres":   func(context.Context) error { return errors.New("permission denied") },
	}})
	w := httptest.NewRecorder()
	h.InstallSchema(w, httptest.NewRequest("POST", "/api/v1/system/install", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"clickhouse":"success"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
