package handlers

import (
	"context"

	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
)

// MockTacticalService
type MockTacticalService struct {
	BuildPlanFunc   func(ctx context.Context, req logic.PlanRequest) (*models.TacticalPlan, error)
	RecalibrateFunc func(ctx context.Context, req logic.PlanRequest) (*models.TacticalPlan, error)
	FoundationFunc  func(ctx context.Context, opponent models.TeamIdentity) (*models.TacticalFoundation, error)
	ScorerName      string
	ScorerVersion   string
}

func (m *MockTacticalService) BuildPlan(ctx context.Context, req logic.PlanRequest) (*models.TacticalPlan, error) {
	if m.BuildPlanFunc != nil {
		return m.BuildPlanFunc(ctx, req)
	}
	return &models.TacticalPlan{Opponent: req.Opponent.Name, OpponentID: req.Opponent.ID}, nil
}

func (m *MockTacticalService) Recalibrate(ctx context.Context, req logic.PlanRequest) (*models.TacticalPlan, error) {
	if m.RecalibrateFunc != nil {
		return m.RecalibrateFunc(ctx, req)
	}
	return &models.TacticalPlan{Opponent: req.Opponent.Name, OpponentID: req.Opponent.ID}, nil
}

func (m *MockTacticalService) Foundation(ctx context.Context, opponent models.TeamIdentity) (*models.TacticalFoundation, error) {
	if m.FoundationFunc != nil {
		return m.FoundationFunc(ctx, opponent)
	}
	return &models.TacticalFoundation{MatchesAnalyzed: 10}, nil
}

func (m *MockTacticalService) PlanKey(opponentID string) string {
	return "17_" + opponentID
}

func (m *MockTacticalService) ScorerInfo() (string, string) {
	if m.ScorerName == "" {
		return logic.ScorerRuleOnly, ""
	}
	return m.ScorerName, m.ScorerVersion
}

// MockTeamDirectory
type MockTeamDirectory struct {
	ResolveFunc func(ctx context.Context, name string) ([]models.TeamIdentity, error)
	Teams       map[string]models.TeamIdentity
}

func (m *MockTeamDirectory) Resolve(ctx context.Context, name string) ([]models.TeamIdentity, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, name)
	}
	return []models.TeamIdentity{}, nil
}

func (m *MockTeamDirectory) Get(ctx context.Context, id string) (*models.TeamIdentity, error) {
	if t, ok := m.Teams[id]; ok {
		return &t, nil
	}
	return nil, nil
}

// MockCacheAdmin
type MockCacheAdmin struct {
	Deleted   []string
	ClearFunc func(ctx context.Context) (int, error)
	StatsFunc func(ctx context.Context) (models.CacheStats, error)
}

func (m *MockCacheAdmin) Delete(ctx context.Context, key string) error {
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *MockCacheAdmin) Clear(ctx context.Context) (int, error) {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return 0, nil
}

func (m *MockCacheAdmin) Stats(ctx context.Context) (models.CacheStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return models.CacheStats{Backend: "memory"}, nil
}

// MockHistoryQueue
type MockHistoryQueue struct {
	Depth int
}

func (m *MockHistoryQueue) QueueDepth() int { return m.Depth }

// MockFixtureSource
type MockFixtureSource struct {
	UpcomingFunc func(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error)
	RecentFunc   func(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error)
}

func (m *MockFixtureSource) UpcomingFixtures(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error) {
	if m.UpcomingFunc != nil {
		return m.UpcomingFunc(ctx, team, limit)
	}
	return []models.Fixture{}, nil
}

func (m *MockFixtureSource) RecentFixtures(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, team, limit)
	}
	return []models.Fixture{}, nil
}
