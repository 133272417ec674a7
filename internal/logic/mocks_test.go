package logic

import (
	"context"
	"sync"
	"time"

	"github.com/openmohaa/tactical-api/internal/models"
)

type mockSource struct {
	mu      sync.Mutex
	name    string
	matches []models.RawMatch
	err     error
	calls   int
	// When set, entered is signalled and the fetch blocks until gate closes.
	entered chan struct{}
	gate    chan struct{}
}

func (m *mockSource) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *mockSource) RecentMatches(ctx context.Context, _ models.TeamIdentity, limit int) ([]models.RawMatch, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.matches) > limit {
		return m.matches[:limit], nil
	}
	return m.matches, nil
}

func (m *mockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockCache struct {
	mu      sync.Mutex
	entries map[string]models.TacticalPlan
	ttls    map[string]time.Duration
	getErr  error
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]models.TacticalPlan), ttls: make(map[string]time.Duration)}
}

func (m *mockCache) Get(_ context.Context, key string) (*models.TacticalPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockCache) Set(_ context.Context, key string, plan *models.TacticalPlan, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = *plan
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type mockRecorder struct {
	mu    sync.Mutex
	plans []*models.TacticalPlan
	full  bool
}

func (m *mockRecorder) Record(plan *models.TacticalPlan) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return false
	}
	m.plans = append(m.plans, plan)
	return true
}

type mockScorer struct {
	signal *models.MLSignal
	err    error
}

func (m mockScorer) Name() string    { return "mock_scorer" }
func (m mockScorer) Version() string { return "test" }

func (m mockScorer) Predict(context.Context, []models.MatchRecord) (*models.MLSignal, error) {
	return m.signal, m.err
}
