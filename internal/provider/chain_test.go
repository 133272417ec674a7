package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmohaa/tactical-api/internal/models"
)

type stubSource struct {
	name    string
	matches []models.RawMatch
	err     error
	calls   int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) RecentMatches(context.Context, models.TeamIdentity, int) ([]models.RawMatch, error) {
	s.calls++
	return s.matches, s.err
}

func TestChainFirstNonEmptyWins(t *testing.T) {
	empty := &stubSource{name: "sofascore", matches: []models.RawMatch{}}
	export := &stubSource{name: "export", matches: []models.RawMatch{{MatchID: "e1"}}}
	never := &stubSource{name: "never", matches: []models.RawMatch{{MatchID: "n1"}}}

	chain := NewChain(nil, empty, export, never)
	matches, err := chain.RecentMatches(context.Background(), realMadrid, 10)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "e1", matches[0].MatchID)
	assert.Equal(t, 0, never.calls)
	assert.Equal(t, "sofascore+export+never", chain.Name())
}

func TestChainFallsBackOnError(t *testing.T) {
	failing := &stubSource{name: "sofascore", err: ErrBlocked}
	export := &stubSource{name: "export", matches: []models.RawMatch{{MatchID: "e1"}}}

	matches, err := NewChain(nil, failing, export).RecentMatches(context.Background(), realMadrid, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestChainAllFail(t *testing.T) {
	a := &stubSource{name: "sofascore", err: ErrRateLimited}
	b := &stubSource{name: "export", err: ErrNotFound}

	_, err := NewChain(nil, a, b).RecentMatches(context.Background(), realMadrid, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "sofascore:")
}

func TestChainSomeFailRestEmpty(t *testing.T) {
	a := &stubSource{name: "sofascore", err: ErrBlocked}
	b := &stubSource{name: "export", matches: nil}

	matches, err := NewChain(nil, a, b).RecentMatches(context.Background(), realMadrid, 10)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestChainStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &stubSource{name: "sofascore", err: context.Canceled}
	b := &stubSource{name: "export", matches: []models.RawMatch{{MatchID: "e1"}}}

	_, err := NewChain(nil, a, b).RecentMatches(ctx, realMadrid, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, b.calls)
}
