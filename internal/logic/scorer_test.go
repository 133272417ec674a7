package logic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmohaa/tactical-api/internal/models"
)

func loadTestScorer(t *testing.T) *MLAssistedScorer {
	t.Helper()
	s, err := LoadMLScorer("testdata/model.yaml", DefaultTuning())
	require.NoError(t, err)
	return s
}

func window(n int, result string, num map[models.FieldPath]float64) []models.MatchRecord {
	out := make([]models.MatchRecord, n)
	for i := range out {
		out[i] = record(string(rune('a'+i)), num, nil)
		out[i].Result = result
	}
	return out
}

func TestRuleOnlyScorer(t *testing.T) {
	var s Scorer = RuleOnlyScorer{}
	sig, err := s.Predict(context.Background(), window(5, models.ResultWin, nil))
	assert.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, ScorerRuleOnly, s.Name())
	assert.Empty(t, s.Version())
}

func TestMLScorerLoad(t *testing.T) {
	s := loadTestScorer(t)
	assert.Equal(t, ScorerMLAssisted, s.Name())
	assert.Equal(t, "2024.08-lr", s.Version())

	_, err := LoadMLScorer("testdata/missing.yaml", DefaultTuning())
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestMLScorerShortWindow(t *testing.T) {
	sig, err := loadTestScorer(t).Predict(context.Background(), window(2, models.ResultWin, nil))
	assert.NoError(t, err)
	assert.Nil(t, sig)
}

func TestMLScorerAtMean(t *testing.T) {
	// Every feature missing sits at the training mean, so only intercepts count.
	sig, err := loadTestScorer(t).Predict(context.Background(), window(3, "", nil))
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.InDelta(t, 1.0, sig.PWin+sig.PDraw+sig.PLoss, 1e-9)
	assert.Equal(t, models.ResultLoss, sig.ResultTendency)
	assert.InDelta(t, 1.35, sig.ExpectedGoalsFor, 1e-9)
	assert.InDelta(t, 1.35, sig.ExpectedGoalsAgainst, 1e-9)
	assert.Equal(t, models.RiskMedium, sig.RiskLevel)
	assert.Equal(t, 3, sig.WindowSize)
	assert.Equal(t, "2024.08-lr", sig.ModelVersion)
}

func TestMLScorerRiskBands(t *testing.T) {
	s := loadTestScorer(t)

	strong := map[models.FieldPath]float64{
		models.PossessionPercent: 62,
		models.PassAccuracy:      88,
		models.TotalShots:        18,
		models.XG:                2.2,
		models.Goals:             3,
		models.GoalsConceded:     0,
		models.PPDA:              8,
	}
	weak := map[models.FieldPath]float64{
		models.PossessionPercent: 38,
		models.PassAccuracy:      72,
		models.TotalShots:        7,
		models.XG:                0.6,
		models.Goals:             0,
		models.GoalsConceded:     3,
		models.PPDA:              16,
	}

	high, err := s.Predict(context.Background(), window(5, models.ResultWin, strong))
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, high.RiskLevel)
	assert.Equal(t, models.ResultWin, high.ResultTendency)
	assert.Greater(t, high.PWin, 0.9)

	low, err := s.Predict(context.Background(), window(5, models.ResultLoss, weak))
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, low.RiskLevel)
	assert.Equal(t, models.ResultLoss, low.ResultTendency)
	assert.GreaterOrEqual(t, low.ExpectedGoalsFor, 0.0)
}

func TestMLScorerUsesMostRecentWindow(t *testing.T) {
	s := loadTestScorer(t)
	recent := window(5, models.ResultWin, map[models.FieldPath]float64{models.XG: 2})
	older := window(5, models.ResultLoss, map[models.FieldPath]float64{models.XG: 0.4})

	withHistory, err := s.Predict(context.Background(), append(recent, older...))
	require.NoError(t, err)
	only, err := s.Predict(context.Background(), recent)
	require.NoError(t, err)

	assert.Equal(t, only, withHistory)
}

func TestMLScorerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loadTestScorer(t).Predict(ctx, window(5, models.ResultWin, nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMLModelValidate(t *testing.T) {
	m := &MLModel{
		Features:     []string{"possession_control.possession_percent"},
		Means:        []float64{50},
		Scales:       []float64{8},
		Classes:      []string{"W", "D", "L"},
		Intercepts:   []float64{0, 0, 0},
		Coefficients: [][]float64{{1}, {0}, {-1}},
		GoalsFor:     LinearHead{Coefficients: []float64{0.1}},
		GoalsAgainst: LinearHead{Coefficients: []float64{0.1}},
	}
	require.NoError(t, m.Validate())

	m.Features = []string{"possession_control.unknown"}
	assert.Error(t, m.Validate())

	m.Features = []string{FeatureFormWinRate}
	m.Coefficients = [][]float64{{1, 2}, {0}, {-1}}
	assert.Error(t, m.Validate())
}
