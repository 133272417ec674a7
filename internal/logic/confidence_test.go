package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openmohaa/tactical-api/internal/models"
)

func score(f models.TacticalFoundation, obs []models.Observation) models.ConfidenceAssessment {
	t := DefaultTuning()
	return ScoreConfidence(f, obs, Blend(f, obs, t), t)
}

func TestConfidenceMoreMatchesBeatsFewerEstimated(t *testing.T) {
	profile := map[models.FieldPath]float64{models.PPDA: 9}

	strong := score(foundation(10, false, profile), nil)
	weak := score(foundation(2, true, profile), nil)

	assert.Greater(t, strong.AdjustedConfidence, weak.AdjustedConfidence)
	assert.Equal(t, 90.0, strong.BaseConfidence)
	assert.Equal(t, 3.0, weak.BaseConfidence)
	assert.Equal(t, models.ReliabilityHigh, strong.RecommendationReliability)
	assert.Equal(t, models.ReliabilityLow, weak.RecommendationReliability)
}

func TestConfidenceSaturates(t *testing.T) {
	profile := map[models.FieldPath]float64{models.PPDA: 9}
	assert.Equal(t, score(foundation(10, false, profile), nil).BaseConfidence,
		score(foundation(25, false, profile), nil).BaseConfidence)
}

func TestConfidenceObservationBoostCapped(t *testing.T) {
	f := foundation(5, false, map[models.FieldPath]float64{models.PPDA: 9})

	one := score(f, []models.Observation{fullObservation(50)})
	many := score(f, []models.Observation{fullObservation(50), fullObservation(50), fullObservation(50), fullObservation(50)})

	assert.Equal(t, 4.0, one.ObservationBoost)
	assert.Equal(t, 10.0, many.ObservationBoost)
}

func TestConfidenceDivergencePenalty(t *testing.T) {
	f := foundation(10, false, map[models.FieldPath]float64{models.PossessionPercent: 40})

	agree := score(f, []models.Observation{{PossessionPercent: ptr(40.0)}})
	drift := score(f, []models.Observation{{PossessionPercent: ptr(80.0)}})

	assert.Equal(t, 0.0, agree.DivergencePenalty)
	assert.Greater(t, drift.DivergencePenalty, 0.0)
	assert.Less(t, drift.AdjustedConfidence, agree.AdjustedConfidence)
	assert.LessOrEqual(t, drift.DivergencePenalty, DefaultTuning().DivergencePenaltyCap)
}

func TestConfidenceReliabilityThresholds(t *testing.T) {
	tuning := DefaultTuning()
	tests := []struct {
		adjusted float64
		want     models.Reliability
	}{
		{100, models.ReliabilityHigh},
		{80, models.ReliabilityHigh},
		{79.9, models.ReliabilityMedium},
		{60, models.ReliabilityMedium},
		{59.9, models.ReliabilityLow},
		{0, models.ReliabilityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, reliability(tt.adjusted, tuning), "adjusted %v", tt.adjusted)
	}
}

func TestConfidenceEmptyIsLow(t *testing.T) {
	c := score(Aggregate(nil), nil)

	assert.Equal(t, 0, c.OverallConfidence)
	assert.Equal(t, models.ReliabilityLow, c.RecommendationReliability)
	assert.Contains(t, c.DataQuality, "No data")
}

func TestConfidenceBounds(t *testing.T) {
	f := foundation(10, false, map[models.FieldPath]float64{models.PossessionPercent: 1})
	obs := []models.Observation{fullObservation(100), fullObservation(100), fullObservation(100)}

	c := score(f, obs)
	assert.GreaterOrEqual(t, c.AdjustedConfidence, 0.0)
	assert.LessOrEqual(t, c.AdjustedConfidence, 100.0)
}
