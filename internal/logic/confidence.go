package logic

import (
	"fmt"
	"math"

	"github.com/openmohaa/tactical-api/internal/models"
)

// ScoreConfidence rates how far the blended profile can be trusted.
//
//	base     = ceiling * min(matches, saturation)/saturation - estimatedPenalty * estimatedRatio
//	boost    = min(boostCap, Σ perObservation * completeness_i)
//	penalty  = min(penaltyCap, scale * mean_f |blended_f - hist_f| / max(|hist_f|, floor))
//	adjusted = clamp(base + boost - penalty, 0, 100)
//
// The divergence mean runs over numeric fields present historically that at
// least one observation also supplied. A profile with no populated field is
// always LOW.
func ScoreConfidence(f models.TacticalFoundation, observations []models.Observation, b models.BlendedProfile, t Tuning) models.ConfidenceAssessment {
	obs := FilterObservations(observations)

	matches := math.Min(float64(f.MatchesAnalyzed), float64(t.SaturationMatches))
	base := t.ConfidenceCeiling*matches/float64(t.SaturationMatches) - t.EstimatedPenalty*f.EstimatedRatio()
	base = clamp(base, 0, 100)

	var boost float64
	for _, o := range obs {
		boost += t.ObservationBoostPerObservation * o.Completeness()
	}
	boost = math.Min(boost, t.ObservationBoostCap)

	penalty := math.Min(t.DivergencePenaltyScale*divergence(f.Profile, b, t.DivergenceFloor), t.DivergencePenaltyCap)

	adjusted := clamp(base+boost-penalty, 0, 100)

	c := models.ConfidenceAssessment{
		BaseConfidence:     round1(base),
		AdjustedConfidence: round1(adjusted),
		ObservationBoost:   round1(boost),
		DivergencePenalty:  round1(penalty),
		DataQuality:        dataQuality(f, len(obs)),
	}
	c.OverallConfidence = int(math.Round(adjusted))
	c.RecommendationReliability = reliability(adjusted, t)
	if b.Profile.Empty() {
		c.RecommendationReliability = models.ReliabilityLow
	}
	return c
}

// divergence is the mean relative drift between blended and historical values.
func divergence(hist models.Profile, b models.BlendedProfile, floor float64) float64 {
	var (
		total  float64
		fields int
	)
	for _, path := range models.FieldsOfKind(models.KindNumeric) {
		h, ok := hist.Num(path)
		if !ok {
			continue
		}
		if _, observed := b.Observed.Num(path); !observed {
			continue
		}
		v, ok := b.Profile.Num(path)
		if !ok {
			continue
		}
		total += math.Abs(v-h) / math.Max(math.Abs(h), floor)
		fields++
	}
	if fields == 0 {
		return 0
	}
	return total / float64(fields)
}

func reliability(adjusted float64, t Tuning) models.Reliability {
	switch {
	case adjusted >= t.ReliabilityHigh:
		return models.ReliabilityHigh
	case adjusted >= t.ReliabilityMedium:
		return models.ReliabilityMedium
	default:
		return models.ReliabilityLow
	}
}

func dataQuality(f models.TacticalFoundation, observations int) string {
	if f.MatchesAnalyzed == 0 && observations == 0 {
		return "No data - no usable matches or observations"
	}
	label := "Observed"
	if f.Estimated {
		label = "Estimated"
	}
	s := fmt.Sprintf("%s - based on %d match(es)", label, f.MatchesAnalyzed)
	if observations > 0 {
		s += fmt.Sprintf(" and %d observation(s)", observations)
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
