package logic

import (
	"strings"

	"github.com/openmohaa/tactical-api/internal/models"
)

// FilterObservations drops observations with no populated field.
func FilterObservations(obs []models.Observation) []models.Observation {
	out := make([]models.Observation, 0, len(obs))
	for _, o := range obs {
		if !o.Empty() {
			out = append(out, o)
		}
	}
	return out
}

// Blend merges the historical foundation with current observations.
//
// For a numeric field supplied by both sources:
//
//	blended = (hist*W_hist + Σ obs_i*w_i) / (W_hist + Σ w_i),  w_i = W_obs * completeness_i
//
// A field supplied only by observations takes their weighted average; a field
// supplied only historically is kept. Categorical fields take the observation
// mode when any observation supplies them. Blend is a pure function.
func Blend(f models.TacticalFoundation, observations []models.Observation, t Tuning) models.BlendedProfile {
	obs := FilterObservations(observations)

	b := models.BlendedProfile{
		Profile:          models.NewProfile(),
		Historical:       f.Profile.Clone(),
		Observed:         models.NewProfile(),
		HistoricalWeight: t.HistoricalWeight,
		ObservationCount: len(obs),
		MatchesAnalyzed:  f.MatchesAnalyzed,
		Estimated:        f.Estimated,
		KeyPlayers:       []string{},
		Notes:            []string{},
	}

	weights := make([]float64, len(obs))
	numeric := make([]map[models.FieldPath]float64, len(obs))
	categorical := make([]map[models.FieldPath]string, len(obs))
	for i, o := range obs {
		weights[i] = t.ObservationWeight * o.Completeness()
		b.ObservationWeight += weights[i]
		numeric[i] = o.NumericValues()
		categorical[i] = o.CategoricalValues()
	}

	for _, path := range models.FieldsOfKind(models.KindNumeric) {
		var sum, weight float64
		for i := range obs {
			if v, ok := numeric[i][path]; ok {
				sum += v * weights[i]
				weight += weights[i]
			}
		}
		hist, hasHist := f.Profile.Num(path)
		switch {
		case weight > 0 && hasHist:
			b.Observed.Numeric[path] = sum / weight
			b.Profile.Numeric[path] = (hist*t.HistoricalWeight + sum) / (t.HistoricalWeight + weight)
		case weight > 0:
			b.Observed.Numeric[path] = sum / weight
			b.Profile.Numeric[path] = sum / weight
		case hasHist:
			b.Profile.Numeric[path] = hist
		}
	}

	for _, path := range models.FieldsOfKind(models.KindCategorical) {
		var seen []string
		counts := make(map[string]int)
		for i := range obs {
			v, ok := categorical[i][path]
			if !ok {
				continue
			}
			if counts[v] == 0 {
				seen = append(seen, v)
			}
			counts[v]++
		}
		if len(seen) > 0 {
			m := mode(seen, counts)
			b.Observed.Categorical[path] = m
			b.Profile.Categorical[path] = m
		} else if hist, ok := f.Profile.Cat(path); ok {
			b.Profile.Categorical[path] = hist
		}
	}

	seenPlayers := make(map[string]bool)
	for _, o := range obs {
		for _, p := range o.KeyPlayers {
			name := strings.TrimSpace(p)
			key := strings.ToLower(name)
			if name == "" || seenPlayers[key] {
				continue
			}
			seenPlayers[key] = true
			b.KeyPlayers = append(b.KeyPlayers, name)
		}
		if o.Notes != nil {
			if note := strings.TrimSpace(*o.Notes); note != "" {
				b.Notes = append(b.Notes, note)
			}
		}
	}

	return b
}
