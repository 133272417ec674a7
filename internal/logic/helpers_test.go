package logic

import (
	"time"

	"github.com/openmohaa/tactical-api/internal/models"
)

func ptr[T any](v T) *T { return &v }

func intPtr(v int) *int { return &v }

// record builds a match record from numeric and categorical values.
func record(id string, num map[models.FieldPath]float64, cat map[models.FieldPath]string) models.MatchRecord {
	r := models.MatchRecord{MatchID: id, Result: models.ResultDraw}
	for p, v := range num {
		r.SetNum(p, v)
	}
	for p, v := range cat {
		r.SetCat(p, v)
	}
	return r
}

func foundation(matches int, estimated bool, num map[models.FieldPath]float64) models.TacticalFoundation {
	f := models.TacticalFoundation{
		MatchesAnalyzed: matches,
		Estimated:       estimated,
		Profile:         models.NewProfile(),
	}
	if estimated {
		f.EstimatedMatches = matches
	}
	for p, v := range num {
		f.Profile.Numeric[p] = v
	}
	return f
}

func sofaMatch(id string, homeScore, awayScore int, stats ...models.RawStat) models.RawMatch {
	return models.RawMatch{
		Provider:  models.ProviderSofaScore,
		MatchID:   id,
		Date:      time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC),
		HomeTeam:  models.TeamRef{ID: "2817", Name: "Barcelona"},
		AwayTeam:  models.TeamRef{ID: "2829", Name: "Real Madrid"},
		HomeScore: intPtr(homeScore),
		AwayScore: intPtr(awayScore),
		Stats:     stats,
	}
}

func rawStat(name, home, away string) models.RawStat {
	return models.RawStat{Name: name, Home: models.NewStatValue(home), Away: models.NewStatValue(away)}
}
