package logic

import (
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/openmohaa/tactical-api/internal/models"
)

// Aggregate reduces a window of match records to a TacticalFoundation.
// Numeric fields are averaged over the matches that supplied them, categorical
// fields take the mode (ties go to the value seen first). An empty window
// yields an all-null foundation.
func Aggregate(records []models.MatchRecord) models.TacticalFoundation {
	f := models.TacticalFoundation{
		MatchesAnalyzed: len(records),
		Profile:         models.NewProfile(),
		Distributions:   make(map[models.FieldPath]map[string]int),
	}

	for _, r := range records {
		if r.Estimated {
			f.EstimatedMatches++
		}
	}
	f.Estimated = f.EstimatedMatches > 0

	values := make([]float64, 0, len(records))
	for _, path := range models.FieldsOfKind(models.KindNumeric) {
		values = values[:0]
		for i := range records {
			if v, ok := records[i].Num(path); ok {
				values = append(values, v)
			}
		}
		if len(values) > 0 {
			f.Profile.Numeric[path] = stat.Mean(values, nil)
		}
	}

	for _, path := range models.FieldsOfKind(models.KindCategorical) {
		var seen []string
		counts := make(map[string]int)
		for i := range records {
			v, ok := records[i].Cat(path)
			if !ok {
				continue
			}
			if counts[v] == 0 {
				seen = append(seen, v)
			}
			counts[v]++
		}
		if len(seen) == 0 {
			continue
		}
		f.Profile.Categorical[path] = mode(seen, counts)
		f.Distributions[path] = counts
	}

	f.Form = summarizeForm(records)
	return f
}

// mode picks the most frequent value; seen is in first-encounter order.
func mode(seen []string, counts map[string]int) string {
	best := seen[0]
	for _, v := range seen[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}

func summarizeForm(records []models.MatchRecord) models.FormSummary {
	var (
		form   models.FormSummary
		result strings.Builder
	)
	for i := range records {
		r := &records[i]
		switch r.Result {
		case models.ResultWin:
			form.Wins++
		case models.ResultDraw:
			form.Draws++
		case models.ResultLoss:
			form.Losses++
		default:
			continue
		}
		result.WriteString(r.Result)
		if v, ok := r.Num(models.Goals); ok {
			form.GoalsFor += v
		}
		if v, ok := r.Num(models.GoalsConceded); ok {
			form.GoalsAgainst += v
		}
	}
	form.FormString = result.String()
	if played := form.Wins + form.Draws + form.Losses; played > 0 {
		form.GoalsForPerGame = form.GoalsFor / float64(played)
		form.GoalsAgainstPerGame = form.GoalsAgainst / float64(played)
		form.PointsPerGame = float64(form.Wins*3+form.Draws) / float64(played)
	}
	return form
}
