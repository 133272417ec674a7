package models

import "strings"

// Observation is a manually entered, partial read of the opponent this season.
// Every field is optional.
type Observation struct {
	PossessionPercent          *float64 `json:"possession_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	ShotsFor                   *float64 `json:"shots_for,omitempty" validate:"omitempty,gte=0,lte=60"`
	GoalsScored                *float64 `json:"goals_scored,omitempty" validate:"omitempty,gte=0,lte=20"`
	GoalsConceded              *float64 `json:"goals_conceded,omitempty" validate:"omitempty,gte=0,lte=20"`
	PressingLevel              *string  `json:"pressing_level,omitempty" validate:"omitempty,oneof=high medium low"`
	OffensiveTransitionsRating *float64 `json:"offensive_transitions_rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	BuildUpPattern             *string  `json:"build_up_pattern,omitempty" validate:"omitempty,max=200"`
	DefensiveLineHeight        *float64 `json:"defensive_line_height,omitempty" validate:"omitempty,gte=0,lte=105"`
	SetPieceVulnerability      *string  `json:"set_piece_vulnerability,omitempty" validate:"omitempty,oneof=high medium low"`
	KeyPlayers                 []string `json:"key_players,omitempty" validate:"omitempty,max=11,dive,max=80"`
	Notes                      *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ObservationFieldCount is the number of optional fields an Observation carries.
const ObservationFieldCount = 11

// Populated counts the fields carrying a value.
func (o Observation) Populated() int {
	n := 0
	for _, v := range []*float64{o.PossessionPercent, o.ShotsFor, o.GoalsScored, o.GoalsConceded, o.OffensiveTransitionsRating, o.DefensiveLineHeight} {
		if v != nil {
			n++
		}
	}
	for _, v := range []*string{o.PressingLevel, o.BuildUpPattern, o.SetPieceVulnerability, o.Notes} {
		if v != nil && strings.TrimSpace(*v) != "" {
			n++
		}
	}
	if len(o.KeyPlayers) > 0 {
		n++
	}
	return n
}

// Completeness is the populated share of fields, in [0,1].
func (o Observation) Completeness() float64 {
	return float64(o.Populated()) / ObservationFieldCount
}

// Empty reports whether nothing was filled in.
func (o Observation) Empty() bool {
	return o.Populated() == 0
}

// NumericValues maps the observation onto canonical numeric paths.
func (o Observation) NumericValues() map[FieldPath]float64 {
	out := make(map[FieldPath]float64)
	set := func(p FieldPath, v *float64) {
		if v != nil {
			out[p] = *v
		}
	}
	set(PossessionPercent, o.PossessionPercent)
	set(TotalShots, o.ShotsFor)
	set(Goals, o.GoalsScored)
	set(GoalsConceded, o.GoalsConceded)
	set(OffensiveTransitions, o.OffensiveTransitionsRating)
	set(DefensiveLineHeight, o.DefensiveLineHeight)
	return out
}

// CategoricalValues maps the observation onto canonical categorical paths.
// Enum levels are title-cased to match provider-derived categories.
func (o Observation) CategoricalValues() map[FieldPath]string {
	out := make(map[FieldPath]string)
	set := func(p FieldPath, v *string, title bool) {
		if v == nil {
			return
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return
		}
		if title {
			s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
		}
		out[p] = s
	}
	set(PressingIntensity, o.PressingLevel, true)
	set(SetPieceWeakness, o.SetPieceVulnerability, true)
	set(BuildUpPattern, o.BuildUpPattern, false)
	return out
}
