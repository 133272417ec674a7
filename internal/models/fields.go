package models

import (
	"math"
	"reflect"
	"strings"
	"sync"
)

// FieldPath addresses one leaf of the canonical record as "section.field".
type FieldPath string

// Section returns the section part of the path.
func (p FieldPath) Section() string {
	s, _, _ := strings.Cut(string(p), ".")
	return s
}

// Name returns the leaf part of the path.
func (p FieldPath) Name() string {
	_, n, _ := strings.Cut(string(p), ".")
	return n
}

// Frequently referenced paths
const (
	PossessionPercent       FieldPath = "possession_control.possession_percent"
	PassAccuracy            FieldPath = "possession_control.pass_accuracy"
	TotalPasses             FieldPath = "possession_control.total_passes"
	AccuratePasses          FieldPath = "possession_control.accurate_passes"
	PassesPerMinute         FieldPath = "possession_control.passes_per_minute"
	TempoRating             FieldPath = "possession_control.tempo_rating"
	Goals                   FieldPath = "shooting_finishing.goals"
	TotalShots              FieldPath = "shooting_finishing.total_shots"
	ShotConversionRate      FieldPath = "shooting_finishing.shot_conversion_rate"
	XG                      FieldPath = "expected_metrics.xG"
	XGPerShot               FieldPath = "expected_metrics.xG_per_shot"
	XGAgainst               FieldPath = "expected_metrics.xG_against"
	GoalsConceded           FieldPath = "defensive_actions.goals_conceded"
	ShotsConceded           FieldPath = "defensive_actions.shots_conceded"
	TacklesAttempted        FieldPath = "defensive_actions.tackles_attempted"
	TacklesWon              FieldPath = "defensive_actions.tackles_won"
	TackleSuccessRate       FieldPath = "defensive_actions.tackle_success_rate"
	Interceptions           FieldPath = "defensive_actions.interceptions"
	FoulsCommitted          FieldPath = "defensive_actions.fouls_committed"
	DefensiveRating         FieldPath = "defensive_actions.defensive_rating"
	PPDA                    FieldPath = "pressing_structure.PPDA"
	PressingIntensity       FieldPath = "pressing_structure.pressing_intensity"
	DefensiveLineHeight     FieldPath = "team_shape.defensive_line_height"
	TeamCompactness         FieldPath = "team_shape.team_compactness"
	WidthUsage              FieldPath = "team_shape.width_usage"
	BuildUpPattern          FieldPath = "team_shape.build_up_pattern"
	OffensiveTransitions    FieldPath = "transitions.offensive_transitions_rating"
	XGConcededFromSetPieces FieldPath = "set_piece_analytics.xG_conceded_from_set_pieces"
	SetPieceWeakness        FieldPath = "set_piece_analytics.set_piece_weakness"
	LateGoalsScored         FieldPath = "contextual_psychological.late_goals_scored"
	LateGoalsConceded       FieldPath = "contextual_psychological.late_goals_conceded"
	ScorelineState          FieldPath = "contextual_psychological.scoreline_state"
	GameMomentum            FieldPath = "contextual_psychological.game_momentum"
	FatigueIndicators       FieldPath = "contextual_psychological.fatigue_indicators"
)

// FieldKind distinguishes numeric leaves from categorical ones.
type FieldKind int

const (
	KindNumeric FieldKind = iota
	KindCategorical
)

// FieldSpec describes one registered leaf.
type FieldSpec struct {
	Path    FieldPath
	Section string
	Name    string
	Kind    FieldKind
	index   []int
}

// SectionSpec lists a section's leaves in declaration order.
type SectionSpec struct {
	Name   string
	Fields []FieldSpec
}

var (
	fieldRegistry     []SectionSpec
	fieldRegistryByID map[FieldPath]FieldSpec
	fieldRegistryOnce sync.Once

	floatPtrType  = reflect.TypeOf((*float64)(nil))
	stringPtrType = reflect.TypeOf((*string)(nil))
)

func loadFieldRegistry() {
	fieldRegistryOnce.Do(func() {
		t := reflect.TypeOf(Tactical{})
		fieldRegistryByID = make(map[FieldPath]FieldSpec)
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			section := SectionSpec{Name: jsonName(sf)}
			for j := 0; j < sf.Type.NumField(); j++ {
				lf := sf.Type.Field(j)
				var kind FieldKind
				switch lf.Type {
				case floatPtrType:
					kind = KindNumeric
				case stringPtrType:
					kind = KindCategorical
				default:
					continue
				}
				name := jsonName(lf)
				spec := FieldSpec{
					Path:    FieldPath(section.Name + "." + name),
					Section: section.Name,
					Name:    name,
					Kind:    kind,
					index:   []int{i, j},
				}
				section.Fields = append(section.Fields, spec)
				fieldRegistryByID[spec.Path] = spec
			}
			fieldRegistry = append(fieldRegistry, section)
		}
	})
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	return strings.Split(tag, ",")[0]
}

// Sections returns every section with its leaves, in declaration order.
func Sections() []SectionSpec {
	loadFieldRegistry()
	return fieldRegistry
}

// LookupField returns the registered spec for a path.
func LookupField(p FieldPath) (FieldSpec, bool) {
	loadFieldRegistry()
	spec, ok := fieldRegistryByID[p]
	return spec, ok
}

// FieldsOfKind returns all paths of one kind in declaration order.
func FieldsOfKind(kind FieldKind) []FieldPath {
	var out []FieldPath
	for _, s := range Sections() {
		for _, f := range s.Fields {
			if f.Kind == kind {
				out = append(out, f.Path)
			}
		}
	}
	return out
}

func (t *Tactical) leaf(p FieldPath, kind FieldKind) (reflect.Value, bool) {
	spec, ok := LookupField(p)
	if !ok || spec.Kind != kind {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(t).Elem().FieldByIndex(spec.index), true
}

// Num returns the numeric value at p, if present.
func (t *Tactical) Num(p FieldPath) (float64, bool) {
	v, ok := t.leaf(p, KindNumeric)
	if !ok || v.IsNil() {
		return 0, false
	}
	return v.Elem().Float(), true
}

// Cat returns the categorical value at p, if present.
func (t *Tactical) Cat(p FieldPath) (string, bool) {
	v, ok := t.leaf(p, KindCategorical)
	if !ok || v.IsNil() {
		return "", false
	}
	return v.Elem().String(), true
}

// SetNum stores a finite value at p. NaN and infinities leave the field nil.
func (t *Tactical) SetNum(p FieldPath, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	v, ok := t.leaf(p, KindNumeric)
	if !ok {
		return false
	}
	v.Set(reflect.ValueOf(&value))
	return true
}

// SetCat stores a non-empty categorical value at p.
func (t *Tactical) SetCat(p FieldPath, value string) bool {
	if value == "" {
		return false
	}
	v, ok := t.leaf(p, KindCategorical)
	if !ok {
		return false
	}
	v.Set(reflect.ValueOf(&value))
	return true
}
