package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AggregateSuffix is appended to numeric keys when a profile is serialized.
const AggregateSuffix = "_avg"

// Profile holds aggregated values keyed by FieldPath. A path missing from
// both maps is null.
type Profile struct {
	Numeric     map[FieldPath]float64
	Categorical map[FieldPath]string
}

// NewProfile returns an empty profile.
func NewProfile() Profile {
	return Profile{
		Numeric:     make(map[FieldPath]float64),
		Categorical: make(map[FieldPath]string),
	}
}

func (p Profile) Num(path FieldPath) (float64, bool) {
	v, ok := p.Numeric[path]
	return v, ok
}

func (p Profile) Cat(path FieldPath) (string, bool) {
	v, ok := p.Categorical[path]
	return v, ok
}

// Empty reports whether no field is populated.
func (p Profile) Empty() bool {
	return len(p.Numeric) == 0 && len(p.Categorical) == 0
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	out := NewProfile()
	for k, v := range p.Numeric {
		out.Numeric[k] = v
	}
	for k, v := range p.Categorical {
		out.Categorical[k] = v
	}
	return out
}

// MarshalJSON writes every registered field nested by section, numeric keys
// suffixed with _avg, absent fields as explicit nulls. Order follows the
// registry so output is byte-stable.
func (p Profile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for si, section := range Sections() {
		if si > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:{", section.Name)
		for fi, f := range section.Fields {
			if fi > 0 {
				buf.WriteByte(',')
			}
			var (
				key   = f.Name
				value any
			)
			if f.Kind == KindNumeric {
				key += AggregateSuffix
				if v, ok := p.Numeric[f.Path]; ok {
					value = v
				}
			} else if v, ok := p.Categorical[f.Path]; ok {
				value = v
			}
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("profile field %s: %w", f.Path, err)
			}
			fmt.Fprintf(&buf, "%q:%s", key, encoded)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the nested form written by MarshalJSON. Unknown keys are ignored.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var sections map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	*p = NewProfile()
	for section, fields := range sections {
		for key, raw := range fields {
			if string(raw) == "null" {
				continue
			}
			path := FieldPath(section + "." + strings.TrimSuffix(key, AggregateSuffix))
			spec, ok := LookupField(path)
			if !ok {
				continue
			}
			switch spec.Kind {
			case KindNumeric:
				var v float64
				if err := json.Unmarshal(raw, &v); err != nil {
					return fmt.Errorf("profile field %s: %w", path, err)
				}
				p.Numeric[path] = v
			case KindCategorical:
				var v string
				if err := json.Unmarshal(raw, &v); err != nil {
					return fmt.Errorf("profile field %s: %w", path, err)
				}
				p.Categorical[path] = v
			}
		}
	}
	return nil
}

// FormSummary describes recent results for the analysed team.
type FormSummary struct {
	Wins                int     `json:"wins"`
	Draws               int     `json:"draws"`
	Losses              int     `json:"losses"`
	FormString          string  `json:"form_string"`
	GoalsFor            float64 `json:"goals_for"`
	GoalsAgainst        float64 `json:"goals_against"`
	GoalsForPerGame     float64 `json:"goals_for_per_game"`
	GoalsAgainstPerGame float64 `json:"goals_against_per_game"`
	PointsPerGame       float64 `json:"points_per_game"`
}

// TacticalFoundation is the aggregate of one evaluation window of matches.
type TacticalFoundation struct {
	MatchesAnalyzed  int                          `json:"matches_analyzed"`
	EstimatedMatches int                          `json:"estimated_matches"`
	Estimated        bool                         `json:"estimated"`
	Profile          Profile                      `json:"profile"`
	Distributions    map[FieldPath]map[string]int `json:"distributions"`
	Form             FormSummary                  `json:"form"`
}

// EstimatedRatio is the share of contributing matches that carried derived fields.
func (f TacticalFoundation) EstimatedRatio() float64 {
	if f.MatchesAnalyzed == 0 {
		if f.Estimated {
			return 1
		}
		return 0
	}
	if f.EstimatedMatches == 0 && f.Estimated {
		return 1
	}
	return float64(f.EstimatedMatches) / float64(f.MatchesAnalyzed)
}

// BlendedProfile merges a foundation with manual observations.
type BlendedProfile struct {
	Profile           Profile  `json:"profile"`
	Historical        Profile  `json:"historical"`
	Observed          Profile  `json:"observed"`
	HistoricalWeight  float64  `json:"historical_weight"`
	ObservationWeight float64  `json:"observation_weight"`
	ObservationCount  int      `json:"observation_count"`
	MatchesAnalyzed   int      `json:"matches_analyzed"`
	Estimated         bool     `json:"estimated"`
	KeyPlayers        []string `json:"key_players"`
	Notes             []string `json:"notes"`
}
