package models

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Providers with a normalization table
const (
	ProviderSofaScore = "sofascore"
	ProviderWhoScored = "whoscored"
)

// TeamRef is a side of a fixture as reported by a provider.
type TeamRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
}

// RawStat is one provider statistic with both sides' values.
type RawStat struct {
	Name string    `json:"name"`
	Home StatValue `json:"home"`
	Away StatValue `json:"away"`
}

// RawIncident is a timed match event. Only goals are consumed.
type RawIncident struct {
	Type   string `json:"type"`
	Minute int    `json:"minute"`
	IsHome bool   `json:"is_home"`
}

// RawMatch is one finished match as fetched from a provider, before normalization.
// Incidents is nil when the provider did not report them.
type RawMatch struct {
	Provider    string        `json:"provider"`
	MatchID     string        `json:"match_id"`
	Date        time.Time     `json:"date"`
	Competition string        `json:"competition,omitempty"`
	HomeTeam    TeamRef       `json:"home_team"`
	AwayTeam    TeamRef       `json:"away_team"`
	HomeScore   *int          `json:"home_score"`
	AwayScore   *int          `json:"away_score"`
	Stats       []RawStat     `json:"stats"`
	Incidents   []RawIncident `json:"incidents"`
}

// Matches reports whether ref is the team, by id or case-insensitive name.
func (t TeamIdentity) Matches(ref TeamRef) bool {
	if t.ID != "" && ref.ID != "" && t.ID == ref.ID {
		return true
	}
	name := strings.TrimSpace(strings.ToLower(t.Name))
	if name == "" {
		return false
	}
	return name == strings.ToLower(strings.TrimSpace(ref.Name)) ||
		(ref.ShortName != "" && name == strings.ToLower(strings.TrimSpace(ref.ShortName)))
}

var (
	firstNumberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	percentRe     = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*%`)
	ratioRe       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)`)
)

// StatValue is a provider value that may arrive as a JSON number or as
// display text such as "55%", "345 (82%)" or "12/20 (60%)".
type StatValue struct {
	Raw string
}

// NewStatValue builds a StatValue from display text.
func NewStatValue(raw string) StatValue {
	return StatValue{Raw: strings.TrimSpace(raw)}
}

// NumberValue builds a StatValue from a number.
func NumberValue(v float64) StatValue {
	return StatValue{Raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

func (s *StatValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		s.Raw = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		s.Raw = strings.TrimSpace(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	s.Raw = n.String()
	return nil
}

func (s StatValue) MarshalJSON() ([]byte, error) {
	if s.Raw == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(s.Raw, 64); err == nil {
		return []byte(s.Raw), nil
	}
	return json.Marshal(s.Raw)
}

// Present reports whether the provider supplied anything.
func (s StatValue) Present() bool {
	return s.Raw != ""
}

// Number returns the leading number: 345 for "345 (82%)", 55 for "55%".
func (s StatValue) Number() (float64, bool) {
	m := firstNumberRe.FindString(s.Raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Percent returns the percentage part: 82 for "345 (82%)", 55 for "55%".
func (s StatValue) Percent() (float64, bool) {
	m := percentRe.FindStringSubmatch(s.Raw)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Denominator returns the attempted count of a ratio: 20 for "12/20 (60%)".
func (s StatValue) Denominator() (float64, bool) {
	m := ratioRe.FindStringSubmatch(s.Raw)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
