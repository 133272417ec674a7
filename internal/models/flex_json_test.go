package models

import (
	"encoding/json"
	"testing"
)

func TestFlexUnmarshal_AllStrings(t *testing.T) {
	input := `[{"provider": "sofascore", "match_id": "11352417", "date": "2024-03-02T15:00:00Z", "home_team": {"id": "2817", "name": "Barcelona"}, "away_team": {"id": "2829", "name": "Real Madrid"}, "home_score": "2", "away_score": "1", "stats": [{"name": "Ball possession", "home": "58%", "away": "42%"}], "incidents": [{"type": "goal", "minute": "88", "is_home": "false"}]}]`

	var matches []RawMatch
	if err := json.Unmarshal([]byte(input), &matches); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.MatchID != "11352417" {
		t.Errorf("MatchID = %q, want 11352417", m.MatchID)
	}
	if m.HomeScore == nil || *m.HomeScore != 2 {
		t.Errorf("HomeScore = %v, want 2", m.HomeScore)
	}
	if m.AwayScore == nil || *m.AwayScore != 1 {
		t.Errorf("AwayScore = %v, want 1", m.AwayScore)
	}
	if len(m.Incidents) != 1 || m.Incidents[0].Minute != 88 || m.Incidents[0].IsHome {
		t.Errorf("Incidents = %+v, want one away goal at 88'", m.Incidents)
	}
	if m.Date.IsZero() {
		t.Error("Date should be parsed")
	}
}

func TestFlexUnmarshal_NumericIDs(t *testing.T) {
	input := `{"provider": "sofascore", "match_id": 11352417, "home_team": {"id": 2817, "name": "Barcelona"}, "away_team": {"id": 2829, "name": "Real Madrid"}, "home_score": 0, "away_score": 3}`

	var m RawMatch
	if err := json.Unmarshal([]byte(input), &m); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if m.MatchID != "11352417" {
		t.Errorf("MatchID = %q, want 11352417", m.MatchID)
	}
	if m.HomeTeam.ID != "2817" {
		t.Errorf("HomeTeam.ID = %q, want 2817", m.HomeTeam.ID)
	}
	if m.HomeScore == nil || *m.HomeScore != 0 {
		t.Errorf("HomeScore = %v, want 0", m.HomeScore)
	}
	if m.Incidents != nil {
		t.Errorf("Incidents = %v, want nil when not reported", m.Incidents)
	}
}

func TestStatValue(t *testing.T) {
	tests := []struct {
		raw         string
		wantNumber  float64
		wantNumOK   bool
		wantPercent float64
		wantPctOK   bool
	}{
		{`"58%"`, 58, true, 58, true},
		{`"345 (82%)"`, 345, true, 82, true},
		{`"12/20 (60%)"`, 12, true, 60, true},
		{`1.45`, 1.45, true, 0, false},
		{`"-"`, 0, false, 0, false},
		{`null`, 0, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var v StatValue
			if err := json.Unmarshal([]byte(tt.raw), &v); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			n, ok := v.Number()
			if ok != tt.wantNumOK || n != tt.wantNumber {
				t.Errorf("Number() = (%v, %v), want (%v, %v)", n, ok, tt.wantNumber, tt.wantNumOK)
			}
			p, ok := v.Percent()
			if ok != tt.wantPctOK || p != tt.wantPercent {
				t.Errorf("Percent() = (%v, %v), want (%v, %v)", p, ok, tt.wantPercent, tt.wantPctOK)
			}
		})
	}
}
