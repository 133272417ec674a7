package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestProfileMarshalNulls(t *testing.T) {
	p := NewProfile()
	p.Numeric[PPDA] = 8.5
	p.Categorical[PressingIntensity] = "High"

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	pressing := decoded["pressing_structure"]
	if pressing["PPDA_avg"] != 8.5 {
		t.Errorf("PPDA_avg = %v, want 8.5", pressing["PPDA_avg"])
	}
	if pressing["pressing_intensity"] != "High" {
		t.Errorf("pressing_intensity = %v", pressing["pressing_intensity"])
	}

	possession, ok := decoded["possession_control"]
	if !ok {
		t.Fatal("every section should be written")
	}
	v, present := possession["possession_percent_avg"]
	if !present || v != nil {
		t.Errorf("possession_percent_avg = %v (present %v), want explicit null", v, present)
	}
	if strings.Contains(string(data), `"pressing_intensity_avg"`) {
		t.Error("categorical keys must not carry the _avg suffix")
	}
}

func TestProfileMarshalStable(t *testing.T) {
	p := NewProfile()
	for _, path := range FieldsOfKind(KindNumeric) {
		p.Numeric[path] = 1
	}
	first, _ := json.Marshal(p)
	for i := 0; i < 5; i++ {
		again, _ := json.Marshal(p)
		if string(again) != string(first) {
			t.Fatal("profile JSON should be byte-stable")
		}
	}
}

func TestProfileUnmarshal(t *testing.T) {
	input := `{"pressing_structure": {"PPDA_avg": 9.25, "pressing_intensity": null}, "team_shape": {"build_up_pattern": "short", "unknown_avg": 3}, "made_up": {"x_avg": 1}}`

	var p Profile
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if v, ok := p.Num(PPDA); !ok || v != 9.25 {
		t.Errorf("PPDA = %v, %v", v, ok)
	}
	if _, ok := p.Cat(PressingIntensity); ok {
		t.Error("null should stay absent")
	}
	if v, _ := p.Cat(BuildUpPattern); v != "short" {
		t.Errorf("build_up_pattern = %q", v)
	}
	if len(p.Numeric) != 1 || len(p.Categorical) != 1 {
		t.Errorf("unknown keys should be ignored, got %d numeric %d categorical", len(p.Numeric), len(p.Categorical))
	}

	if err := json.Unmarshal([]byte(`{"pressing_structure": {"PPDA_avg": "fast"}}`), &p); err == nil {
		t.Error("wrong type should fail")
	}
}

func TestFoundationEstimatedRatio(t *testing.T) {
	tests := []struct {
		name string
		f    TacticalFoundation
		want float64
	}{
		{"empty", TacticalFoundation{}, 0},
		{"none estimated", TacticalFoundation{MatchesAnalyzed: 4}, 0},
		{"half", TacticalFoundation{MatchesAnalyzed: 4, EstimatedMatches: 2, Estimated: true}, 0.5},
		{"flag only", TacticalFoundation{MatchesAnalyzed: 4, Estimated: true}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.EstimatedRatio(); got != tt.want {
				t.Errorf("EstimatedRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}
