package models

import "testing"

func fixture(home bool, homeScore, awayScore int) Fixture {
	return Fixture{Status: FixtureFinished, IsHome: home, HomeScore: &homeScore, AwayScore: &awayScore}
}

func TestSummarizeForm(t *testing.T) {
	fixtures := []Fixture{
		fixture(true, 2, 1),
		fixture(false, 3, 0),
		fixture(false, 1, 2),
		fixture(true, 1, 1),
		{Status: FixtureUpcoming, IsHome: true},
		{Status: FixtureFinished},
	}

	form, stats := SummarizeForm(fixtures)
	if form != "WLWD" {
		t.Errorf("form = %q, want WLWD", form)
	}
	want := FormStatistics{GoalsScored: 5, GoalsConceded: 6, Wins: 2, Draws: 1, Losses: 1, FormPercentage: 50}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestSummarizeFormRoundsPercentage(t *testing.T) {
	tests := []struct {
		name     string
		fixtures []Fixture
		want     int
	}{
		{"empty", nil, 0},
		{"two of three", []Fixture{fixture(true, 1, 0), fixture(true, 2, 0), fixture(true, 0, 0)}, 67},
		{"one of three", []Fixture{fixture(true, 1, 0), fixture(true, 0, 2), fixture(true, 0, 0)}, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, stats := SummarizeForm(tt.fixtures); stats.FormPercentage != tt.want {
				t.Errorf("FormPercentage = %d, want %d", stats.FormPercentage, tt.want)
			}
		})
	}
}

func TestResultFor(t *testing.T) {
	tests := []struct {
		goalsFor, goalsAgainst int
		want                   string
	}{
		{2, 1, ResultWin},
		{0, 0, ResultDraw},
		{1, 3, ResultLoss},
	}
	for _, tt := range tests {
		if got := ResultFor(tt.goalsFor, tt.goalsAgainst); got != tt.want {
			t.Errorf("ResultFor(%d, %d) = %q, want %q", tt.goalsFor, tt.goalsAgainst, got, tt.want)
		}
	}
}
