package models

import "time"

// Fixture statuses, from the perspective of the configured team
const (
	FixtureUpcoming = "upcoming"
	FixtureFinished = "finished"
)

// Fixture is a scheduled or played match seen from one team's side.
type Fixture struct {
	MatchID        string    `json:"match_id"`
	Date           time.Time `json:"date"`
	Competition    string    `json:"competition,omitempty"`
	Status         string    `json:"status"`
	ProviderStatus string    `json:"provider_status"`
	IsHome         bool      `json:"is_home"`
	OpponentID     string    `json:"opponent_id"`
	OpponentName   string    `json:"opponent_name"`
	HomeScore      *int      `json:"home_score,omitempty"`
	AwayScore      *int      `json:"away_score,omitempty"`
	// Score and Result are set for finished fixtures only.
	Score  string `json:"score,omitempty"`
	Result string `json:"result,omitempty"`
}

// Opponent returns the other side as a team identity.
func (f Fixture) Opponent() TeamIdentity {
	return TeamIdentity{ID: f.OpponentID, Name: f.OpponentName}
}

// FixturesResponse lists a team's upcoming fixtures.
type FixturesResponse struct {
	Team     TeamIdentity `json:"team"`
	Count    int          `json:"count"`
	Fixtures []Fixture    `json:"fixtures"`
}

// OpponentsResponse lists the distinct opponents found in the team's fixtures.
type OpponentsResponse struct {
	Team      TeamIdentity   `json:"team"`
	Count     int            `json:"count"`
	Opponents []TeamIdentity `json:"opponents"`
}

// FormStatistics summarizes a run of finished fixtures.
type FormStatistics struct {
	GoalsScored    int `json:"goals_scored"`
	GoalsConceded  int `json:"goals_conceded"`
	Wins           int `json:"wins"`
	Draws          int `json:"draws"`
	Losses         int `json:"losses"`
	FormPercentage int `json:"form_percentage"`
}

// RecentFormResponse is an opponent's latest results, most recent first.
type RecentFormResponse struct {
	Team          TeamIdentity   `json:"team"`
	Form          string         `json:"form"`
	RecentMatches []Fixture      `json:"recent_matches"`
	Statistics    FormStatistics `json:"statistics"`
}

// ResultFor maps a score line to W, D or L.
func ResultFor(goalsFor, goalsAgainst int) string {
	switch {
	case goalsFor > goalsAgainst:
		return ResultWin
	case goalsFor < goalsAgainst:
		return ResultLoss
	default:
		return ResultDraw
	}
}

// SummarizeForm builds the form string and totals over finished fixtures.
// FormPercentage is the rounded share of wins.
func SummarizeForm(fixtures []Fixture) (string, FormStatistics) {
	var (
		form  []byte
		stats FormStatistics
	)
	for _, f := range fixtures {
		if f.Status != FixtureFinished || f.HomeScore == nil || f.AwayScore == nil {
			continue
		}
		scored, conceded := *f.HomeScore, *f.AwayScore
		if !f.IsHome {
			scored, conceded = conceded, scored
		}
		stats.GoalsScored += scored
		stats.GoalsConceded += conceded
		result := ResultFor(scored, conceded)
		switch result {
		case ResultWin:
			stats.Wins++
		case ResultLoss:
			stats.Losses++
		default:
			stats.Draws++
		}
		form = append(form, result...)
	}
	if games := stats.Wins + stats.Draws + stats.Losses; games > 0 {
		stats.FormPercentage = (stats.Wins*100 + games/2) / games
	}
	return string(form), stats
}
