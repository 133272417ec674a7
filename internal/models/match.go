package models

import "time"

// Location values for MatchRecord.Location
const (
	LocationHome = "home"
	LocationAway = "away"
)

// Result values for MatchRecord.Result
const (
	ResultWin  = "W"
	ResultDraw = "D"
	ResultLoss = "L"
)

// MatchRecord is the canonical per-match tactical record for one team.
// Every leaf is nil when the provider did not supply it and it could not be derived.
type MatchRecord struct {
	MatchID         string      `json:"match_id"`
	Date            time.Time   `json:"date"`
	Team            string      `json:"team"`
	Opponent        string      `json:"opponent"`
	Location        string      `json:"location"`
	Score           string      `json:"score"`
	Result          string      `json:"result"`
	Estimated       bool        `json:"estimated"`
	EstimatedFields []FieldPath `json:"estimated_fields,omitempty"`
	Tactical
}

// Tactical groups the canonical sections shared by match records.
// Section and leaf JSON tags define the FieldPath registry.
type Tactical struct {
	PossessionControl       PossessionControl       `json:"possession_control"`
	ShootingFinishing       ShootingFinishing       `json:"shooting_finishing"`
	ExpectedMetrics         ExpectedMetrics         `json:"expected_metrics"`
	ChanceCreation          ChanceCreation          `json:"chance_creation"`
	DefensiveActions        DefensiveActions        `json:"defensive_actions"`
	PressingStructure       PressingStructure       `json:"pressing_structure"`
	TeamShape               TeamShape               `json:"team_shape"`
	Transitions             Transitions             `json:"transitions"`
	SetPieceAnalytics       SetPieceAnalytics       `json:"set_piece_analytics"`
	ContextualPsychological ContextualPsychological `json:"contextual_psychological"`
}

type PossessionControl struct {
	PossessionPercent *float64 `json:"possession_percent"`
	PassAccuracy      *float64 `json:"pass_accuracy"`
	TotalPasses       *float64 `json:"total_passes"`
	AccuratePasses    *float64 `json:"accurate_passes"`
	PassesPerMinute   *float64 `json:"passes_per_minute"`
	LongBallsAccurate *float64 `json:"long_balls_accurate"`
	LongBallAccuracy  *float64 `json:"long_ball_accuracy"`
	TempoRating       *string  `json:"tempo_rating"`
}

type ShootingFinishing struct {
	Goals              *float64 `json:"goals"`
	TotalShots         *float64 `json:"total_shots"`
	ShotsOnTarget      *float64 `json:"shots_on_target"`
	ShotsInsideBox     *float64 `json:"shots_inside_box"`
	ShotsOutsideBox    *float64 `json:"shots_outside_box"`
	ShotConversionRate *float64 `json:"shot_conversion_rate"`
	BigChancesCreated  *float64 `json:"big_chances_created"`
	BigChancesMissed   *float64 `json:"big_chances_missed"`
}

type ExpectedMetrics struct {
	XG        *float64 `json:"xG"`
	XGPerShot *float64 `json:"xG_per_shot"`
	XGAgainst *float64 `json:"xG_against"`
	XA        *float64 `json:"xA"`
}

type ChanceCreation struct {
	KeyPasses            *float64 `json:"key_passes"`
	CrossesAttempted     *float64 `json:"crosses_attempted"`
	CrossesAccurate      *float64 `json:"crosses_accurate"`
	PassesIntoFinalThird *float64 `json:"passes_into_final_third"`
	TouchesInBox         *float64 `json:"touches_in_box"`
}

type DefensiveActions struct {
	GoalsConceded     *float64 `json:"goals_conceded"`
	ShotsConceded     *float64 `json:"shots_conceded"`
	TacklesAttempted  *float64 `json:"tackles_attempted"`
	TacklesWon        *float64 `json:"tackles_won"`
	TackleSuccessRate *float64 `json:"tackle_success_rate"`
	Interceptions     *float64 `json:"interceptions"`
	Clearances        *float64 `json:"clearances"`
	BlockedShots      *float64 `json:"blocked_shots"`
	DuelsWonPercent   *float64 `json:"duels_won_percent"`
	FoulsCommitted    *float64 `json:"fouls_committed"`
	GoalkeeperSaves   *float64 `json:"goalkeeper_saves"`
	DefensiveRating   *string  `json:"defensive_rating"`
}

type PressingStructure struct {
	PPDA                   *float64 `json:"PPDA"`
	HighTurnoversWon       *float64 `json:"high_turnovers_won"`
	CounterPressRecoveries *float64 `json:"counter_press_recoveries"`
	PressingIntensity      *string  `json:"pressing_intensity"`
}

type TeamShape struct {
	DefensiveLineHeight *float64 `json:"defensive_line_height"`
	AvgTeamLineHeight   *float64 `json:"avg_team_line_height"`
	TeamCompactness     *string  `json:"team_compactness"`
	WidthUsage          *string  `json:"width_usage"`
	BuildUpPattern      *string  `json:"build_up_pattern"`
	FormationDetected   *string  `json:"formation_detected"`
}

type Transitions struct {
	OffensiveTransitionsRating *float64 `json:"offensive_transitions_rating"`
	RecoveryTimeAfterLoss      *float64 `json:"recovery_time_after_loss"`
	RestDefenseQuality         *string  `json:"rest_defense_quality"`
}

type SetPieceAnalytics struct {
	CornersWon                 *float64 `json:"corners_won"`
	CornersConceded            *float64 `json:"corners_conceded"`
	SetPieceGoals              *float64 `json:"set_piece_goals"`
	XGFromSetPieces            *float64 `json:"xG_from_set_pieces"`
	XGConcededFromSetPieces    *float64 `json:"xG_conceded_from_set_pieces"`
	ShotsConcededFromSetPieces *float64 `json:"shots_conceded_from_set_pieces"`
	MarkingType                *string  `json:"marking_type"`
	SetPieceWeakness           *string  `json:"set_piece_weakness"`
}

type ContextualPsychological struct {
	LateGoalsScored   *float64 `json:"late_goals_scored"`
	LateGoalsConceded *float64 `json:"late_goals_conceded"`
	ScorelineState    *string  `json:"scoreline_state"`
	GameMomentum      *string  `json:"game_momentum"`
	FatigueIndicators *string  `json:"fatigue_indicators"`
}

// TeamIdentity identifies the team a raw match is normalized for.
type TeamIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
