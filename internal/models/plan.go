package models

import "time"

// Priority ranks recommendation items and weaknesses.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

var priorityRank = map[Priority]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
}

// Rank orders priorities; unknown values rank 0.
func (p Priority) Rank() int { return priorityRank[p] }

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool { return p.Rank() > 0 }

// Escalate returns the next priority up, stopping at CRITICAL.
func (p Priority) Escalate() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	default:
		return PriorityCritical
	}
}

// Reliability is the categorical read of adjusted confidence.
type Reliability string

const (
	ReliabilityLow    Reliability = "LOW"
	ReliabilityMedium Reliability = "MEDIUM"
	ReliabilityHigh   Reliability = "HIGH"
)

// Zone priorities
const (
	ZonePrimary   = "PRIMARY"
	ZoneSecondary = "SECONDARY"
)

// Data sources for a served plan
const (
	SourceComputed = "computed"
	SourceCache    = "cache"
)

// ConfidenceAssessment scores how much a plan can be trusted.
type ConfidenceAssessment struct {
	OverallConfidence         int         `json:"overall_confidence"`
	BaseConfidence            float64     `json:"base_confidence"`
	AdjustedConfidence        float64     `json:"adjusted_confidence"`
	ObservationBoost          float64     `json:"observation_boost"`
	DivergencePenalty         float64     `json:"divergence_penalty"`
	RecommendationReliability Reliability `json:"recommendation_reliability"`
	DataQuality               string      `json:"data_quality"`
}

// Recommendation is one rule-triggered item.
type Recommendation struct {
	RuleID     string   `json:"rule_id"`
	Title      string   `json:"title"`
	Detail     string   `json:"detail"`
	Priority   Priority `json:"priority"`
	TargetLine string   `json:"target_line,omitempty"`
	Timing     string   `json:"timing,omitempty"`
	Position   string   `json:"position,omitempty"`
	Expected   string   `json:"expected_impact,omitempty"`
	Trigger    string   `json:"trigger"`
	MLAdjusted bool     `json:"ml_adjusted,omitempty"`
}

// Weakness is one entry in critical_weaknesses.
type Weakness struct {
	RuleID           string    `json:"rule_id"`
	Field            FieldPath `json:"field"`
	Topic            string    `json:"topic"`
	Weakness         string    `json:"weakness"`
	Severity         Priority  `json:"severity"`
	TacticalResponse string    `json:"tactical_response"`
	ExpectedImpact   string    `json:"expected_impact,omitempty"`
	Trigger          string    `json:"trigger"`
}

// ZoneTarget is one ranked exploitation zone.
type ZoneTarget struct {
	Zone            string   `json:"zone"`
	AttackMethod    string   `json:"attack_method"`
	ExpectedOutcome string   `json:"expected_outcome,omitempty"`
	Priority        string   `json:"priority"`
	Score           float64  `json:"score"`
	Triggers        []string `json:"triggers"`
}

// PhaseBand is guidance for one 15-minute band.
type PhaseBand struct {
	Band     string `json:"band"`
	Guidance string `json:"guidance"`
	RuleID   string `json:"rule_id,omitempty"`
}

type FormationRecommendations struct {
	SuggestedChanges []Recommendation `json:"suggested_changes"`
}

type PressingRecommendation struct {
	PressingRecommendations []Recommendation `json:"pressing_recommendations"`
}

type PressingStrategy struct {
	Recommendation PressingRecommendation `json:"recommendation"`
}

type TargetZones struct {
	PriorityZones []ZoneTarget `json:"priority_zones"`
}

type PlayerRoles struct {
	RoleChanges []Recommendation `json:"role_changes"`
}

type GamePhases struct {
	InPossession  string      `json:"in_possession"`
	OutPossession string      `json:"out_possession"`
	Transitions   string      `json:"transitions"`
	Bands         []PhaseBand `json:"bands"`
}

type SubstitutionStrategy struct {
	Recommendations []Recommendation `json:"recommendations"`
}

type InGameSwitches struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// CustomizedSuggestions is the rule-engine narrative block.
type CustomizedSuggestions struct {
	RecommendedSystem        string   `json:"recommended_system"`
	AttackZones              []string `json:"attack_zones"`
	DefensiveVulnerabilities []string `json:"defensive_vulnerabilities"`
	NeutralizeStrengths      []string `json:"neutralize_strengths"`
	SetPieceAdjustments      []string `json:"set_piece_adjustments"`
	Source                   string   `json:"source"`
}

type SeasonComparison struct {
	HistoricalProfile      Profile `json:"historical_profile"`
	CurrentObservedProfile Profile `json:"current_observed_profile"`
	BlendedProfile         Profile `json:"blended_profile"`
}

type HistoricalContext struct {
	BaselineSeason   string           `json:"baseline_season"`
	ValidationNote   string           `json:"validation_note"`
	MatchesAnalyzed  int              `json:"matches_analyzed"`
	ObservationCount int              `json:"observation_count"`
	KeyPlayers       []string         `json:"key_players"`
	Notes            []string         `json:"notes"`
	SeasonComparison SeasonComparison `json:"season_comparison"`
}

// MLSignal is the optional scorer output consulted by the engine.
type MLSignal struct {
	ModelVersion         string  `json:"model_version"`
	ResultTendency       string  `json:"result_tendency"`
	PWin                 float64 `json:"p_win"`
	PDraw                float64 `json:"p_draw"`
	PLoss                float64 `json:"p_loss"`
	ExpectedGoalsFor     float64 `json:"expected_goals_for"`
	ExpectedGoalsAgainst float64 `json:"expected_goals_against"`
	RiskScore            float64 `json:"risk_score"`
	RiskLevel            string  `json:"risk_level"`
	WindowSize           int     `json:"window_size"`
}

// Risk levels for MLSignal.RiskLevel
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

// TacticalPlan is the full recommendation object served to the dashboard.
type TacticalPlan struct {
	PlanID                   string                   `json:"plan_id,omitempty"`
	Team                     string                   `json:"team,omitempty"`
	Opponent                 string                   `json:"opponent"`
	OpponentID               string                   `json:"opponent_id,omitempty"`
	GeneratedAt              time.Time                `json:"generated_at"`
	DataSource               string                   `json:"data_source,omitempty"`
	FormationRecommendations FormationRecommendations `json:"formation_recommendations"`
	PressingStrategy         PressingStrategy         `json:"pressing_strategy"`
	TargetZones              TargetZones              `json:"target_zones"`
	PlayerRoles              PlayerRoles              `json:"player_roles"`
	CriticalWeaknesses       []Weakness               `json:"critical_weaknesses"`
	GamePhases               GamePhases               `json:"game_phases"`
	SubstitutionStrategy     SubstitutionStrategy     `json:"substitution_strategy"`
	InGameSwitches           InGameSwitches           `json:"in_game_switches"`
	CustomizedSuggestions    CustomizedSuggestions    `json:"customized_suggestions"`
	AIConfidence             ConfidenceAssessment     `json:"ai_confidence"`
	HistoricalContext        HistoricalContext        `json:"historical_context"`
	Form                     *FormSummary             `json:"form,omitempty"`
	MLSignal                 *MLSignal                `json:"ml_signal"`
	Scorer                   string                   `json:"scorer"`
	DataNotes                []string                 `json:"data_notes"`
}

// ItemCount is the number of rule-triggered items across all categories.
func (p *TacticalPlan) ItemCount() int {
	return len(p.FormationRecommendations.SuggestedChanges) +
		len(p.PressingStrategy.Recommendation.PressingRecommendations) +
		len(p.TargetZones.PriorityZones) +
		len(p.PlayerRoles.RoleChanges) +
		len(p.CriticalWeaknesses) +
		len(p.SubstitutionStrategy.Recommendations) +
		len(p.InGameSwitches.Recommendations)
}

// CacheStats reports plan cache occupancy.
type CacheStats struct {
	Backend    string `json:"backend"`
	Entries    int    `json:"entries"`
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
	TTLSeconds int64  `json:"ttl_seconds"`
}
