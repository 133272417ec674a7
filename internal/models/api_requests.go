package models

// RecalibrationRequest is the body of POST /tactical-plan/{opponentId}/recalibrate.
type RecalibrationRequest struct {
	OpponentName string        `json:"opponent_name" validate:"max=120"`
	Observations []Observation `json:"observations" validate:"max=20,dive"`
}

// TeamResolveResponse lists directory matches for a name query.
type TeamResolveResponse struct {
	Query string         `json:"query"`
	Teams []TeamIdentity `json:"teams"`
}

// CacheClearResponse reports how many plans were evicted.
type CacheClearResponse struct {
	Removed int `json:"removed"`
}

// ScorerStatus describes the active plan scorer.
type ScorerStatus struct {
	Scorer       string `json:"scorer"`
	ModelVersion string `json:"model_version,omitempty"`
	MLEnabled    bool   `json:"ml_enabled"`
}

// FoundationResponse wraps an opponent's aggregated historical profile.
type FoundationResponse struct {
	Opponent   TeamIdentity       `json:"opponent"`
	Foundation TacticalFoundation `json:"foundation"`
}
