package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Config
const (
	defaultAPIURL  = "http://localhost:8080/api/v1"
	defaultTeamID  = "2817"
	defaultTeamTag = "Sample Opponent"
)

// Observation matches models.Observation (simplified)
type Observation struct {
	PossessionPercent     *float64 `json:"possession_percent,omitempty"`
	ShotsFor              *float64 `json:"shots_for,omitempty"`
	GoalsConceded         *float64 `json:"goals_conceded,omitempty"`
	PressingLevel         string   `json:"pressing_level,omitempty"`
	DefensiveLineHeight   *float64 `json:"defensive_line_height,omitempty"`
	SetPieceVulnerability string   `json:"set_piece_vulnerability,omitempty"`
	KeyPlayers            []string `json:"key_players,omitempty"`
	Notes                 string   `json:"notes,omitempty"`
}

type recalibration struct {
	OpponentName string        `json:"opponent_name"`
	Observations []Observation `json:"observations"`
}

func f(v float64) *float64 { return &v }

func main() {
	apiURL := flag.String("api", defaultAPIURL, "API base URL")
	opponentID := flag.String("opponent", defaultTeamID, "Opponent provider ID")
	name := flag.String("name", defaultTeamTag, "Opponent display name")
	flag.Parse()

	body := recalibration{
		OpponentName: *name,
		Observations: []Observation{
			{
				PossessionPercent:   f(61),
				ShotsFor:            f(15),
				GoalsConceded:       f(1),
				PressingLevel:       "high",
				DefensiveLineHeight: f(48),
				KeyPlayers:          []string{"No. 10", "Left winger"},
			},
			{
				PossessionPercent:     f(57),
				ShotsFor:              f(11),
				SetPieceVulnerability: "high",
				Notes:                 "Conceded twice from corners, zonal marking",
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		log.Fatalf("Failed to marshal JSON: %v", err)
	}

	url := fmt.Sprintf("%s/tactical-plan/%s/recalibrate", *apiURL, *opponentID)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(payload))
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %s\n", resp.Status)

	var plan struct {
		PlanID       string `json:"plan_id"`
		AIConfidence struct {
			AdjustedConfidence        float64 `json:"adjusted_confidence"`
			RecommendationReliability string  `json:"recommendation_reliability"`
		} `json:"ai_confidence"`
		DataNotes []string `json:"data_notes"`
	}
	if resp.StatusCode != http.StatusOK || json.Unmarshal(respBody, &plan) != nil {
		fmt.Printf("Response: %s\n", string(respBody))
		fmt.Println("Recalibration failed")
		return
	}

	fmt.Printf("Plan %s: confidence %.1f (%s)\n", plan.PlanID, plan.AIConfidence.AdjustedConfidence, plan.AIConfidence.RecommendationReliability)
	for _, note := range plan.DataNotes {
		fmt.Printf("  note: %s\n", note)
	}
}
