package logic

import (
	"fmt"
	"sort"

	"github.com/openmohaa/tactical-api/internal/models"
)

// SuggestionSource tags customized_suggestions built by the rules table.
const SuggestionSource = "rule_engine"

// Engine evaluates the rules table against a blended profile.
type Engine struct {
	rules  *RuleSet
	tuning Tuning
}

// NewEngine builds an engine over a validated rule set.
func NewEngine(rules *RuleSet, t Tuning) *Engine {
	return &Engine{rules: rules, tuning: t}
}

// Rules exposes the active rule set.
func (e *Engine) Rules() *RuleSet { return e.rules }

// Recommend turns a blended profile into a tactical plan. Rules whose fields
// are null are skipped. The output depends only on its inputs: PlanID and
// GeneratedAt are left for the caller to stamp.
func (e *Engine) Recommend(b models.BlendedProfile, c models.ConfidenceAssessment, opponent string, signal *models.MLSignal) models.TacticalPlan {
	p := b.Profile
	if p.Numeric == nil || p.Categorical == nil {
		p = models.NewProfile()
	}

	plan := models.TacticalPlan{
		Opponent:           opponent,
		CriticalWeaknesses: []models.Weakness{},
		AIConfidence:       c,
		MLSignal:           signal,
		DataNotes:          []string{},
	}
	plan.FormationRecommendations.SuggestedChanges = []models.Recommendation{}
	plan.PressingStrategy.Recommendation.PressingRecommendations = []models.Recommendation{}
	plan.PlayerRoles.RoleChanges = []models.Recommendation{}
	plan.SubstitutionStrategy.Recommendations = []models.Recommendation{}
	plan.InGameSwitches.Recommendations = []models.Recommendation{}

	suggestions := models.CustomizedSuggestions{
		AttackZones:              []string{},
		DefensiveVulnerabilities: []string{},
		NeutralizeStrengths:      []string{},
		SetPieceAdjustments:      []string{},
		Source:                   SuggestionSource,
	}

	byTopic := make(map[string]int)
	for _, r := range e.rules.Rules {
		fired, ok := r.Match(p)
		if !ok || !fired {
			continue
		}
		switch r.Category {
		case CategoryWeakness:
			w := models.Weakness{
				RuleID:           r.ID,
				Field:            r.When[0].Field,
				Topic:            r.Topic,
				Weakness:         r.Render(r.Title, p, opponent),
				Severity:         r.Severity,
				TacticalResponse: r.Render(r.Template, p, opponent),
				ExpectedImpact:   r.Expected,
				Trigger:          r.Trigger(p),
			}
			if i, seen := byTopic[r.Topic]; seen {
				if w.Severity.Rank() > plan.CriticalWeaknesses[i].Severity.Rank() {
					plan.CriticalWeaknesses[i] = w
				}
				continue
			}
			byTopic[r.Topic] = len(plan.CriticalWeaknesses)
			plan.CriticalWeaknesses = append(plan.CriticalWeaknesses, w)
		case CategorySuggestion:
			text := r.Render(r.Title, p, opponent)
			switch r.Topic {
			case SlotRecommendedSystem:
				if suggestions.RecommendedSystem == "" {
					suggestions.RecommendedSystem = text
				}
			case SlotAttackZones:
				suggestions.AttackZones = append(suggestions.AttackZones, text)
			case SlotDefensiveVulnerabilities:
				suggestions.DefensiveVulnerabilities = append(suggestions.DefensiveVulnerabilities, text)
			case SlotNeutralizeStrengths:
				suggestions.NeutralizeStrengths = append(suggestions.NeutralizeStrengths, text)
			case SlotSetPieceAdjustments:
				suggestions.SetPieceAdjustments = append(suggestions.SetPieceAdjustments, text)
			}
		default:
			rec := e.recommendation(r, p, opponent, signal)
			switch r.Category {
			case CategoryFormation:
				plan.FormationRecommendations.SuggestedChanges = append(plan.FormationRecommendations.SuggestedChanges, rec)
			case CategoryPressing:
				plan.PressingStrategy.Recommendation.PressingRecommendations = append(plan.PressingStrategy.Recommendation.PressingRecommendations, rec)
			case CategoryPlayerRole:
				plan.PlayerRoles.RoleChanges = append(plan.PlayerRoles.RoleChanges, rec)
			case CategorySubstitution:
				plan.SubstitutionStrategy.Recommendations = append(plan.SubstitutionStrategy.Recommendations, rec)
			case CategoryInGameSwitch:
				plan.InGameSwitches.Recommendations = append(plan.InGameSwitches.Recommendations, rec)
			}
		}
	}

	sortRecommendations(plan.FormationRecommendations.SuggestedChanges)
	sortRecommendations(plan.PressingStrategy.Recommendation.PressingRecommendations)
	sortRecommendations(plan.PlayerRoles.RoleChanges)
	sortRecommendations(plan.SubstitutionStrategy.Recommendations)
	sortRecommendations(plan.InGameSwitches.Recommendations)
	sort.SliceStable(plan.CriticalWeaknesses, func(i, j int) bool {
		return plan.CriticalWeaknesses[i].Severity.Rank() > plan.CriticalWeaknesses[j].Severity.Rank()
	})

	if suggestions.RecommendedSystem == "" && len(plan.FormationRecommendations.SuggestedChanges) > 0 {
		suggestions.RecommendedSystem = plan.FormationRecommendations.SuggestedChanges[0].Title
	}
	plan.CustomizedSuggestions = suggestions

	plan.TargetZones.PriorityZones = e.rankZones(p)
	plan.GamePhases = e.phases(p)
	plan.HistoricalContext = e.historicalContext(b)

	if p.Empty() {
		plan.AIConfidence.RecommendationReliability = models.ReliabilityLow
		plan.DataNotes = append(plan.DataNotes, "No populated fields: every rule was skipped")
	}
	return plan
}

func (e *Engine) recommendation(r Rule, p models.Profile, opponent string, signal *models.MLSignal) models.Recommendation {
	rec := models.Recommendation{
		RuleID:     r.ID,
		Title:      r.Render(r.Title, p, opponent),
		Detail:     r.Render(r.Template, p, opponent),
		Priority:   r.Severity,
		TargetLine: r.TargetLine,
		Timing:     r.Timing,
		Position:   r.Position,
		Expected:   r.Expected,
		Trigger:    r.Trigger(p),
	}
	if r.LineBand != nil {
		if band, ok := r.LineBand.render(p); ok {
			rec.TargetLine = band
		}
	}
	if escalates(r.Stance, signal) {
		rec.Priority = rec.Priority.Escalate()
		rec.MLAdjusted = true
	}
	return rec
}

// escalates reports whether the ML signal raises a rule of this stance:
// high risk favours defensive rows, low risk favours attacking ones.
func escalates(stance string, signal *models.MLSignal) bool {
	if signal == nil || stance == "" {
		return false
	}
	switch signal.RiskLevel {
	case models.RiskHigh:
		return stance == StanceDefensive
	case models.RiskLow:
		return stance == StanceAttacking
	}
	return false
}

func sortRecommendations(recs []models.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() > recs[j].Priority.Rank()
	})
}

func (e *Engine) rankZones(p models.Profile) []models.ZoneTarget {
	zones := []models.ZoneTarget{}
	for _, z := range e.rules.Zones {
		target := models.ZoneTarget{
			Zone:            z.Zone,
			AttackMethod:    z.AttackMethod,
			ExpectedOutcome: z.Expected,
			Triggers:        []string{},
		}
		for _, s := range z.Signals {
			fired, present := s.Evaluate(p)
			if !present || !fired {
				continue
			}
			target.Score += s.Weight
			target.Triggers = append(target.Triggers, s.describe(p))
		}
		if target.Score > 0 {
			zones = append(zones, target)
		}
	}
	sort.SliceStable(zones, func(i, j int) bool { return zones[i].Score > zones[j].Score })
	if len(zones) > e.tuning.TopZones {
		zones = zones[:e.tuning.TopZones]
	}
	for i := range zones {
		zones[i].Priority = models.ZoneSecondary
		if i == 0 {
			zones[i].Priority = models.ZonePrimary
		}
	}
	return zones
}

func (e *Engine) phases(p models.Profile) models.GamePhases {
	guidance := make(map[string]string)
	ruleIDs := make(map[string]string)
	for _, ph := range e.rules.Phases {
		if len(ph.When) == 0 {
			if _, ok := guidance[ph.Key]; !ok {
				guidance[ph.Key] = ph.Guidance
			}
		}
	}
	for _, ph := range e.rules.Phases {
		if len(ph.When) == 0 || ruleIDs[ph.Key] != "" {
			continue
		}
		fired := true
		for _, c := range ph.When {
			f, present := c.Evaluate(p)
			if !present || !f {
				fired = false
				break
			}
		}
		if fired {
			guidance[ph.Key] = ph.Guidance
			ruleIDs[ph.Key] = ph.ID
		}
	}

	gp := models.GamePhases{
		InPossession:  guidance[PhaseInPossession],
		OutPossession: guidance[PhaseOutPossession],
		Transitions:   guidance[PhaseTransitions],
		Bands:         make([]models.PhaseBand, 0, len(PhaseBands)),
	}
	for _, band := range PhaseBands {
		gp.Bands = append(gp.Bands, models.PhaseBand{
			Band:     band,
			Guidance: guidance[band],
			RuleID:   ruleIDs[band],
		})
	}
	return gp
}

func (e *Engine) historicalContext(b models.BlendedProfile) models.HistoricalContext {
	ctx := models.HistoricalContext{
		BaselineSeason:   e.tuning.BaselineSeason,
		ValidationNote:   fmt.Sprintf("Based on %s data - validate with recent opponent observation", e.tuning.BaselineSeason),
		MatchesAnalyzed:  b.MatchesAnalyzed,
		ObservationCount: b.ObservationCount,
		KeyPlayers:       b.KeyPlayers,
		Notes:            b.Notes,
		SeasonComparison: models.SeasonComparison{
			HistoricalProfile:      orEmpty(b.Historical),
			CurrentObservedProfile: orEmpty(b.Observed),
			BlendedProfile:         orEmpty(b.Profile),
		},
	}
	if ctx.KeyPlayers == nil {
		ctx.KeyPlayers = []string{}
	}
	if ctx.Notes == nil {
		ctx.Notes = []string{}
	}
	return ctx
}

func orEmpty(p models.Profile) models.Profile {
	if p.Numeric == nil || p.Categorical == nil {
		return models.NewProfile()
	}
	return p
}
