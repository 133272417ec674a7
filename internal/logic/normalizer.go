package logic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openmohaa/tactical-api/internal/models"
)

type valuePart int

const (
	partNumber valuePart = iota
	partPercent
	partDenominator
)

type statSide int

const (
	sideOwn statSide = iota
	sideOpponent
)

// statMapping binds a canonical numeric path to provider statistic names.
// The first alias present in the payload wins.
type statMapping struct {
	path    models.FieldPath
	aliases []string
	part    valuePart
	side    statSide
}

// categoryMapping binds a canonical categorical path to provider statistic names.
type categoryMapping struct {
	path    models.FieldPath
	aliases []string
}

type providerTable struct {
	numeric     []statMapping
	categorical []categoryMapping
	// names read from the opponent side for the PPDA fallback
	passAliases []string
}

var sofaScoreTable = providerTable{
	numeric: []statMapping{
		{path: models.PossessionPercent, aliases: []string{"ball possession", "possession"}},
		{path: models.PassAccuracy, aliases: []string{"pass accuracy", "accurate passes"}, part: partPercent},
		{path: models.TotalPasses, aliases: []string{"passes", "total passes"}},
		{path: models.AccuratePasses, aliases: []string{"accurate passes"}},
		{path: "possession_control.long_balls_accurate", aliases: []string{"long balls"}},
		{path: "possession_control.long_ball_accuracy", aliases: []string{"long balls"}, part: partPercent},
		{path: models.TotalShots, aliases: []string{"total shots"}},
		{path: "shooting_finishing.shots_on_target", aliases: []string{"shots on target"}},
		{path: "shooting_finishing.shots_inside_box", aliases: []string{"shots inside box"}},
		{path: "shooting_finishing.shots_outside_box", aliases: []string{"shots outside box"}},
		{path: "shooting_finishing.big_chances_created", aliases: []string{"big chances"}},
		{path: "shooting_finishing.big_chances_missed", aliases: []string{"big chances missed"}},
		{path: models.XG, aliases: []string{"expected goals", "expected goals (xg)", "xg"}},
		{path: models.XGAgainst, aliases: []string{"expected goals", "expected goals (xg)", "xg"}, side: sideOpponent},
		{path: "expected_metrics.xA", aliases: []string{"expected assists", "xa"}},
		{path: "chance_creation.key_passes", aliases: []string{"key passes"}},
		{path: "chance_creation.crosses_accurate", aliases: []string{"crosses"}},
		{path: "chance_creation.crosses_attempted", aliases: []string{"crosses"}, part: partDenominator},
		{path: "chance_creation.passes_into_final_third", aliases: []string{"final third entries"}},
		{path: "chance_creation.touches_in_box", aliases: []string{"touches in penalty area"}},
		{path: models.ShotsConceded, aliases: []string{"total shots"}, side: sideOpponent},
		{path: models.TacklesAttempted, aliases: []string{"total tackles", "tackles"}},
		{path: models.TacklesWon, aliases: []string{"tackles won"}},
		{path: models.Interceptions, aliases: []string{"interceptions"}},
		{path: "defensive_actions.clearances", aliases: []string{"clearances"}},
		{path: "defensive_actions.blocked_shots", aliases: []string{"blocked shots"}},
		{path: "defensive_actions.duels_won_percent", aliases: []string{"duels", "duels won"}, part: partPercent},
		{path: models.FoulsCommitted, aliases: []string{"fouls"}},
		{path: "defensive_actions.goalkeeper_saves", aliases: []string{"goalkeeper saves"}},
		{path: models.PPDA, aliases: []string{"ppda"}},
		{path: "pressing_structure.high_turnovers_won", aliases: []string{"high turnovers", "possession won final 3rd"}},
		{path: "set_piece_analytics.corners_won", aliases: []string{"corner kicks", "corners"}},
		{path: "set_piece_analytics.corners_conceded", aliases: []string{"corner kicks", "corners"}, side: sideOpponent},
		{path: "set_piece_analytics.xG_from_set_pieces", aliases: []string{"xg set play", "set piece xg"}},
		{path: models.XGConcededFromSetPieces, aliases: []string{"xg set play", "set piece xg"}, side: sideOpponent},
	},
	passAliases: []string{"passes", "total passes"},
}

var whoScoredTable = providerTable{
	numeric: []statMapping{
		{path: models.PossessionPercent, aliases: []string{"possession", "possession%"}},
		{path: models.PassAccuracy, aliases: []string{"pass success", "pass success%"}},
		{path: models.TotalPasses, aliases: []string{"passes", "total passes"}},
		{path: models.TotalShots, aliases: []string{"shots", "total shots"}},
		{path: "shooting_finishing.shots_on_target", aliases: []string{"shots on target"}},
		{path: models.XG, aliases: []string{"xg", "expected goals"}},
		{path: models.XGAgainst, aliases: []string{"xg", "expected goals"}, side: sideOpponent},
		{path: "chance_creation.key_passes", aliases: []string{"key passes"}},
		{path: "chance_creation.crosses_attempted", aliases: []string{"crosses"}},
		{path: models.ShotsConceded, aliases: []string{"shots", "total shots"}, side: sideOpponent},
		{path: models.TacklesAttempted, aliases: []string{"tackles", "total tackles"}},
		{path: models.TacklesWon, aliases: []string{"tackles won", "successful tackles"}},
		{path: models.Interceptions, aliases: []string{"interceptions"}},
		{path: "defensive_actions.clearances", aliases: []string{"clearances"}},
		{path: "defensive_actions.duels_won_percent", aliases: []string{"aerials won%", "aerial duel success"}},
		{path: models.FoulsCommitted, aliases: []string{"fouls"}},
		{path: models.PPDA, aliases: []string{"ppda"}},
		{path: models.DefensiveLineHeight, aliases: []string{"defensive line height", "average defensive line"}},
		{path: "team_shape.avg_team_line_height", aliases: []string{"average team line", "team line height"}},
		{path: "transitions.recovery_time_after_loss", aliases: []string{"recovery time", "regain time"}},
		{path: "set_piece_analytics.corners_won", aliases: []string{"corners"}},
		{path: "set_piece_analytics.corners_conceded", aliases: []string{"corners"}, side: sideOpponent},
		{path: "set_piece_analytics.set_piece_goals", aliases: []string{"set piece goals"}},
		{path: "set_piece_analytics.xG_from_set_pieces", aliases: []string{"set piece xg"}},
		{path: models.XGConcededFromSetPieces, aliases: []string{"set piece xg"}, side: sideOpponent},
		{path: "set_piece_analytics.shots_conceded_from_set_pieces", aliases: []string{"set piece shots"}, side: sideOpponent},
	},
	categorical: []categoryMapping{
		{path: "team_shape.formation_detected", aliases: []string{"formation"}},
		{path: models.WidthUsage, aliases: []string{"attack sides", "width usage"}},
		{path: models.TeamCompactness, aliases: []string{"compactness"}},
		{path: "set_piece_analytics.marking_type", aliases: []string{"marking", "marking type"}},
		{path: "transitions.rest_defense_quality", aliases: []string{"rest defence", "rest defense"}},
	},
	passAliases: []string{"passes", "total passes"},
}

var providerTables = map[string]providerTable{
	models.ProviderSofaScore: sofaScoreTable,
	models.ProviderWhoScored: whoScoredTable,
}

// Derivation constants
const (
	matchMinutes          = 90.0
	lateGoalMinute        = 75
	fallbackXGPerShot     = 0.1
	tempoHighPassesPerMin = 4.2
	tempoMedPassesPerMin  = 3.4
	pressingHighPPDA      = 10.0
	pressingMediumPPDA    = 14.0
	vulnerableConceded    = 2.0
	vulnerableShots       = 16.0
	solidShotsConceded    = 10.0
	setPieceHighXG        = 0.4
	setPieceMediumXG      = 0.2
)

// Normalize converts one raw provider match into the canonical record for team.
// Provider statistics that are absent stay nil. The record is marked estimated
// when a missing direct statistic had to be approximated from others.
func Normalize(raw models.RawMatch, team models.TeamIdentity) (models.MatchRecord, error) {
	if strings.TrimSpace(raw.MatchID) == "" {
		return models.MatchRecord{}, &MalformedRecordError{Reason: "missing match id"}
	}
	if raw.HomeTeam.Name == "" && raw.HomeTeam.ID == "" || raw.AwayTeam.Name == "" && raw.AwayTeam.ID == "" {
		return models.MatchRecord{}, &MalformedRecordError{MatchID: raw.MatchID, Reason: "missing team"}
	}

	isHome, isAway := team.Matches(raw.HomeTeam), team.Matches(raw.AwayTeam)
	switch {
	case isHome && isAway:
		return models.MatchRecord{}, &MalformedRecordError{MatchID: raw.MatchID, Reason: "team matches both sides"}
	case !isHome && !isAway:
		return models.MatchRecord{}, &MalformedRecordError{MatchID: raw.MatchID, Reason: fmt.Sprintf("team %q not in fixture", team.Name)}
	}
	if raw.HomeScore == nil || raw.AwayScore == nil {
		return models.MatchRecord{}, &MalformedRecordError{MatchID: raw.MatchID, Reason: "missing final score"}
	}
	if *raw.HomeScore < 0 || *raw.AwayScore < 0 {
		return models.MatchRecord{}, &MalformedRecordError{MatchID: raw.MatchID, Reason: "negative score"}
	}

	provider := strings.ToLower(strings.TrimSpace(raw.Provider))
	if provider == "" {
		provider = models.ProviderSofaScore
	}
	table, ok := providerTables[provider]
	if !ok {
		return models.MatchRecord{}, &MalformedRecordError{MatchID: raw.MatchID, Reason: fmt.Sprintf("unsupported provider %q", raw.Provider)}
	}

	own, opp := raw.HomeTeam, raw.AwayTeam
	goalsFor, goalsAgainst := *raw.HomeScore, *raw.AwayScore
	location := models.LocationHome
	if isAway {
		own, opp = opp, own
		goalsFor, goalsAgainst = goalsAgainst, goalsFor
		location = models.LocationAway
	}

	rec := models.MatchRecord{
		MatchID:  raw.MatchID,
		Date:     raw.Date,
		Team:     own.Name,
		Opponent: opp.Name,
		Location: location,
		Score:    fmt.Sprintf("%d-%d", goalsFor, goalsAgainst),
		Result:   models.ResultFor(goalsFor, goalsAgainst),
	}

	n := &normalizer{rec: &rec, stats: indexStats(raw.Stats), isAway: isAway}
	for _, m := range table.numeric {
		n.readNumeric(m)
	}
	for _, m := range table.categorical {
		n.readCategorical(m)
	}

	rec.SetNum(models.Goals, float64(goalsFor))
	rec.SetNum(models.GoalsConceded, float64(goalsAgainst))

	n.applyFallbacks(table)
	n.applyFormulas(goalsFor, goalsAgainst)
	if raw.Incidents != nil {
		n.applyIncidents(raw.Incidents)
	}

	sort.Slice(rec.EstimatedFields, func(i, j int) bool { return rec.EstimatedFields[i] < rec.EstimatedFields[j] })
	rec.Estimated = len(rec.EstimatedFields) > 0
	return rec, nil
}

type normalizer struct {
	rec    *models.MatchRecord
	stats  map[string]models.RawStat
	isAway bool
}

func normalizeStatName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func indexStats(stats []models.RawStat) map[string]models.RawStat {
	out := make(map[string]models.RawStat, len(stats))
	for _, s := range stats {
		key := normalizeStatName(s.Name)
		if _, seen := out[key]; !seen {
			out[key] = s
		}
	}
	return out
}

func (n *normalizer) value(aliases []string, side statSide) (models.StatValue, bool) {
	for _, alias := range aliases {
		stat, ok := n.stats[alias]
		if !ok {
			continue
		}
		// home/away swap: own side is away when the team played away
		v := stat.Home
		if (side == sideOwn) == n.isAway {
			v = stat.Away
		}
		if v.Present() {
			return v, true
		}
	}
	return models.StatValue{}, false
}

func (n *normalizer) readNumeric(m statMapping) {
	v, ok := n.value(m.aliases, m.side)
	if !ok {
		return
	}
	var (
		f      float64
		parsed bool
	)
	switch m.part {
	case partPercent:
		f, parsed = v.Percent()
	case partDenominator:
		f, parsed = v.Denominator()
	default:
		f, parsed = v.Number()
	}
	if parsed {
		n.rec.SetNum(m.path, f)
	}
}

func (n *normalizer) readCategorical(m categoryMapping) {
	if v, ok := n.value(m.aliases, sideOwn); ok {
		n.rec.SetCat(m.path, v.Raw)
	}
}

func (n *normalizer) estimate(path models.FieldPath, value float64) {
	if n.rec.SetNum(path, value) {
		n.rec.EstimatedFields = append(n.rec.EstimatedFields, path)
	}
}

// applyFallbacks approximates missing direct statistics. Each one marks the record estimated.
func (n *normalizer) applyFallbacks(table providerTable) {
	rec := n.rec
	if _, ok := rec.Num(models.PassAccuracy); !ok {
		total, okT := rec.Num(models.TotalPasses)
		accurate, okA := rec.Num(models.AccuratePasses)
		if okT && okA && total > 0 {
			n.estimate(models.PassAccuracy, accurate/total*100)
		}
	}

	if _, ok := rec.Num(models.PPDA); !ok {
		// Opponent passes per own defensive action over the whole pitch.
		oppPasses, okP := n.value(table.passAliases, sideOpponent)
		if okP {
			passes, parsed := oppPasses.Number()
			var actions float64
			for _, p := range []models.FieldPath{models.TacklesAttempted, models.Interceptions, models.FoulsCommitted} {
				if v, ok := rec.Num(p); ok {
					actions += v
				}
			}
			if parsed && actions > 0 {
				n.estimate(models.PPDA, passes/actions)
			}
		}
	}

	if _, ok := rec.Num(models.XG); !ok {
		if shots, ok := rec.Num(models.TotalShots); ok {
			n.estimate(models.XG, shots*fallbackXGPerShot)
		}
	}
}

// applyFormulas fills fields that are always computed from other fields.
func (n *normalizer) applyFormulas(goalsFor, goalsAgainst int) {
	rec := n.rec

	if shots, ok := rec.Num(models.TotalShots); ok && shots > 0 {
		rec.SetNum(models.ShotConversionRate, float64(goalsFor)/shots*100)
		if xg, ok := rec.Num(models.XG); ok && !n.isEstimated(models.XG) {
			rec.SetNum(models.XGPerShot, xg/shots)
		}
	}

	if passes, ok := rec.Num(models.TotalPasses); ok {
		perMinute := passes / matchMinutes
		rec.SetNum(models.PassesPerMinute, perMinute)
		switch {
		case perMinute >= tempoHighPassesPerMin:
			rec.SetCat(models.TempoRating, "High")
		case perMinute >= tempoMedPassesPerMin:
			rec.SetCat(models.TempoRating, "Medium")
		default:
			rec.SetCat(models.TempoRating, "Low")
		}
	}

	if attempted, ok := rec.Num(models.TacklesAttempted); ok && attempted > 0 {
		if won, ok := rec.Num(models.TacklesWon); ok {
			rec.SetNum(models.TackleSuccessRate, won/attempted*100)
		}
	}

	if ppda, ok := rec.Num(models.PPDA); ok {
		switch {
		case ppda < pressingHighPPDA:
			rec.SetCat(models.PressingIntensity, "High")
		case ppda < pressingMediumPPDA:
			rec.SetCat(models.PressingIntensity, "Medium")
		default:
			rec.SetCat(models.PressingIntensity, "Low")
		}
	}

	conceded := float64(goalsAgainst)
	shotsConceded, hasShots := rec.Num(models.ShotsConceded)
	switch {
	case conceded >= vulnerableConceded || hasShots && shotsConceded >= vulnerableShots:
		rec.SetCat(models.DefensiveRating, "Vulnerable")
	case conceded == 0 && (!hasShots || shotsConceded <= solidShotsConceded):
		rec.SetCat(models.DefensiveRating, "Solid")
	default:
		rec.SetCat(models.DefensiveRating, "Average")
	}

	if xg, ok := rec.Num(models.XGConcededFromSetPieces); ok {
		switch {
		case xg >= setPieceHighXG:
			rec.SetCat(models.SetPieceWeakness, "High")
		case xg >= setPieceMediumXG:
			rec.SetCat(models.SetPieceWeakness, "Medium")
		default:
			rec.SetCat(models.SetPieceWeakness, "Low")
		}
	}

	switch {
	case goalsFor > goalsAgainst:
		rec.SetCat(models.ScorelineState, "Winning")
	case goalsFor < goalsAgainst:
		rec.SetCat(models.ScorelineState, "Losing")
	default:
		rec.SetCat(models.ScorelineState, "Drawing")
	}
}

func (n *normalizer) isEstimated(p models.FieldPath) bool {
	for _, e := range n.rec.EstimatedFields {
		if e == p {
			return true
		}
	}
	return false
}

// applyIncidents derives late-game context from goal timings.
func (n *normalizer) applyIncidents(incidents []models.RawIncident) {
	var lateFor, lateAgainst float64
	for _, inc := range incidents {
		if !strings.EqualFold(inc.Type, "goal") || inc.Minute < lateGoalMinute {
			continue
		}
		if inc.IsHome != n.isAway {
			lateFor++
		} else {
			lateAgainst++
		}
	}
	rec := n.rec
	rec.SetNum(models.LateGoalsScored, lateFor)
	rec.SetNum(models.LateGoalsConceded, lateAgainst)

	switch {
	case lateFor > lateAgainst:
		rec.SetCat(models.GameMomentum, "Strong finish")
	case lateAgainst > lateFor:
		rec.SetCat(models.GameMomentum, "Faded late")
	default:
		rec.SetCat(models.GameMomentum, "Stable")
	}
	if lateAgainst > 0 {
		rec.SetCat(models.FatigueIndicators, "High")
	} else {
		rec.SetCat(models.FatigueIndicators, "Low")
	}
}
