package logic

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openmohaa/tactical-api/internal/models"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Category routes a rule's output into a plan section.
type Category string

const (
	CategoryFormation    Category = "formation"
	CategoryPressing     Category = "pressing"
	CategoryPlayerRole   Category = "player_role"
	CategoryWeakness     Category = "weakness"
	CategorySubstitution Category = "substitution"
	CategoryInGameSwitch Category = "in_game_switch"
	CategorySuggestion   Category = "suggestion"
)

var knownCategories = map[Category]bool{
	CategoryFormation:    true,
	CategoryPressing:     true,
	CategoryPlayerRole:   true,
	CategoryWeakness:     true,
	CategorySubstitution: true,
	CategoryInGameSwitch: true,
	CategorySuggestion:   true,
}

// Suggestion slots
const (
	SlotRecommendedSystem        = "recommended_system"
	SlotAttackZones              = "attack_zones"
	SlotDefensiveVulnerabilities = "defensive_vulnerabilities"
	SlotNeutralizeStrengths      = "neutralize_strengths"
	SlotSetPieceAdjustments      = "set_piece_adjustments"
)

var knownSlots = map[string]bool{
	SlotRecommendedSystem:        true,
	SlotAttackZones:              true,
	SlotDefensiveVulnerabilities: true,
	SlotNeutralizeStrengths:      true,
	SlotSetPieceAdjustments:      true,
}

// Stance marks which side of the game a rule addresses; the ML signal escalates by stance.
const (
	StanceAttacking = "attacking"
	StanceDefensive = "defensive"
)

// Predicate compares a profile value against a threshold.
type Predicate string

const (
	OpLess         Predicate = "lt"
	OpLessEqual    Predicate = "lte"
	OpGreater      Predicate = "gt"
	OpGreaterEqual Predicate = "gte"
	OpEquals       Predicate = "eq"
	OpNotEquals    Predicate = "ne"
)

// Condition is one (field_path, predicate, threshold) clause.
type Condition struct {
	Field     models.FieldPath `yaml:"field"`
	Op        Predicate        `yaml:"op"`
	Threshold float64          `yaml:"threshold"`
	Equals    string           `yaml:"equals"`
}

// Evaluate tests the condition. present is false when the field is null,
// in which case the rule must be skipped.
func (c Condition) Evaluate(p models.Profile) (fired, present bool) {
	if c.Op == OpEquals || c.Op == OpNotEquals {
		v, ok := p.Cat(c.Field)
		if !ok {
			return false, false
		}
		eq := strings.EqualFold(strings.TrimSpace(v), c.Equals)
		return eq == (c.Op == OpEquals), true
	}
	v, ok := p.Num(c.Field)
	if !ok {
		return false, false
	}
	switch c.Op {
	case OpLess:
		return v < c.Threshold, true
	case OpLessEqual:
		return v <= c.Threshold, true
	case OpGreater:
		return v > c.Threshold, true
	case OpGreaterEqual:
		return v >= c.Threshold, true
	}
	return false, true
}

// describe renders the clause with the observed value for traceability.
func (c Condition) describe(p models.Profile) string {
	if c.Op == OpEquals || c.Op == OpNotEquals {
		v, _ := p.Cat(c.Field)
		sym := "=="
		if c.Op == OpNotEquals {
			sym = "!="
		}
		return fmt.Sprintf("%s=%s %s %s", c.Field, v, sym, c.Equals)
	}
	v, _ := p.Num(c.Field)
	return fmt.Sprintf("%s=%s %s %s", c.Field, formatValue(v), opSymbol[c.Op], formatValue(c.Threshold))
}

var opSymbol = map[Predicate]string{
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
}

func formatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// LineBand computes a pressing line-height band from a numeric field:
// low = clamp(base + (pivot - value) * per_unit, min, max - width).
type LineBand struct {
	Field   models.FieldPath `yaml:"field"`
	Pivot   float64          `yaml:"pivot"`
	Base    float64          `yaml:"base"`
	PerUnit float64          `yaml:"per_unit"`
	Width   float64          `yaml:"width"`
	Min     float64          `yaml:"min"`
	Max     float64          `yaml:"max"`
}

func (l LineBand) render(p models.Profile) (string, bool) {
	v, ok := p.Num(l.Field)
	if !ok {
		return "", false
	}
	low := clamp(l.Base+(l.Pivot-v)*l.PerUnit, l.Min, l.Max-l.Width)
	low = math.Round(low)
	return fmt.Sprintf("%.0f-%.0fm", low, low+l.Width), true
}

// Rule is one row of the rules table. All clauses in When must hold.
type Rule struct {
	ID         string          `yaml:"id"`
	Category   Category        `yaml:"category"`
	Topic      string          `yaml:"topic"`
	When       []Condition     `yaml:"when"`
	Severity   models.Priority `yaml:"severity"`
	Title      string          `yaml:"title"`
	Template   string          `yaml:"template"`
	Expected   string          `yaml:"expected"`
	TargetLine string          `yaml:"target_line"`
	LineBand   *LineBand       `yaml:"line_band"`
	Timing     string          `yaml:"timing"`
	Position   string          `yaml:"position"`
	Stance     string          `yaml:"stance"`
}

// Match evaluates every clause. ok is false when any required field is null.
func (r Rule) Match(p models.Profile) (fired, ok bool) {
	for _, c := range r.When {
		f, present := c.Evaluate(p)
		if !present {
			return false, false
		}
		if !f {
			return false, true
		}
	}
	return true, true
}

// Trigger describes every clause with the values that fired it.
func (r Rule) Trigger(p models.Profile) string {
	parts := make([]string, len(r.When))
	for i, c := range r.When {
		parts[i] = c.describe(p)
	}
	return strings.Join(parts, " AND ")
}

// Render fills {value}, {threshold}, {field} and {opponent} from the first clause.
func (r Rule) Render(tmpl string, p models.Profile, opponent string) string {
	if tmpl == "" {
		return ""
	}
	first := r.When[0]
	value := ""
	if v, ok := p.Num(first.Field); ok {
		value = formatValue(v)
	} else if v, ok := p.Cat(first.Field); ok {
		value = v
	}
	threshold := first.Equals
	if threshold == "" {
		threshold = formatValue(first.Threshold)
	}
	return strings.NewReplacer(
		"{value}", value,
		"{threshold}", threshold,
		"{field}", string(first.Field),
		"{opponent}", opponent,
	).Replace(tmpl)
}

// ZoneSignal adds Weight to a zone's score when its clause fires.
type ZoneSignal struct {
	Condition `yaml:",inline"`
	Weight    float64 `yaml:"weight"`
}

// ZoneRule is one candidate exploitation zone.
type ZoneRule struct {
	Zone         string       `yaml:"zone"`
	AttackMethod string       `yaml:"attack_method"`
	Expected     string       `yaml:"expected"`
	Signals      []ZoneSignal `yaml:"signals"`
}

// PhaseRule sets guidance for a phase key (in_possession, out_possession,
// transitions, or a minute band such as 75-90). Rows without When are the
// defaults; the first firing row with When overrides them.
type PhaseRule struct {
	ID       string      `yaml:"id"`
	Key      string      `yaml:"key"`
	Guidance string      `yaml:"guidance"`
	When     []Condition `yaml:"when"`
}

// PhaseBands is the fixed set of minute bands in kickoff order.
var PhaseBands = []string{"0-15", "15-30", "30-45", "45-60", "60-75", "75-90"}

// Phase summary keys
const (
	PhaseInPossession  = "in_possession"
	PhaseOutPossession = "out_possession"
	PhaseTransitions   = "transitions"
)

// RuleSet is the parsed rules table.
type RuleSet struct {
	Version int         `yaml:"version"`
	Rules   []Rule      `yaml:"rules"`
	Zones   []ZoneRule  `yaml:"zones"`
	Phases  []PhaseRule `yaml:"phases"`
}

// DefaultRules parses the embedded rules table.
func DefaultRules() (*RuleSet, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRulesFile parses a rules table from disk.
func LoadRulesFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Field: "RULES_PATH", Reason: err.Error()}
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a rules table.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, &ConfigurationError{Field: "rules", Reason: err.Error()}
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate rejects rows that reference unknown fields or malformed clauses.
func (rs *RuleSet) Validate() error {
	ids := make(map[string]bool)
	for i, r := range rs.Rules {
		where := fmt.Sprintf("rules[%d]", i)
		if r.ID == "" {
			return &ConfigurationError{Field: where, Reason: "missing id"}
		}
		if ids[r.ID] {
			return &ConfigurationError{Field: where, Reason: "duplicate id " + r.ID}
		}
		ids[r.ID] = true
		where = "rule " + r.ID
		if !knownCategories[r.Category] {
			return &ConfigurationError{Field: where, Reason: fmt.Sprintf("unknown category %q", r.Category)}
		}
		if r.Category == CategorySuggestion && !knownSlots[r.Topic] {
			return &ConfigurationError{Field: where, Reason: fmt.Sprintf("unknown suggestion slot %q", r.Topic)}
		}
		if r.Category == CategoryWeakness && r.Topic == "" {
			return &ConfigurationError{Field: where, Reason: "weakness rows need a topic"}
		}
		if r.Category != CategorySuggestion && !r.Severity.Valid() {
			return &ConfigurationError{Field: where, Reason: fmt.Sprintf("invalid severity %q", r.Severity)}
		}
		if r.Title == "" {
			return &ConfigurationError{Field: where, Reason: "missing title"}
		}
		if err := validateConditions(where, r.When, true); err != nil {
			return err
		}
		if r.LineBand != nil {
			if spec, ok := models.LookupField(r.LineBand.Field); !ok || spec.Kind != models.KindNumeric {
				return &ConfigurationError{Field: where, Reason: fmt.Sprintf("line band field %q is not numeric", r.LineBand.Field)}
			}
			if r.LineBand.Width <= 0 || r.LineBand.Max-r.LineBand.Width < r.LineBand.Min {
				return &ConfigurationError{Field: where, Reason: "line band width must fit between min and max"}
			}
		}
		if r.Stance != "" && r.Stance != StanceAttacking && r.Stance != StanceDefensive {
			return &ConfigurationError{Field: where, Reason: fmt.Sprintf("unknown stance %q", r.Stance)}
		}
	}

	for i, z := range rs.Zones {
		where := fmt.Sprintf("zones[%d]", i)
		if z.Zone == "" || len(z.Signals) == 0 {
			return &ConfigurationError{Field: where, Reason: "zone needs a name and signals"}
		}
		for _, s := range z.Signals {
			if s.Weight <= 0 {
				return &ConfigurationError{Field: where, Reason: "signal weight must be positive"}
			}
			if err := validateConditions(where, []Condition{s.Condition}, true); err != nil {
				return err
			}
		}
	}

	validKeys := map[string]bool{PhaseInPossession: true, PhaseOutPossession: true, PhaseTransitions: true}
	for _, b := range PhaseBands {
		validKeys[b] = true
	}
	for i, ph := range rs.Phases {
		where := fmt.Sprintf("phases[%d]", i)
		if !validKeys[ph.Key] {
			return &ConfigurationError{Field: where, Reason: fmt.Sprintf("unknown phase key %q", ph.Key)}
		}
		if ph.Guidance == "" {
			return &ConfigurationError{Field: where, Reason: "missing guidance"}
		}
		if err := validateConditions(where, ph.When, false); err != nil {
			return err
		}
	}
	return nil
}

func validateConditions(where string, conds []Condition, required bool) error {
	if required && len(conds) == 0 {
		return &ConfigurationError{Field: where, Reason: "needs at least one condition"}
	}
	for _, c := range conds {
		spec, ok := models.LookupField(c.Field)
		if !ok {
			return &ConfigurationError{Field: where, Reason: fmt.Sprintf("unknown field %q", c.Field)}
		}
		switch c.Op {
		case OpEquals, OpNotEquals:
			if spec.Kind != models.KindCategorical || c.Equals == "" {
				return &ConfigurationError{Field: where, Reason: fmt.Sprintf("%s on %s needs a categorical field and equals", c.Op, c.Field)}
			}
		case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
			if spec.Kind != models.KindNumeric {
				return &ConfigurationError{Field: where, Reason: fmt.Sprintf("%s on %s needs a numeric field", c.Op, c.Field)}
			}
		default:
			return &ConfigurationError{Field: where, Reason: fmt.Sprintf("unknown predicate %q", c.Op)}
		}
	}
	return nil
}
