package logic

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/openmohaa/tactical-api/internal/models"
)

// Scorer produces an optional signal the engine consults when ranking items.
// A nil signal with a nil error means the scorer has nothing to say.
type Scorer interface {
	Name() string
	Version() string
	Predict(ctx context.Context, window []models.MatchRecord) (*models.MLSignal, error)
}

// Scorer names
const (
	ScorerRuleOnly   = "rule_only"
	ScorerMLAssisted = "ml_assisted"
)

// Form features computed from the window rather than read from a field.
const (
	FeatureFormPointsPerGame = "form.points_per_game"
	FeatureFormWinRate       = "form.win_rate"
	FeatureFormGoalsFor      = "form.goals_for_avg"
	FeatureFormGoalsAgainst  = "form.goals_against_avg"
)

// Risk bands over risk_score
const (
	riskHighFrom   = 62.0
	riskMediumFrom = 42.0
)

// RuleOnlyScorer never emits a signal.
type RuleOnlyScorer struct{}

func (RuleOnlyScorer) Name() string    { return ScorerRuleOnly }
func (RuleOnlyScorer) Version() string { return "" }

func (RuleOnlyScorer) Predict(context.Context, []models.MatchRecord) (*models.MLSignal, error) {
	return nil, nil
}

// LinearHead is an affine regressor over standardized features.
type LinearHead struct {
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
}

// MLModel is the on-disk model: a multinomial logistic head over W/D/L and
// two linear goal heads, all sharing the same standardization.
type MLModel struct {
	Version      string      `yaml:"model_version"`
	Features     []string    `yaml:"features"`
	Means        []float64   `yaml:"means"`
	Scales       []float64   `yaml:"scales"`
	Classes      []string    `yaml:"classes"`
	Intercepts   []float64   `yaml:"intercepts"`
	Coefficients [][]float64 `yaml:"coefficients"`
	GoalsFor     LinearHead  `yaml:"goals_for"`
	GoalsAgainst LinearHead  `yaml:"goals_against"`
}

var formFeatures = map[string]bool{
	FeatureFormPointsPerGame: true,
	FeatureFormWinRate:       true,
	FeatureFormGoalsFor:      true,
	FeatureFormGoalsAgainst:  true,
}

// Validate checks that every vector agrees with the feature list.
func (m *MLModel) Validate() error {
	n := len(m.Features)
	switch {
	case n == 0:
		return &ConfigurationError{Field: "ml.features", Reason: "empty"}
	case len(m.Means) != n || len(m.Scales) != n:
		return &ConfigurationError{Field: "ml.means", Reason: "means and scales must match features"}
	case len(m.Classes) == 0 || len(m.Intercepts) != len(m.Classes) || len(m.Coefficients) != len(m.Classes):
		return &ConfigurationError{Field: "ml.classes", Reason: "intercepts and coefficients must match classes"}
	case len(m.GoalsFor.Coefficients) != n || len(m.GoalsAgainst.Coefficients) != n:
		return &ConfigurationError{Field: "ml.goals", Reason: "goal heads must match features"}
	}
	for i, row := range m.Coefficients {
		if len(row) != n {
			return &ConfigurationError{Field: fmt.Sprintf("ml.coefficients[%d]", i), Reason: "must match features"}
		}
	}
	for i, f := range m.Features {
		if formFeatures[f] {
			continue
		}
		if spec, ok := models.LookupField(models.FieldPath(f)); !ok || spec.Kind != models.KindNumeric {
			return &ConfigurationError{Field: fmt.Sprintf("ml.features[%d]", i), Reason: fmt.Sprintf("unknown numeric field %q", f)}
		}
	}
	return nil
}

// MLAssistedScorer runs an MLModel over the most recent matches.
type MLAssistedScorer struct {
	model     *MLModel
	window    int
	minWindow int
}

// NewMLScorer wraps a validated model.
func NewMLScorer(m *MLModel, t Tuning) (*MLAssistedScorer, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &MLAssistedScorer{model: m, window: t.MLWindowSize, minWindow: t.MLMinMatches}, nil
}

// LoadMLScorer reads a YAML model file.
func LoadMLScorer(path string, t Tuning) (*MLAssistedScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Field: "ML_MODEL_PATH", Reason: err.Error()}
	}
	var m MLModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ConfigurationError{Field: "ML_MODEL_PATH", Reason: err.Error()}
	}
	return NewMLScorer(&m, t)
}

func (s *MLAssistedScorer) Name() string    { return ScorerMLAssisted }
func (s *MLAssistedScorer) Version() string { return s.model.Version }

// Predict uses the first window records (most recent first). Fewer than the
// minimum yields no signal.
func (s *MLAssistedScorer) Predict(ctx context.Context, window []models.MatchRecord) (*models.MLSignal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(window) > s.window {
		window = window[:s.window]
	}
	if len(window) < s.minWindow {
		return nil, nil
	}

	x := s.standardize(featureVector(s.model.Features, window))

	logits := make([]float64, len(s.model.Classes))
	for i, row := range s.model.Coefficients {
		logits[i] = s.model.Intercepts[i] + floats.Dot(row, x)
	}
	probs := softmax(logits)

	sig := &models.MLSignal{
		ModelVersion: s.model.Version,
		WindowSize:   len(window),
	}
	best := 0
	for i, class := range s.model.Classes {
		switch strings.ToUpper(class) {
		case models.ResultWin:
			sig.PWin = probs[i]
		case models.ResultDraw:
			sig.PDraw = probs[i]
		case models.ResultLoss:
			sig.PLoss = probs[i]
		}
		if probs[i] > probs[best] {
			best = i
		}
	}
	sig.ResultTendency = strings.ToUpper(s.model.Classes[best])
	sig.ExpectedGoalsFor = math.Max(0, s.model.GoalsFor.Intercept+floats.Dot(s.model.GoalsFor.Coefficients, x))
	sig.ExpectedGoalsAgainst = math.Max(0, s.model.GoalsAgainst.Intercept+floats.Dot(s.model.GoalsAgainst.Coefficients, x))

	sig.RiskScore = round1(clamp(sig.PWin*100+sig.ExpectedGoalsFor*15-sig.ExpectedGoalsAgainst*7.5, 0, 100))
	switch {
	case sig.RiskScore >= riskHighFrom:
		sig.RiskLevel = models.RiskHigh
	case sig.RiskScore >= riskMediumFrom:
		sig.RiskLevel = models.RiskMedium
	default:
		sig.RiskLevel = models.RiskLow
	}
	return sig, nil
}

// standardize scales raw features; missing ones sit at the training mean.
func (s *MLAssistedScorer) standardize(raw []*float64) []float64 {
	x := make([]float64, len(raw))
	for i, v := range raw {
		if v == nil || s.model.Scales[i] == 0 {
			continue
		}
		x[i] = (*v - s.model.Means[i]) / s.model.Scales[i]
	}
	return x
}

// featureVector averages each feature over the window. nil means no match supplied it.
func featureVector(features []string, window []models.MatchRecord) []*float64 {
	form := summarizeForm(window)
	played := float64(form.Wins + form.Draws + form.Losses)

	out := make([]*float64, len(features))
	for i, name := range features {
		var v float64
		switch name {
		case FeatureFormPointsPerGame:
			if played == 0 {
				continue
			}
			v = form.PointsPerGame
		case FeatureFormWinRate:
			if played == 0 {
				continue
			}
			v = float64(form.Wins) / played
		case FeatureFormGoalsFor:
			if played == 0 {
				continue
			}
			v = form.GoalsForPerGame
		case FeatureFormGoalsAgainst:
			if played == 0 {
				continue
			}
			v = form.GoalsAgainstPerGame
		default:
			var (
				sum float64
				n   int
			)
			for j := range window {
				if val, ok := window[j].Num(models.FieldPath(name)); ok {
					sum += val
					n++
				}
			}
			if n == 0 {
				continue
			}
			v = sum / float64(n)
		}
		out[i] = &v
	}
	return out
}

func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	m := floats.Max(logits)
	var sum float64
	for i, z := range logits {
		out[i] = math.Exp(z - m)
		sum += out[i]
	}
	floats.Scale(1/sum, out)
	return out
}
