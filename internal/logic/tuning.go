package logic

import "math"

// Tuning holds every weight and threshold the pipeline reads outside the rules table.
type Tuning struct {
	// Aggregation
	WindowSize   int
	MLWindowSize int
	MLMinMatches int

	// Blending. A fully populated observation weighs ObservationWeight;
	// partial ones are scaled by completeness.
	HistoricalWeight  float64
	ObservationWeight float64

	// Base confidence saturates at ConfidenceCeiling once SaturationMatches are analyzed.
	ConfidenceCeiling float64
	SaturationMatches int
	// Subtracted in full when every match was estimated.
	EstimatedPenalty float64

	ObservationBoostPerObservation float64
	ObservationBoostCap            float64

	// Divergence penalty = min(cap, scale * mean relative drift), where drift
	// for a field is |blended - historical| / max(|historical|, floor).
	DivergencePenaltyScale float64
	DivergencePenaltyCap   float64
	DivergenceFloor        float64

	ReliabilityHigh   float64
	ReliabilityMedium float64

	TopZones int

	BaselineSeason string
}

// DefaultTuning returns the calibrated defaults.
func DefaultTuning() Tuning {
	return Tuning{
		WindowSize:   10,
		MLWindowSize: 5,
		MLMinMatches: 3,

		HistoricalWeight:  3.0,
		ObservationWeight: 1.0,

		ConfidenceCeiling: 90,
		SaturationMatches: 10,
		EstimatedPenalty:  15,

		ObservationBoostPerObservation: 4,
		ObservationBoostCap:            10,

		DivergencePenaltyScale: 60,
		DivergencePenaltyCap:   25,
		DivergenceFloor:        1,

		ReliabilityHigh:   80,
		ReliabilityMedium: 60,

		TopZones: 3,

		BaselineSeason: "2023/24",
	}
}

// Validate fails fast on constants the pipeline cannot run with.
func (t Tuning) Validate() error {
	if field := t.nonFinite(); field != "" {
		return &ConfigurationError{Field: field, Reason: "must be a finite number"}
	}
	switch {
	case t.WindowSize < 1:
		return &ConfigurationError{Field: "WindowSize", Reason: "must be at least 1"}
	case t.MLMinMatches < 1 || t.MLWindowSize < t.MLMinMatches:
		return &ConfigurationError{Field: "MLWindowSize", Reason: "must be >= MLMinMatches >= 1"}
	case t.HistoricalWeight <= 0:
		return &ConfigurationError{Field: "HistoricalWeight", Reason: "must be positive"}
	case t.ObservationWeight <= 0:
		return &ConfigurationError{Field: "ObservationWeight", Reason: "must be positive"}
	case t.ConfidenceCeiling <= 0 || t.ConfidenceCeiling > 100:
		return &ConfigurationError{Field: "ConfidenceCeiling", Reason: "must be in (0,100]"}
	case t.SaturationMatches < 1:
		return &ConfigurationError{Field: "SaturationMatches", Reason: "must be at least 1"}
	case t.EstimatedPenalty < 0 || t.ObservationBoostPerObservation < 0 || t.ObservationBoostCap < 0:
		return &ConfigurationError{Field: "confidence adjustments", Reason: "must not be negative"}
	case t.DivergencePenaltyScale < 0 || t.DivergencePenaltyCap < 0:
		return &ConfigurationError{Field: "DivergencePenalty", Reason: "must not be negative"}
	case t.DivergenceFloor <= 0:
		return &ConfigurationError{Field: "DivergenceFloor", Reason: "must be positive"}
	case t.ReliabilityMedium < 0 || t.ReliabilityHigh > 100:
		return &ConfigurationError{Field: "Reliability", Reason: "thresholds must be in [0,100]"}
	case t.ReliabilityHigh <= t.ReliabilityMedium:
		return &ConfigurationError{Field: "ReliabilityHigh", Reason: "must be greater than ReliabilityMedium"}
	case t.TopZones < 1:
		return &ConfigurationError{Field: "TopZones", Reason: "must be at least 1"}
	}
	return nil
}

func (t Tuning) nonFinite() string {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"HistoricalWeight", t.HistoricalWeight},
		{"ObservationWeight", t.ObservationWeight},
		{"ConfidenceCeiling", t.ConfidenceCeiling},
		{"EstimatedPenalty", t.EstimatedPenalty},
		{"ObservationBoostPerObservation", t.ObservationBoostPerObservation},
		{"ObservationBoostCap", t.ObservationBoostCap},
		{"DivergencePenaltyScale", t.DivergencePenaltyScale},
		{"DivergencePenaltyCap", t.DivergencePenaltyCap},
		{"DivergenceFloor", t.DivergenceFloor},
		{"ReliabilityHigh", t.ReliabilityHigh},
		{"ReliabilityMedium", t.ReliabilityMedium},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return f.name
		}
	}
	return ""
}
