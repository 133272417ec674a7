package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/openmohaa/tactical-api/internal/models"
)

// Prometheus metrics
var (
	plansServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tactical_plans_served_total",
		Help: "Tactical plans served, by data source",
	}, []string{"source"})

	malformedSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tactical_malformed_matches_skipped_total",
		Help: "Raw matches skipped because they could not be normalized",
	})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tactical_fetch_failures_total",
		Help: "Match source failures, by source",
	}, []string{"source"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tactical_pipeline_duration_seconds",
		Help:    "Time to build a tactical plan from fetch to recommendation",
		Buckets: prometheus.DefBuckets,
	})
)

// DefaultCacheTTL is how long a plan built without observations is served from cache.
const DefaultCacheTTL = 24 * time.Hour

// PlanRequest identifies the opponent and any fresh observations.
type PlanRequest struct {
	Opponent     models.TeamIdentity
	Observations []models.Observation
	Refresh      bool
}

// ServiceConfig wires the pipeline's capabilities.
type ServiceConfig struct {
	Team     models.TeamIdentity
	Source   MatchSource
	Cache    PlanCache
	Recorder PlanRecorder
	Scorer   Scorer
	Rules    *RuleSet
	Tuning   Tuning
	CacheTTL time.Duration
	Logger   *zap.Logger
	Now      func() time.Time
}

type tacticalService struct {
	team     models.TeamIdentity
	source   MatchSource
	cache    PlanCache
	recorder PlanRecorder
	scorer   Scorer
	engine   *Engine
	tuning   Tuning
	ttl      time.Duration
	logger   *zap.SugaredLogger
	now      func() time.Time
	group    singleflight.Group
}

func NewTacticalService(cfg ServiceConfig) TacticalService {
	if cfg.Scorer == nil {
		cfg.Scorer = RuleOnlyScorer{}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &tacticalService{
		team:     cfg.Team,
		source:   cfg.Source,
		cache:    cfg.Cache,
		recorder: cfg.Recorder,
		scorer:   cfg.Scorer,
		engine:   NewEngine(cfg.Rules, cfg.Tuning),
		tuning:   cfg.Tuning,
		ttl:      cfg.CacheTTL,
		logger:   cfg.Logger.Sugar(),
		now:      cfg.Now,
	}
}

func (s *tacticalService) PlanKey(opponentID string) string {
	return s.team.ID + "_" + opponentID
}

func (s *tacticalService) ScorerInfo() (string, string) {
	return s.scorer.Name(), s.scorer.Version()
}

// BuildPlan serves a cached plan when the request carries no observations and
// Refresh is unset. Concurrent identical builds share one pipeline run.
func (s *tacticalService) BuildPlan(ctx context.Context, req PlanRequest) (*models.TacticalPlan, error) {
	if req.Opponent.ID == "" {
		return nil, fmt.Errorf("opponent id is required")
	}
	if len(FilterObservations(req.Observations)) > 0 {
		return s.Recalibrate(ctx, req)
	}

	key := s.PlanKey(req.Opponent.ID)
	if !req.Refresh && s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warnw("Plan cache read failed", "key", key, "error", err)
		} else if cached != nil {
			cached.DataSource = models.SourceCache
			plansServed.WithLabelValues(models.SourceCache).Inc()
			return cached, nil
		}
	}

	// The shared build must outlive any single caller that joins it.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		plan, fetched, err := s.run(shared, req)
		if err != nil {
			return nil, err
		}
		if fetched && s.cache != nil {
			if err := s.cache.Set(shared, key, plan, s.ttl); err != nil {
				s.logger.Warnw("Plan cache write failed", "key", key, "error", err)
			}
		}
		return plan, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		plan := *res.Val.(*models.TacticalPlan)
		return &plan, nil
	}
}

// Recalibrate always recomputes and never touches the cache.
func (s *tacticalService) Recalibrate(ctx context.Context, req PlanRequest) (*models.TacticalPlan, error) {
	if req.Opponent.ID == "" {
		return nil, fmt.Errorf("opponent id is required")
	}
	plan, _, err := s.run(ctx, req)
	return plan, err
}

// Foundation returns the aggregated opponent profile without recommendations.
func (s *tacticalService) Foundation(ctx context.Context, opponent models.TeamIdentity) (*models.TacticalFoundation, error) {
	records, fetched, err := s.records(ctx, opponent)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &InsufficientDataError{TeamID: opponent.ID, Fetched: fetched, Skipped: fetched}
	}
	f := Aggregate(records)
	return &f, nil
}

// run executes the pipeline. fetched is false when the match source failed
// and the plan was built from observations alone.
func (s *tacticalService) run(ctx context.Context, req PlanRequest) (*models.TacticalPlan, bool, error) {
	start := s.now()
	defer func() { pipelineDuration.Observe(time.Since(start).Seconds()) }()

	var notes []string
	fetched := true
	records, raw, err := s.records(ctx, req.Opponent)
	if err != nil {
		var fetchErr *ExternalFetchError
		if !errors.As(err, &fetchErr) {
			return nil, false, err
		}
		fetched = false
		notes = append(notes, fetchErr.Error())
	}

	foundation := Aggregate(records)
	if foundation.MatchesAnalyzed == 0 && fetched {
		notes = append(notes, (&InsufficientDataError{TeamID: req.Opponent.ID, Fetched: raw, Skipped: raw}).Error())
	}

	blended := Blend(foundation, req.Observations, s.tuning)
	confidence := ScoreConfidence(foundation, req.Observations, blended, s.tuning)

	signal, err := s.scorer.Predict(ctx, records)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		s.logger.Warnw("Scorer failed, continuing rule-only", "scorer", s.scorer.Name(), "opponentID", req.Opponent.ID, "error", err)
		notes = append(notes, "ML signal unavailable: "+err.Error())
		signal = nil
	}

	plan := s.engine.Recommend(blended, confidence, req.Opponent.Name, signal)
	plan.PlanID = uuid.NewString()
	plan.GeneratedAt = s.now().UTC()
	plan.Team = s.team.Name
	plan.OpponentID = req.Opponent.ID
	plan.DataSource = models.SourceComputed
	plan.Scorer = s.scorer.Name()
	if foundation.MatchesAnalyzed > 0 {
		form := foundation.Form
		plan.Form = &form
	}
	plan.DataNotes = append(append([]string{}, notes...), plan.DataNotes...)

	plansServed.WithLabelValues(models.SourceComputed).Inc()
	if s.recorder != nil && !s.recorder.Record(&plan) {
		s.logger.Warnw("Plan history queue full, dropping record", "planID", plan.PlanID)
	}

	s.logger.Infow("Tactical plan built",
		"opponentID", req.Opponent.ID,
		"matches", foundation.MatchesAnalyzed,
		"observations", blended.ObservationCount,
		"confidence", confidence.OverallConfidence,
		"reliability", confidence.RecommendationReliability,
		"items", plan.ItemCount(),
	)
	return &plan, fetched, nil
}

// records fetches and normalizes the opponent's window, skipping malformed
// matches. fetched is the number of raw matches the source returned.
func (s *tacticalService) records(ctx context.Context, opponent models.TeamIdentity) ([]models.MatchRecord, int, error) {
	if s.source == nil {
		return nil, 0, &ExternalFetchError{Source: "none", TeamID: opponent.ID, Err: errors.New("no match source configured")}
	}
	raws, err := s.source.RecentMatches(ctx, opponent, s.tuning.WindowSize)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		fetchFailures.WithLabelValues(s.source.Name()).Inc()
		s.logger.Warnw("Match fetch failed", "source", s.source.Name(), "opponentID", opponent.ID, "error", err)
		var fetchErr *ExternalFetchError
		if errors.As(err, &fetchErr) {
			return nil, 0, fetchErr
		}
		return nil, 0, &ExternalFetchError{Source: s.source.Name(), TeamID: opponent.ID, Err: err}
	}

	records := make([]models.MatchRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := Normalize(raw, opponent)
		if err != nil {
			malformedSkipped.Inc()
			s.logger.Warnw("Skipping malformed match", "matchID", raw.MatchID, "opponentID", opponent.ID, "error", err)
			continue
		}
		records = append(records, rec)
		if len(records) == s.tuning.WindowSize {
			break
		}
	}
	return records, len(raws), nil
}
