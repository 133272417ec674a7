// Package worker implements the buffered worker pool that writes plan
// history to ClickHouse off the request path:
// - Backpressure handling via load shedding
// - Batch inserts for efficient ClickHouse writes
// - Graceful shutdown with flush guarantees

package worker

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/openmohaa/tactical-api/internal/models"
)

// Prometheus metrics
var (
	plansRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tactical_history_recorded_total",
		Help: "Total number of plans accepted for history",
	})

	plansWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tactical_history_written_total",
		Help: "Total number of history rows written to ClickHouse",
	})

	plansFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tactical_history_failed_total",
		Help: "Total number of history rows that failed to write",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tactical_history_queue_depth",
		Help: "Current depth of the history queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tactical_history_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})

	plansLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tactical_history_load_shed_total",
		Help: "Total number of plans dropped due to load shedding",
	})
)

const historySchema = `
CREATE TABLE IF NOT EXISTS tactical_plan_history (
	plan_id             UUID,
	created_at          DateTime64(3),
	team                String,
	opponent_id         String,
	opponent            String,
	data_source         LowCardinality(String),
	scorer              LowCardinality(String),
	matches_analyzed    UInt16,
	observation_count   UInt16,
	overall_confidence  UInt8,
	adjusted_confidence Float64,
	reliability         LowCardinality(String),
	risk_level          LowCardinality(String),
	recommended_system  String,
	formation_items     UInt16,
	pressing_items      UInt16,
	zone_items          UInt16,
	role_items          UInt16,
	weakness_items      UInt16,
	critical_weaknesses UInt16,
	substitution_items  UInt16,
	switch_items        UInt16,
	plan_json           String
) ENGINE = MergeTree
ORDER BY (opponent_id, created_at)
TTL toDateTime(created_at) + INTERVAL 1 YEAR
`

// historyColumns is the number of values appended per history row.
const historyColumns = 23

// Job represents a unit of work for the worker pool
type Job struct {
	Plan      *models.TacticalPlan
	PlanJSON  string
	Timestamp time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// Pool manages a pool of workers for async history writes
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// EnsureSchema creates the history table if it does not exist.
func (p *Pool) EnsureSchema(ctx context.Context) error {
	return p.config.ClickHouse.Exec(ctx, historySchema)
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop gracefully shuts down the worker pool, flushing queued plans.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	close(p.jobQueue)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Worker pool stopped")
}

// Record queues a plan for history. It never blocks: when the queue is full
// or the pool is stopping the plan is dropped and false is returned.
func (p *Pool) Record(plan *models.TacticalPlan) bool {
	if plan == nil {
		return false
	}
	planJSON, err := json.Marshal(plan)
	if err != nil {
		p.logger.Warnw("Failed to encode plan for history", "planID", plan.PlanID, "error", err)
		return false
	}

	job := Job{
		Plan:      plan,
		PlanJSON:  string(planJSON),
		Timestamp: time.Now(),
	}

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to record plan (pool stopped)", "error", r)
		}
	}()

	if p.ctx != nil && p.ctx.Err() != nil {
		plansLoadShed.Inc()
		return false
	}

	select {
	case p.jobQueue <- job:
		plansRecorded.Inc()
		return true
	default:
		plansLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch processing failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			plansFailed.Add(float64(len(batch)))
		} else {
			p.logger.Debugw("Batch processed", "worker", id, "batchSize", len(batch), "duration", time.Since(start))
			plansWritten.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// processBatch inserts a batch of history rows
func (p *Pool) processBatch(batch []Job) error {
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO tactical_plan_history (
			plan_id, created_at, team, opponent_id, opponent, data_source, scorer,
			matches_analyzed, observation_count, overall_confidence, adjusted_confidence,
			reliability, risk_level, recommended_system,
			formation_items, pressing_items, zone_items, role_items,
			weakness_items, critical_weaknesses, substitution_items, switch_items,
			plan_json
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		row := toHistoryRow(job)
		err := chBatch.Append(
			row.PlanID,
			row.CreatedAt,
			row.Team,
			row.OpponentID,
			row.Opponent,
			row.DataSource,
			row.Scorer,
			row.MatchesAnalyzed,
			row.ObservationCount,
			row.OverallConfidence,
			row.AdjustedConfidence,
			row.Reliability,
			row.RiskLevel,
			row.RecommendedSystem,
			row.FormationItems,
			row.PressingItems,
			row.ZoneItems,
			row.RoleItems,
			row.WeaknessItems,
			row.CriticalWeaknesses,
			row.SubstitutionItems,
			row.SwitchItems,
			row.PlanJSON,
		)
		if err != nil {
			p.logger.Warnw("Failed to append plan to batch", "error", err, "planID", job.Plan.PlanID)
			continue
		}
	}

	if err := chBatch.Send(); err != nil {
		p.logger.Errorw("Failed to send batch to ClickHouse", "error", err, "batchSize", len(batch))
		return err
	}
	return nil
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}

// historyRow is one tactical_plan_history row.
type historyRow struct {
	PlanID             uuid.UUID
	CreatedAt          time.Time
	Team               string
	OpponentID         string
	Opponent           string
	DataSource         string
	Scorer             string
	MatchesAnalyzed    uint16
	ObservationCount   uint16
	OverallConfidence  uint8
	AdjustedConfidence float64
	Reliability        string
	RiskLevel          string
	RecommendedSystem  string
	FormationItems     uint16
	PressingItems      uint16
	ZoneItems          uint16
	RoleItems          uint16
	WeaknessItems      uint16
	CriticalWeaknesses uint16
	SubstitutionItems  uint16
	SwitchItems        uint16
	PlanJSON           string
}

func toHistoryRow(job Job) historyRow {
	plan := job.Plan
	created := plan.GeneratedAt
	if created.IsZero() {
		created = job.Timestamp
	}

	row := historyRow{
		PlanID:             parseOrGenerateUUID(plan.PlanID),
		CreatedAt:          created,
		Team:               sanitizeName(plan.Team),
		OpponentID:         plan.OpponentID,
		Opponent:           sanitizeName(plan.Opponent),
		DataSource:         plan.DataSource,
		Scorer:             plan.Scorer,
		MatchesAnalyzed:    clampUint16(plan.HistoricalContext.MatchesAnalyzed),
		ObservationCount:   clampUint16(plan.HistoricalContext.ObservationCount),
		OverallConfidence:  uint8(max(0, min(100, plan.AIConfidence.OverallConfidence))),
		AdjustedConfidence: plan.AIConfidence.AdjustedConfidence,
		Reliability:        string(plan.AIConfidence.RecommendationReliability),
		RecommendedSystem:  sanitizeName(plan.CustomizedSuggestions.RecommendedSystem),
		FormationItems:     clampUint16(len(plan.FormationRecommendations.SuggestedChanges)),
		PressingItems:      clampUint16(len(plan.PressingStrategy.Recommendation.PressingRecommendations)),
		ZoneItems:          clampUint16(len(plan.TargetZones.PriorityZones)),
		RoleItems:          clampUint16(len(plan.PlayerRoles.RoleChanges)),
		WeaknessItems:      clampUint16(len(plan.CriticalWeaknesses)),
		SubstitutionItems:  clampUint16(len(plan.SubstitutionStrategy.Recommendations)),
		SwitchItems:        clampUint16(len(plan.InGameSwitches.Recommendations)),
		PlanJSON:           job.PlanJSON,
	}
	if plan.MLSignal != nil {
		row.RiskLevel = plan.MLSignal.RiskLevel
	}
	critical := 0
	for _, w := range plan.CriticalWeaknesses {
		if w.Severity == models.PriorityCritical {
			critical++
		}
	}
	row.CriticalWeaknesses = clampUint16(critical)
	return row
}

// Helper functions

func clampUint16(n int) uint16 {
	return uint16(max(0, min(n, 65535)))
}

// sanitizeName trims a display name and drops control characters.
func sanitizeName(s string) string {
	// Fast path: nothing to strip
	clean := true
	for _, r := range s {
		if unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

func parseOrGenerateUUID(s string) uuid.UUID {
	if id, err := uuid.Parse(s); err == nil {
		return id
	}
	if s == "" {
		return uuid.New()
	}
	// Deterministic UUID from string
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(s))
}
