package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
)

// WarmerConfig configures the scheduled plan refresh.
type WarmerConfig struct {
	Service   logic.TacticalService
	Directory logic.TeamDirectory
	// Opponents are "id:Name" pairs or bare names resolved through Directory.
	Opponents []string
	Schedule  string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Warmer rebuilds the cached plans of upcoming opponents on a cron schedule
// so the first dashboard request is served from cache.
type Warmer struct {
	config  WarmerConfig
	cron    *cron.Cron
	logger  *zap.SugaredLogger
	mu      sync.Mutex
	running bool
}

func NewWarmer(cfg WarmerConfig) *Warmer {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 6 * * *"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Warmer{
		config: cfg,
		cron:   cron.New(),
		logger: cfg.Logger.Sugar(),
	}
}

// Start schedules the refresh job. It is a no-op when no opponents are configured.
func (w *Warmer) Start(ctx context.Context) error {
	if len(w.config.Opponents) == 0 {
		return nil
	}
	if _, err := w.cron.AddFunc(w.config.Schedule, func() {
		w.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule plan warm-up: %w", err)
	}
	w.cron.Start()
	w.logger.Infow("Plan warm-up scheduled", "schedule", w.config.Schedule, "opponents", len(w.config.Opponents))
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
}

// RunOnce refreshes every configured opponent and returns how many plans
// were rebuilt. Overlapping runs are skipped.
func (w *Warmer) RunOnce(ctx context.Context) int {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Warn("Plan warm-up still running, skipping")
		return 0
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	built := 0
	for _, entry := range w.config.Opponents {
		if ctx.Err() != nil {
			break
		}
		opponent, err := w.resolve(ctx, entry)
		if err != nil {
			w.logger.Warnw("Failed to resolve warm-up opponent", "opponent", entry, "error", err)
			continue
		}

		jobCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		_, err = w.config.Service.BuildPlan(jobCtx, logic.PlanRequest{Opponent: opponent, Refresh: true})
		cancel()
		if err != nil {
			w.logger.Warnw("Plan warm-up failed", "opponentID", opponent.ID, "error", err)
			continue
		}
		built++
	}
	w.logger.Infow("Plan warm-up finished", "built", built, "configured", len(w.config.Opponents))
	return built
}

func (w *Warmer) resolve(ctx context.Context, entry string) (models.TeamIdentity, error) {
	entry = strings.TrimSpace(entry)
	if id, name, ok := strings.Cut(entry, ":"); ok {
		return models.TeamIdentity{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)}, nil
	}
	if w.config.Directory == nil {
		return models.TeamIdentity{}, fmt.Errorf("no team directory to resolve %q", entry)
	}
	teams, err := w.config.Directory.Resolve(ctx, entry)
	if err != nil {
		return models.TeamIdentity{}, err
	}
	if len(teams) == 0 {
		return models.TeamIdentity{}, fmt.Errorf("no team matches %q", entry)
	}
	return teams[0], nil
}
