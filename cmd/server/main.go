package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openmohaa/tactical-api/internal/cache"
	"github.com/openmohaa/tactical-api/internal/config"
	"github.com/openmohaa/tactical-api/internal/handlers"
	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
	"github.com/openmohaa/tactical-api/internal/provider"
	"github.com/openmohaa/tactical-api/internal/store"
	"github.com/openmohaa/tactical-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if err := run(cfg, logger); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	sugar := logger.Sugar()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rules and scorer fail fast before any connection is opened
	rules, err := loadRules(cfg.RulesPath)
	if err != nil {
		return err
	}
	var scorer logic.Scorer = logic.RuleOnlyScorer{}
	if cfg.MLModelPath != "" {
		ml, err := logic.LoadMLScorer(cfg.MLModelPath, cfg.Tuning)
		if err != nil {
			return err
		}
		scorer = ml
		sugar.Infow("ML scorer loaded", "path", cfg.MLModelPath, "version", ml.Version())
	}

	checks := map[string]handlers.Check{}
	installers := map[string]handlers.Check{}

	// Plan cache
	var planCache interface {
		logic.PlanCache
		logic.CacheAdmin
	}
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return &logic.ConfigurationError{Field: "REDIS_URL", Reason: err.Error()}
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Warnw("Redis not reachable at startup", "error", err)
		}
		planCache = cache.NewRedisPlanCache(rdb, cfg.CacheTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		sugar.Info("REDIS_URL not set, using in-memory plan cache")
		planCache = cache.NewMemoryPlanCache(cfg.CacheTTL)
	}

	// Match sources
	sofa := provider.NewSofaScoreClient(provider.SofaScoreConfig{
		BaseURL:           cfg.SofaScoreBaseURL,
		Timeout:           cfg.SofaScoreTimeout,
		RequestsPerSecond: cfg.SofaScoreRPS,
		MaxRetries:        cfg.FetchMaxRetries,
		Logger:            logger,
	})
	sources := []logic.MatchSource{}
	if cfg.ExportDir != "" {
		sources = append(sources, provider.NewExportSource(cfg.ExportDir, models.ProviderWhoScored))
	}
	sources = append(sources, sofa)
	source := provider.NewChain(logger, sources...)

	// Team directory
	var pg *pgxpool.Pool
	if cfg.PostgresURL != "" {
		pg, err = pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return &logic.ConfigurationError{Field: "POSTGRES_URL", Reason: err.Error()}
		}
		defer pg.Close()
		checks["postgres"] = pg.Ping
	}
	directory := store.NewTeamDirectory(nil, sofa, logger)
	if pg != nil {
		directory = store.NewTeamDirectory(pg, sofa, logger)
		installers["postgres"] = directory.EnsureSchema
	}

	// Plan history
	var pool *worker.Pool
	var recorder logic.PlanRecorder
	if cfg.ClickHouseURL != "" {
		opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			return &logic.ConfigurationError{Field: "CLICKHOUSE_URL", Reason: err.Error()}
		}
		ch, err := clickhouse.Open(opts)
		if err != nil {
			return fmt.Errorf("failed to open clickhouse: %w", err)
		}
		defer ch.Close()
		checks["clickhouse"] = ch.Ping

		pool = worker.NewPool(worker.PoolConfig{
			WorkerCount:   cfg.WorkerCount,
			QueueSize:     cfg.QueueSize,
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval,
			ClickHouse:    ch,
			Logger:        logger,
		})
		installers["clickhouse"] = pool.EnsureSchema
		if err := pool.EnsureSchema(ctx); err != nil {
			sugar.Warnw("Failed to ensure plan history schema", "error", err)
		}
		pool.Start(ctx)
		recorder = pool
	}

	team := models.TeamIdentity{ID: cfg.TeamID, Name: cfg.TeamName}
	service := logic.NewTacticalService(logic.ServiceConfig{
		Team:     team,
		Source:   source,
		Cache:    planCache,
		Recorder: recorder,
		Scorer:   scorer,
		Rules:    rules,
		Tuning:   cfg.Tuning,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
	})

	warmer := worker.NewWarmer(worker.WarmerConfig{
		Service:   service,
		Directory: directory,
		Opponents: cfg.WarmupOpponents,
		Schedule:  cfg.WarmupSchedule,
		Logger:    logger,
	})
	if err := warmer.Start(ctx); err != nil {
		return &logic.ConfigurationError{Field: "WARMUP_SCHEDULE", Reason: err.Error()}
	}

	hcfg := handlers.Config{
		Service:    service,
		Directory:  directory,
		Cache:      planCache,
		Logger:     logger,
		Team:       team,
		Fixtures:   sofa,
		Checks:     checks,
		Installers: installers,
	}
	if pool != nil {
		hcfg.History = pool
	}
	h := handlers.New(hcfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("Tactical API listening", "port", cfg.Port, "source", source.Name(), "scorer", scorer.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Forced shutdown", "error", err)
	}
	warmer.Stop()
	if pool != nil {
		pool.Stop()
	}
	sugar.Info("Server exited")
	return nil
}

func loadRules(path string) (*logic.RuleSet, error) {
	if path == "" {
		return logic.DefaultRules()
	}
	return logic.LoadRulesFile(path)
}

func newRouter(cfg *config.Config, h *handlers.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/tactical-plan/{opponentId}", func(r chi.Router) {
			r.Get("/", h.GetTacticalPlan)
			r.Post("/recalibrate", h.RecalibratePlan)
		})
		r.Get("/fixtures/upcoming", h.GetUpcomingFixtures)
		r.Route("/opponents", func(r chi.Router) {
			r.Get("/", h.GetOpponents)
			r.Get("/{opponentId}/foundation", h.GetFoundation)
			r.Get("/{opponentId}/recent", h.GetOpponentRecent)
		})
		r.Get("/teams/resolve", h.ResolveTeams)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", h.GetCacheStats)
			r.Delete("/", h.ClearCache)
			r.Delete("/{opponentId}", h.DeleteCachedPlan)
		})

		r.Get("/ml/status", h.GetScorerStatus)
		r.Post("/system/install", h.InstallSchema)
	})

	return r
}
