package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/openmohaa/tactical-api/internal/logic"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs. Each is optional: an empty URL disables the feature it backs.
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// The team plans are built for
	TeamID   string
	TeamName string

	// Match sources
	SofaScoreBaseURL string
	SofaScoreTimeout time.Duration
	SofaScoreRPS     float64
	FetchMaxRetries  int
	ExportDir        string

	// Pipeline
	CacheTTL    time.Duration
	RulesPath   string
	MLModelPath string
	Tuning      logic.Tuning

	// Plan history worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Warm-up
	WarmupSchedule  string
	WarmupOpponents []string
}

// Load loads configuration from environment variables, after an optional
// .env file. It returns a *logic.ConfigurationError for unusable values.
func Load() (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		PostgresURL:   os.Getenv("POSTGRES_URL"),
		ClickHouseURL: os.Getenv("CLICKHOUSE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),

		TeamID:   getEnv("TEAM_ID", ""),
		TeamName: getEnv("TEAM_NAME", ""),

		SofaScoreBaseURL: getEnv("SOFASCORE_BASE_URL", "https://api.sofascore.com/api/v1"),
		SofaScoreTimeout: getEnvDuration("SOFASCORE_TIMEOUT", 10*time.Second),
		SofaScoreRPS:     getEnvFloat("SOFASCORE_RPS", 2),
		FetchMaxRetries:  getEnvInt("FETCH_MAX_RETRIES", 3),
		ExportDir:        getEnv("EXPORT_DIR", ""),

		CacheTTL:    getEnvDuration("CACHE_TTL", logic.DefaultCacheTTL),
		RulesPath:   getEnv("RULES_PATH", ""),
		MLModelPath: getEnv("ML_MODEL_PATH", ""),

		WorkerCount:   getEnvInt("WORKER_COUNT", 2),
		QueueSize:     getEnvInt("QUEUE_SIZE", 1000),
		BatchSize:     getEnvInt("BATCH_SIZE", 100),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 2*time.Second),

		WarmupSchedule:  getEnv("WARMUP_SCHEDULE", "0 6 * * *"),
		WarmupOpponents: getEnvList("WARMUP_OPPONENTS", ""),
	}

	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", "http://localhost:3000")

	t := logic.DefaultTuning()
	tv := &tuningEnv{}
	t.WindowSize = tv.int("WINDOW_SIZE", t.WindowSize)
	t.MLWindowSize = tv.int("ML_WINDOW", t.MLWindowSize)
	t.HistoricalWeight = tv.float("BLEND_HISTORICAL_WEIGHT", t.HistoricalWeight)
	t.ObservationWeight = tv.float("BLEND_OBSERVATION_WEIGHT", t.ObservationWeight)
	t.ReliabilityHigh = tv.float("RELIABILITY_HIGH", t.ReliabilityHigh)
	t.ReliabilityMedium = tv.float("RELIABILITY_MEDIUM", t.ReliabilityMedium)
	t.TopZones = tv.int("TOP_ZONES", t.TopZones)
	t.BaselineSeason = getEnv("BASELINE_SEASON", t.BaselineSeason)
	if tv.err != nil {
		return nil, tv.err
	}
	cfg.Tuning = t

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the server cannot start with.
func (c *Config) Validate() error {
	if c.TeamID == "" {
		return &logic.ConfigurationError{Field: "TEAM_ID", Reason: "missing required environment variable"}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &logic.ConfigurationError{Field: "PORT", Reason: fmt.Sprintf("%d is not a valid port", c.Port)}
	}
	if c.CacheTTL <= 0 {
		return &logic.ConfigurationError{Field: "CACHE_TTL", Reason: "must be positive"}
	}
	if !(c.SofaScoreRPS > 0) || math.IsInf(c.SofaScoreRPS, 0) {
		return &logic.ConfigurationError{Field: "SOFASCORE_RPS", Reason: "must be a positive finite number"}
	}
	if c.FetchMaxRetries < 0 {
		return &logic.ConfigurationError{Field: "FETCH_MAX_RETRIES", Reason: "must not be negative"}
	}
	return c.Tuning.Validate()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// tuningEnv reads tuning overrides strictly. A variable that is set but
// does not parse is kept as the first error instead of falling back.
type tuningEnv struct {
	err error
}

func (e *tuningEnv) int(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, fmt.Sprintf("%q is not an integer", value))
		return fallback
	}
	return i
}

func (e *tuningEnv) float(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		e.fail(key, fmt.Sprintf("%q is not a finite number", value))
		return fallback
	}
	return f
}

func (e *tuningEnv) fail(key, reason string) {
	if e.err == nil {
		e.err = &logic.ConfigurationError{Field: key, Reason: reason}
	}
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
