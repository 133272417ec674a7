package logic

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/openmohaa/tactical-api/internal/models"
)

// PgPool defines the interface for PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RedisClient defines the interface for Redis client
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// MatchSource fetches a team's recent finished matches, most recent first.
type MatchSource interface {
	Name() string
	RecentMatches(ctx context.Context, team models.TeamIdentity, limit int) ([]models.RawMatch, error)
}

// FixtureSource lists a team's scheduled and recently played fixtures.
type FixtureSource interface {
	UpcomingFixtures(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error)
	RecentFixtures(ctx context.Context, team models.TeamIdentity, limit int) ([]models.Fixture, error)
}

// PlanCache stores built plans. Get returns (nil, nil) on a miss.
type PlanCache interface {
	Get(ctx context.Context, key string) (*models.TacticalPlan, error)
	Set(ctx context.Context, key string, plan *models.TacticalPlan, ttl time.Duration) error
}

// CacheAdmin is the operator surface of a plan cache.
type CacheAdmin interface {
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) (int, error)
	Stats(ctx context.Context) (models.CacheStats, error)
}

// PlanRecorder accepts built plans for history. Record must not block.
type PlanRecorder interface {
	Record(plan *models.TacticalPlan) bool
}

// TeamDirectory resolves opponents by name or provider id.
type TeamDirectory interface {
	Resolve(ctx context.Context, name string) ([]models.TeamIdentity, error)
	Get(ctx context.Context, id string) (*models.TeamIdentity, error)
}

// TacticalService runs the plan pipeline for the configured team.
type TacticalService interface {
	BuildPlan(ctx context.Context, req PlanRequest) (*models.TacticalPlan, error)
	Recalibrate(ctx context.Context, req PlanRequest) (*models.TacticalPlan, error)
	Foundation(ctx context.Context, opponent models.TeamIdentity) (*models.TacticalFoundation, error)
	PlanKey(opponentID string) string
	ScorerInfo() (name, version string)
}
