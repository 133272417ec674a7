// Package store persists the opponent directory in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS teams (
	provider_id TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	short_name  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS teams_name_lower_idx ON teams (lower(name));
`

const maxResolveResults = 10

// TeamSearcher looks teams up at a provider when the directory has no match.
type TeamSearcher interface {
	SearchTeams(ctx context.Context, query string, limit int) ([]models.TeamIdentity, error)
}

// TeamDirectory resolves opponent names to provider ids. Provider hits are
// written back so later lookups stay local.
type TeamDirectory struct {
	pg       logic.PgPool
	searcher TeamSearcher
	logger   *zap.SugaredLogger
}

// NewTeamDirectory creates a directory. pg may be nil, in which case every
// lookup goes to the searcher.
func NewTeamDirectory(pg logic.PgPool, searcher TeamSearcher, logger *zap.Logger) *TeamDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeamDirectory{pg: pg, searcher: searcher, logger: logger.Sugar()}
}

// EnsureSchema creates the teams table if it does not exist.
func (d *TeamDirectory) EnsureSchema(ctx context.Context) error {
	if d.pg == nil {
		return nil
	}
	if _, err := d.pg.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create teams schema: %w", err)
	}
	return nil
}

// Resolve returns teams whose name matches, exact matches first.
func (d *TeamDirectory) Resolve(ctx context.Context, name string) ([]models.TeamIdentity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []models.TeamIdentity{}, nil
	}

	if d.pg != nil {
		teams, err := d.lookup(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(teams) > 0 || d.searcher == nil {
			return teams, nil
		}
	}
	if d.searcher == nil {
		return []models.TeamIdentity{}, nil
	}

	teams, err := d.searcher.SearchTeams(ctx, name, maxResolveResults)
	if err != nil {
		return nil, fmt.Errorf("team search: %w", err)
	}
	for _, t := range teams {
		if err := d.Upsert(ctx, t); err != nil {
			d.logger.Warnw("Failed to store resolved team", "teamID", t.ID, "error", err)
		}
	}
	return teams, nil
}

func (d *TeamDirectory) lookup(ctx context.Context, name string) ([]models.TeamIdentity, error) {
	rows, err := d.pg.Query(ctx, `
		SELECT provider_id, name
		FROM teams
		WHERE lower(name) LIKE '%' || lower($1) || '%'
		   OR lower(short_name) = lower($1)
		ORDER BY (lower(name) = lower($1)) DESC, name
		LIMIT $2
	`, name, maxResolveResults)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := []models.TeamIdentity{}
	for rows.Next() {
		var t models.TeamIdentity
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// Get returns the team stored under a provider id, or nil when unknown.
func (d *TeamDirectory) Get(ctx context.Context, id string) (*models.TeamIdentity, error) {
	if d.pg == nil {
		return nil, nil
	}
	var t models.TeamIdentity
	err := d.pg.QueryRow(ctx, `SELECT provider_id, name FROM teams WHERE provider_id = $1`, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", id, err)
	}
	return &t, nil
}

// Upsert stores or renames a team.
func (d *TeamDirectory) Upsert(ctx context.Context, t models.TeamIdentity) error {
	if d.pg == nil {
		return nil
	}
	_, err := d.pg.Exec(ctx, `
		INSERT INTO teams (provider_id, name)
		VALUES ($1, $2)
		ON CONFLICT (provider_id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
	`, t.ID, t.Name)
	return err
}
