package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
)

// Chain tries each source in order and returns the first non-empty result.
type Chain struct {
	sources []logic.MatchSource
	logger  *zap.SugaredLogger
}

func NewChain(logger *zap.Logger, sources ...logic.MatchSource) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{sources: sources, logger: logger.Sugar()}
}

func (c *Chain) Name() string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// RecentMatches returns the first source's matches that are not empty. When
// every source fails the errors are joined; when they all come back empty the
// result is empty with no error.
func (c *Chain) RecentMatches(ctx context.Context, team models.TeamIdentity, limit int) ([]models.RawMatch, error) {
	var errs []error
	for _, s := range c.sources {
		matches, err := s.RecentMatches(ctx, team, limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !errors.Is(err, ErrNotFound) {
				c.logger.Warnw("Match source failed, trying next", "source", s.Name(), "opponentID", team.ID, "error", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}
	if len(errs) == len(c.sources) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []models.RawMatch{}, nil
}
