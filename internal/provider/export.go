package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openmohaa/tactical-api/internal/models"
)

// ExportSource reads scraper exports from {dir}/{teamID}.json. A file holds
// either an array of matches or an object with a "matches" array.
type ExportSource struct {
	dir             string
	defaultProvider string
}

// NewExportSource creates an export reader. Matches without a provider
// field are read with defaultProvider's mapping table.
func NewExportSource(dir, defaultProvider string) *ExportSource {
	if defaultProvider == "" {
		defaultProvider = models.ProviderWhoScored
	}
	return &ExportSource{dir: dir, defaultProvider: defaultProvider}
}

func (s *ExportSource) Name() string { return "export" }

type exportFile struct {
	Team    models.TeamRef    `json:"team"`
	Matches []models.RawMatch `json:"matches"`
}

// RecentMatches returns up to limit matches from the export, most recent first.
func (s *ExportSource) RecentMatches(ctx context.Context, team models.TeamIdentity, limit int) ([]models.RawMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(team.ID)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("invalid team id %q", team.ID)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	matches, err := decodeExport(data)
	if err != nil {
		return nil, fmt.Errorf("decode export %s: %w", id, err)
	}
	for i := range matches {
		if matches[i].Provider == "" {
			matches[i].Provider = s.defaultProvider
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Date.After(matches[j].Date) })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func decodeExport(data []byte) ([]models.RawMatch, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var matches []models.RawMatch
		if err := json.Unmarshal(data, &matches); err != nil {
			return nil, err
		}
		return matches, nil
	}
	var f exportFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f.Matches, nil
}
