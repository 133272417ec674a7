package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openmohaa/tactical-api/internal/logic"
	"github.com/openmohaa/tactical-api/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// HistoryQueue is the plan history worker pool as seen by readiness checks
type HistoryQueue interface {
	QueueDepth() int
}

// Check probes one backing store. A nil error means healthy.
type Check func(ctx context.Context) error

type Config struct {
	Service   logic.TacticalService
	Directory logic.TeamDirectory
	Cache     logic.CacheAdmin
	History   HistoryQueue
	Logger    *zap.Logger
	// The configured team and where its fixtures come from
	Team     models.TeamIdentity
	Fixtures logic.FixtureSource
	// Readiness probes keyed by dependency name
	Checks map[string]Check
	// Schema installers keyed by dependency name, run by POST /system/install
	Installers map[string]Check
}

type Handler struct {
	service    logic.TacticalService
	directory  logic.TeamDirectory
	cache      logic.CacheAdmin
	history    HistoryQueue
	team       models.TeamIdentity
	fixtures   logic.FixtureSource
	checks     map[string]Check
	installers map[string]Check
	logger     *zap.SugaredLogger
	validate   *validator.Validate
}

func New(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		service:    cfg.Service,
		directory:  cfg.Directory,
		cache:      cfg.Cache,
		history:    cfg.History,
		team:       cfg.Team,
		fixtures:   cfg.Fixtures,
		checks:     cfg.Checks,
		installers: cfg.Installers,
		logger:     cfg.Logger.Sugar(),
		validate:   validator.New(),
	}
}
