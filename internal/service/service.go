// Package service ties the store, the sync engine and the metrics engine
// together for the HTTP API and the CLI.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-insights/internal/batch"
	"github.com/Kamar-Folarin/github-insights/internal/config"
	"github.com/Kamar-Folarin/github-insights/internal/db"
	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/github"
	"github.com/Kamar-Folarin/github-insights/internal/metrics"
	"github.com/Kamar-Folarin/github-insights/internal/models"
	"github.com/Kamar-Folarin/github-insights/internal/ratelimit"
	"github.com/Kamar-Folarin/github-insights/internal/syncer"
)

// Options tunes report generation
type Options struct {
	// CacheMaxAge is how old a sync may be for SourceAuto to read the store
	CacheMaxAge  time.Duration
	StaleDays    int
	SLA          metrics.SLAConfig
	ReleaseNotes map[string]string
	// Batch bounds the concurrent timeline fetches of SLA reports
	Batch config.BatchConfig
	// StatusTTL is how long a sync status read stays cached
	StatusTTL time.Duration
}

// OptionsFromConfig maps loaded configuration onto service options
func OptionsFromConfig(cfg *config.Config) Options {
	sla := metrics.SLAConfig{
		Default: metrics.SLAThreshold{
			ResponseHours:   cfg.SLA.ResponseHours,
			ResolutionHours: cfg.SLA.ResolutionHours,
		},
		Priorities: make(map[string]metrics.SLAThreshold, len(cfg.SLA.Priorities)),
	}
	for label, t := range cfg.SLA.Priorities {
		sla.Priorities[label] = metrics.SLAThreshold{ResponseHours: t.ResponseHours, ResolutionHours: t.ResolutionHours}
	}
	return Options{
		CacheMaxAge:  cfg.Sync.CacheMaxAge,
		StaleDays:    cfg.StaleDays,
		SLA:          sla,
		ReleaseNotes: cfg.ReleaseNotes,
		Batch:        cfg.Sync.BatchConfig,
	}
}

type Service struct {
	store     db.Store
	converter *db.Converter
	engine    *syncer.Engine
	factory   github.ClientFactory
	limiter   ratelimit.Limiter
	statuses  *StatusCache
	processor *batch.Processor
	opts      Options
	logger    *logrus.Logger
	now       func() time.Time
}

func New(store db.Store, engine *syncer.Engine, factory github.ClientFactory, limiter ratelimit.Limiter, logger *logrus.Logger, opts Options) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	return &Service{
		store:     store,
		converter: db.NewConverter(store),
		engine:    engine,
		factory:   factory,
		limiter:   limiter,
		statuses:  NewStatusCache(store, opts.StatusTTL),
		processor: batch.NewProcessor(opts.Batch),
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	rows, err := s.store.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}
	repos := make([]models.Repository, 0, len(rows))
	for _, row := range rows {
		repos = append(repos, *db.RepositoryFromRow(row))
	}
	return repos, nil
}

// TrackRepository starts tracking ref by syncing it immediately
func (s *Service) TrackRepository(ctx context.Context, ref models.RepoRef) (*syncer.SyncResult, error) {
	s.logger.WithFields(logrus.Fields{
		"repository": ref.FullName(),
		"action":     "track",
	}).Info("Tracking repository")
	return s.sync(ctx, ref)
}

// RemoveRepository stops tracking ref and purges its stored data
func (s *Service) RemoveRepository(ctx context.Context, ref models.RepoRef) error {
	repo, err := s.store.GetRepositoryByName(ctx, ref.Owner, ref.Name)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRepository(ctx, repo.ID); err != nil {
		return fmt.Errorf("failed to remove repository %s: %w", ref, err)
	}
	s.statuses.Invalidate(repo.ID)

	s.logger.WithFields(logrus.Fields{
		"repository": ref.FullName(),
		"action":     "untrack",
	}).Info("Repository removed")
	return nil
}

// SyncRepository re-syncs a tracked repository
func (s *Service) SyncRepository(ctx context.Context, ref models.RepoRef) (*syncer.SyncResult, error) {
	if _, err := s.store.GetRepositoryByName(ctx, ref.Owner, ref.Name); err != nil {
		return nil, err
	}
	return s.sync(ctx, ref)
}

func (s *Service) sync(ctx context.Context, ref models.RepoRef) (*syncer.SyncResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	client, err := s.factory.SourceClient(ref.Owner)
	if err != nil {
		return nil, err
	}
	result, err := s.engine.SyncRepository(ctx, client, ref.Owner, ref.Name)
	if result != nil {
		s.statuses.Invalidate(result.RepositoryID)
	}
	return result, err
}

// SyncAll runs a batch sync over every tracked repository
func (s *Service) SyncAll(ctx context.Context) (*syncer.BatchResult, error) {
	defer s.statuses.Clear()
	return s.engine.SyncBatch(ctx, s.factory, s.limiter)
}

// GetSyncStatus returns the sync status of a tracked repository
func (s *Service) GetSyncStatus(ctx context.Context, ref models.RepoRef) (*models.SyncStatus, error) {
	repo, err := s.store.GetRepositoryByName(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, err
	}
	status, err := s.statuses.Get(ctx, repo.ID)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("repository %s has not been synced", ref), nil)
	}
	return status, nil
}
