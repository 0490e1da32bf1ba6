// Package syncer pulls repository data from a forge into the store.
package syncer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kamar-Folarin/github-insights/internal/db"
	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/github"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

const tracerName = "github.com/Kamar-Folarin/github-insights/internal/syncer"

// Sync steps, in execution order
const (
	StepMetadata   = "metadata"
	StepMilestones = "milestones"
	StepIssues     = "issues"
	StepPulls      = "pulls"
	StepReleases   = "releases"
	StepStatus     = "status"
)

// SyncResult reports what one repository sync wrote
type SyncResult struct {
	Repository       string    `json:"repository"`
	RepositoryID     int64     `json:"repository_id"`
	MilestonesSynced int       `json:"milestones_synced"`
	IssuesSynced     int       `json:"issues_synced"`
	PullsSynced      int       `json:"pulls_synced"`
	ReleasesSynced   int       `json:"releases_synced"`
	SyncedAt         time.Time `json:"synced_at"`
}

// Engine writes forge snapshots into the store. A repository is synced by at
// most one caller at a time.
type Engine struct {
	store   db.Store
	logger  *logrus.Logger
	metrics *syncMetrics
	tracer  trace.Tracer
	now     func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

type Option func(*Engine)

// WithClock overrides the time source used for sync timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRegisterer registers the engine's metrics on reg instead of the default registry
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = newSyncMetrics(reg) }
}

func NewEngine(store db.Store, logger *logrus.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	e := &Engine{
		store:    store,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
		inFlight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = getDefaultMetrics()
	}
	return e
}

func (e *Engine) acquire(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[key] {
		return false
	}
	e.inFlight[key] = true
	return true
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	delete(e.inFlight, key)
	e.mu.Unlock()
}

// InProgress reports whether owner/name is currently being synced
func (e *Engine) InProgress(owner, name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight[strings.ToLower(owner+"/"+name)]
}

// SyncRepository runs metadata, milestones, issues, pulls, releases and the
// status update in that order. The first failing step aborts the sync; rows
// written by earlier steps are kept and healed by the next sync.
func (e *Engine) SyncRepository(ctx context.Context, client github.SourceClient, owner, name string) (*SyncResult, error) {
	fullName := owner + "/" + name
	key := strings.ToLower(fullName)
	if !e.acquire(key) {
		return nil, apperrors.NewSyncInProgressError(fullName)
	}
	defer e.release(key)

	ctx, span := e.tracer.Start(ctx, "sync.repository", trace.WithAttributes(attribute.String("repository", fullName)))
	defer span.End()

	logger := e.logger.WithFields(logrus.Fields{
		"repository": fullName,
		"action":     "sync",
	})
	logger.Info("Starting repository sync")

	start := time.Now()
	result, err := e.syncSteps(ctx, client, owner, name, logger)
	e.metrics.duration.Observe(time.Since(start).Seconds())
	e.metrics.repositories.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).Error("Repository sync failed")
		return nil, fmt.Errorf("sync %s: %w", fullName, err)
	}

	span.SetStatus(codes.Ok, "")
	logger.WithFields(logrus.Fields{
		"milestones": result.MilestonesSynced,
		"issues":     result.IssuesSynced,
		"pulls":      result.PullsSynced,
		"releases":   result.ReleasesSynced,
		"duration":   time.Since(start).String(),
	}).Info("Repository sync completed")
	return result, nil
}

func (e *Engine) syncSteps(ctx context.Context, client github.SourceClient, owner, name string, logger *logrus.Entry) (*SyncResult, error) {
	result := &SyncResult{Repository: owner + "/" + name}

	var repo *models.Repository
	if err := e.step(ctx, logger, StepMetadata, func(ctx context.Context) (int, error) {
		var err error
		repo, err = client.GetRepository(ctx, owner, name)
		if err != nil {
			return 0, err
		}
		if err := e.store.UpsertRepository(ctx, db.RepositoryRowFrom(repo)); err != nil {
			return 0, err
		}
		return 1, nil
	}); err != nil {
		return nil, err
	}
	if repo.FullName != "" {
		result.Repository = repo.FullName
	}
	result.RepositoryID = repo.ID
	ref := repo.Ref()

	if err := e.step(ctx, logger, StepMilestones, func(ctx context.Context) (int, error) {
		milestones, err := client.ListMilestones(ctx, ref)
		if err != nil {
			return 0, err
		}
		for i := range milestones {
			if err := e.store.UpsertMilestone(ctx, db.MilestoneRowFrom(repo.ID, &milestones[i])); err != nil {
				return 0, err
			}
		}
		result.MilestonesSynced = len(milestones)
		return len(milestones), nil
	}); err != nil {
		return nil, err
	}

	if err := e.step(ctx, logger, StepIssues, func(ctx context.Context) (int, error) {
		issues, err := client.ListIssues(ctx, ref, github.ListOptions{State: models.FilterAll})
		if err != nil {
			return 0, err
		}
		for i := range issues {
			if err := e.storeIssue(ctx, repo.ID, &issues[i]); err != nil {
				return 0, err
			}
		}
		result.IssuesSynced = len(issues)
		return len(issues), nil
	}); err != nil {
		return nil, err
	}

	if err := e.step(ctx, logger, StepPulls, func(ctx context.Context) (int, error) {
		pulls, err := client.ListPullRequests(ctx, ref, github.ListOptions{State: models.FilterAll, WithStats: true})
		if err != nil {
			return 0, err
		}
		for i := range pulls {
			pr := &pulls[i]
			if err := e.upsertUser(ctx, pr.Author); err != nil {
				return 0, err
			}
			if err := e.store.UpsertPullRequest(ctx, db.PullRequestRowFrom(repo.ID, pr)); err != nil {
				return 0, err
			}
		}
		result.PullsSynced = len(pulls)
		return len(pulls), nil
	}); err != nil {
		return nil, err
	}

	if err := e.step(ctx, logger, StepReleases, func(ctx context.Context) (int, error) {
		releases, err := client.ListReleases(ctx, ref)
		if err != nil {
			return 0, err
		}
		for i := range releases {
			r := &releases[i]
			if err := e.upsertUser(ctx, r.Author); err != nil {
				return 0, err
			}
			if err := e.store.UpsertRelease(ctx, db.ReleaseRowFrom(repo.ID, r)); err != nil {
				return 0, err
			}
		}
		result.ReleasesSynced = len(releases)
		return len(releases), nil
	}); err != nil {
		return nil, err
	}

	result.SyncedAt = e.now().UTC()
	if err := e.step(ctx, logger, StepStatus, func(ctx context.Context) (int, error) {
		status := &models.SyncStatus{RepositoryID: repo.ID}
		status.MarkAll(result.SyncedAt)
		return 0, e.store.UpsertSyncStatus(ctx, status)
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// step runs one sync step inside its own span and counts the entities it wrote
func (e *Engine) step(ctx context.Context, logger *logrus.Entry, name string, fn func(ctx context.Context) (int, error)) error {
	ctx, span := e.tracer.Start(ctx, "sync."+name)
	defer span.End()

	logger = logger.WithField("step", name)
	logger.Debug("Running sync step")

	n, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}

	span.SetAttributes(attribute.Int("entities", n))
	if name != StepStatus {
		e.metrics.entities.WithLabelValues(name).Add(float64(n))
	}
	logger.WithField("count", n).Debug("Sync step completed")
	return nil
}

// storeIssue upserts the issue's users and the issue row, then replaces its
// label and assignee associations
func (e *Engine) storeIssue(ctx context.Context, repoID int64, issue *models.Issue) error {
	if err := e.upsertUser(ctx, issue.Author); err != nil {
		return err
	}
	if issue.ClosedBy != nil {
		if err := e.upsertUser(ctx, *issue.ClosedBy); err != nil {
			return err
		}
	}
	assignees := make([]int64, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		if err := e.upsertUser(ctx, a); err != nil {
			return err
		}
		assignees = append(assignees, a.ID)
	}

	labels := make([]*db.LabelRow, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, db.LabelRowFrom(repoID, l))
	}

	if err := e.store.UpsertIssue(ctx, db.IssueRowFrom(repoID, issue)); err != nil {
		return err
	}
	if err := e.store.ReplaceIssueLabels(ctx, repoID, issue.ID, labels); err != nil {
		return err
	}
	return e.store.ReplaceIssueAssignees(ctx, repoID, issue.ID, assignees)
}

func (e *Engine) upsertUser(ctx context.Context, u models.User) error {
	if u.ID == 0 {
		return nil
	}
	return e.store.UpsertUser(ctx, db.UserRowFrom(u))
}
