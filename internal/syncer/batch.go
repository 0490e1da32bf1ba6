package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/github"
	"github.com/Kamar-Folarin/github-insights/internal/ratelimit"
)

// RepositoryOutcome is the result of one repository within a batch
type RepositoryOutcome struct {
	Repository string              `json:"repository"`
	Success    bool                `json:"success"`
	Result     *SyncResult         `json:"result,omitempty"`
	Error      string              `json:"error,omitempty"`
	ErrorType  apperrors.ErrorType `json:"error_type,omitempty"`
}

// ProjectOutcome is the result of syncing one organization's project boards
type ProjectOutcome struct {
	Org      string `json:"org"`
	Projects int    `json:"projects"`
	Items    int    `json:"items"`
	Error    string `json:"error,omitempty"`
}

// BatchResult summarizes a batch run. Successful + Failed == Total.
type BatchResult struct {
	RunID      string              `json:"run_id"`
	Total      int                 `json:"total"`
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
	Results    []RepositoryOutcome `json:"results"`
	Projects   []ProjectOutcome    `json:"projects"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// SyncBatch syncs every tracked repository one at a time, waiting on limiter
// before each. A failing repository is recorded and the loop moves on. A second
// pass syncs the project boards of each distinct owning organization.
func (e *Engine) SyncBatch(ctx context.Context, factory github.ClientFactory, limiter ratelimit.Limiter) (*BatchResult, error) {
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}

	repos, err := e.store.ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}

	runID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "sync.batch", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("repositories", len(repos)),
	))
	defer span.End()

	logger := e.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"action": "batch_sync",
	})
	logger.WithField("repositories", len(repos)).Info("Starting batch sync")

	result := &BatchResult{
		RunID:     runID,
		Total:     len(repos),
		Results:   make([]RepositoryOutcome, 0, len(repos)),
		Projects:  []ProjectOutcome{},
		StartedAt: e.now().UTC(),
	}

	var orgs []string
	seen := make(map[string]bool)
	for _, repo := range repos {
		if org := strings.ToLower(repo.Owner); !seen[org] {
			seen[org] = true
			orgs = append(orgs, repo.Owner)
		}

		outcome := e.syncOne(ctx, factory, limiter, repo.Owner, repo.Name)
		if outcome.Success {
			result.Successful++
		} else {
			result.Failed++
			logger.WithFields(logrus.Fields{
				"repository": outcome.Repository,
				"error_type": outcome.ErrorType,
				"error":      outcome.Error,
			}).Warn("Repository failed in batch")
		}
		result.Results = append(result.Results, outcome)
	}

	for _, org := range orgs {
		result.Projects = append(result.Projects, e.syncProjects(ctx, factory, limiter, org, logger))
	}

	result.FinishedAt = e.now().UTC()
	span.SetAttributes(attribute.Int("successful", result.Successful), attribute.Int("failed", result.Failed))
	logger.WithFields(logrus.Fields{
		"total":      result.Total,
		"successful": result.Successful,
		"failed":     result.Failed,
	}).Info("Batch sync completed")
	return result, nil
}

func (e *Engine) syncOne(ctx context.Context, factory github.ClientFactory, limiter ratelimit.Limiter, owner, name string) RepositoryOutcome {
	outcome := RepositoryOutcome{Repository: owner + "/" + name}
	fail := func(err error) RepositoryOutcome {
		outcome.Error = err.Error()
		outcome.ErrorType = apperrors.TypeOf(err)
		return outcome
	}

	if err := limiter.Wait(ctx); err != nil {
		e.metrics.repositories.WithLabelValues(outcomeFailure).Inc()
		return fail(err)
	}
	client, err := factory.SourceClient(owner)
	if err != nil {
		e.metrics.repositories.WithLabelValues(outcomeFailure).Inc()
		return fail(fmt.Errorf("failed to create client for %s: %w", owner, err))
	}
	res, err := e.SyncRepository(ctx, client, owner, name)
	if err != nil {
		return fail(err)
	}

	outcome.Success = true
	outcome.Result = res
	return outcome
}

// syncProjects replaces the stored project boards of org. Failures are contained to the org.
func (e *Engine) syncProjects(ctx context.Context, factory github.ClientFactory, limiter ratelimit.Limiter, org string, logger *logrus.Entry) ProjectOutcome {
	ctx, span := e.tracer.Start(ctx, "sync.projects", trace.WithAttributes(attribute.String("org", org)))
	defer span.End()

	out := ProjectOutcome{Org: org}
	err := func() error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		client, err := factory.ProjectsClient(org)
		if err != nil {
			return fmt.Errorf("failed to create projects client: %w", err)
		}
		projects, err := client.ListOrgProjects(ctx, org)
		if err != nil {
			return err
		}
		for i := range projects {
			p := &projects[i]
			if p.Org == "" {
				p.Org = org
			}
			if err := e.store.UpsertProject(ctx, p); err != nil {
				return err
			}
			if err := e.store.ReplaceProjectItems(ctx, p.ID, p.Items); err != nil {
				return err
			}
			out.Projects++
			out.Items += len(p.Items)
		}
		return nil
	}()

	e.metrics.projects.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		out.Error = err.Error()
		logger.WithField("org", org).WithError(err).Warn("Project sync failed")
		return out
	}
	logger.WithFields(logrus.Fields{
		"org":      org,
		"projects": out.Projects,
		"items":    out.Items,
	}).Info("Projects synced")
	return out
}

// StartScheduler runs SyncBatch immediately and then every interval until ctx
// is done. The returned channel is closed when the loop exits.
func (e *Engine) StartScheduler(ctx context.Context, interval time.Duration, factory github.ClientFactory, limiter ratelimit.Limiter) <-chan struct{} {
	done := make(chan struct{})
	logger := e.logger.WithField("action", "scheduler")

	run := func() {
		if _, err := e.SyncBatch(ctx, factory, limiter); err != nil {
			logger.WithError(err).Error("Scheduled batch sync failed")
		}
	}

	go func() {
		defer close(done)
		if interval <= 0 {
			logger.Info("Periodic sync disabled")
			return
		}

		logger.WithField("interval", interval.String()).Info("Starting sync scheduler")
		run()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("Sync scheduler stopped")
				return
			case <-ticker.C:
				run()
			}
		}
	}()
	return done
}
