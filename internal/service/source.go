package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/db"
	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/github"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// Source selects where report data is read from
type Source string

const (
	// SourceAuto reads the store when every needed entity kind was synced within
	// the cache max age, and the forge otherwise
	SourceAuto  Source = "auto"
	SourceCache Source = "cache"
	SourceLive  Source = "live"
)

func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case "":
		return SourceAuto, nil
	case SourceAuto, SourceCache, SourceLive:
		return src, nil
	}
	return "", apperrors.NewInvalidFormatError(fmt.Sprintf("unknown source %q (want auto, cache or live)", s), nil)
}

// loader reads the entities a report needs from one source
type loader interface {
	source() Source
	issues(ctx context.Context, since *time.Time, milestone *models.Milestone) ([]models.Issue, error)
	pulls(ctx context.Context, since *time.Time) ([]models.PullRequest, error)
	releases(ctx context.Context) ([]models.Release, error)
	milestone(ctx context.Context, number int) (*models.Milestone, error)
}

type cacheLoader struct {
	conv   *db.Converter
	repoID int64
}

func (l *cacheLoader) source() Source { return SourceCache }

func (l *cacheLoader) issues(ctx context.Context, since *time.Time, milestone *models.Milestone) ([]models.Issue, error) {
	filter := db.IssueFilter{State: models.FilterAll, Since: since}
	if milestone != nil {
		filter.MilestoneID = &milestone.ID
	}
	return l.conv.Issues(ctx, l.repoID, filter)
}

func (l *cacheLoader) pulls(ctx context.Context, since *time.Time) ([]models.PullRequest, error) {
	return l.conv.PullRequests(ctx, l.repoID, db.PullFilter{State: models.FilterAll, Since: since})
}

func (l *cacheLoader) releases(ctx context.Context) ([]models.Release, error) {
	return l.conv.Releases(ctx, l.repoID)
}

func (l *cacheLoader) milestone(ctx context.Context, number int) (*models.Milestone, error) {
	return l.conv.Milestone(ctx, l.repoID, number)
}

type liveLoader struct {
	client github.SourceClient
	ref    models.RepoRef
}

func (l *liveLoader) source() Source { return SourceLive }

func (l *liveLoader) issues(ctx context.Context, since *time.Time, milestone *models.Milestone) ([]models.Issue, error) {
	opts := github.ListOptions{State: models.FilterAll, Since: since}
	if milestone != nil {
		opts.Milestone = &milestone.Number
	}
	return l.client.ListIssues(ctx, l.ref, opts)
}

func (l *liveLoader) pulls(ctx context.Context, since *time.Time) ([]models.PullRequest, error) {
	pulls, err := l.client.ListPullRequests(ctx, l.ref, github.ListOptions{State: models.FilterAll, Since: since, WithStats: true})
	if err != nil {
		return nil, err
	}
	// pull labels and milestones are not persisted, so live results drop them too
	for i := range pulls {
		pulls[i].Labels = []models.Label{}
		pulls[i].Milestone = nil
	}
	return pulls, nil
}

func (l *liveLoader) releases(ctx context.Context) ([]models.Release, error) {
	return l.client.ListReleases(ctx, l.ref)
}

func (l *liveLoader) milestone(ctx context.Context, number int) (*models.Milestone, error) {
	milestones, err := l.client.ListMilestones(ctx, l.ref)
	if err != nil {
		return nil, err
	}
	for i := range milestones {
		if milestones[i].Number == number {
			return &milestones[i], nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("milestone %d not found in %s", number, l.ref), nil)
}

// loaderFor resolves src for a report needing kinds. Auto falls back to live
// for untracked repositories and stale or missing syncs.
func (s *Service) loaderFor(ctx context.Context, ref models.RepoRef, src Source, kinds ...models.EntityKind) (loader, error) {
	if src == "" {
		src = SourceAuto
	}

	if src != SourceLive {
		repo, err := s.store.GetRepositoryByName(ctx, ref.Owner, ref.Name)
		switch {
		case err == nil:
			if src == SourceCache {
				return &cacheLoader{conv: s.converter, repoID: repo.ID}, nil
			}
			fresh, err := s.isFresh(ctx, repo.ID, kinds)
			if err != nil {
				return nil, err
			}
			if fresh {
				return &cacheLoader{conv: s.converter, repoID: repo.ID}, nil
			}
		case apperrors.IsNotFound(err) && src == SourceAuto:
		default:
			return nil, err
		}
	}

	client, err := s.factory.SourceClient(ref.Owner)
	if err != nil {
		return nil, err
	}
	return &liveLoader{client: client, ref: ref}, nil
}

func (s *Service) isFresh(ctx context.Context, repoID int64, kinds []models.EntityKind) (bool, error) {
	status, err := s.statuses.Get(ctx, repoID)
	if err != nil || status == nil {
		return false, err
	}
	now := s.now()
	for _, kind := range kinds {
		if !status.IsFresh(kind, s.opts.CacheMaxAge, now) {
			return false, nil
		}
	}
	return true, nil
}
