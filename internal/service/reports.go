package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/batch"
	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/metrics"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// ReportOptions selects the data a report is computed from
type ReportOptions struct {
	Source Source
	// Since restricts issue and pull request reports to entities updated at or after it
	Since *time.Time
}

// Report wraps a computed report with where its data came from
type Report[T any] struct {
	Repository  string    `json:"repository"`
	Source      Source    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
	Data        T         `json:"data"`
}

func newReport[T any](ref models.RepoRef, l loader, now time.Time, data T) *Report[T] {
	return &Report[T]{Repository: ref.FullName(), Source: l.source(), GeneratedAt: now, Data: data}
}

func (s *Service) IssueMetrics(ctx context.Context, ref models.RepoRef, opts ReportOptions) (*Report[*metrics.IssueMetrics], error) {
	l, err := s.loaderFor(ctx, ref, opts.Source, models.KindIssues, models.KindMilestones)
	if err != nil {
		return nil, err
	}
	issues, err := l.issues(ctx, opts.Since, nil)
	if err != nil {
		return nil, err
	}
	now := s.now()
	m := metrics.CalculateIssueMetrics(issues, now, metrics.IssueMetricsOptions{StaleDays: s.opts.StaleDays})
	return newReport(ref, l, now, m), nil
}

func (s *Service) PullMetrics(ctx context.Context, ref models.RepoRef, opts ReportOptions) (*Report[*metrics.PullMetrics], error) {
	l, err := s.loaderFor(ctx, ref, opts.Source, models.KindPulls)
	if err != nil {
		return nil, err
	}
	pulls, err := l.pulls(ctx, opts.Since)
	if err != nil {
		return nil, err
	}
	return newReport(ref, l, s.now(), metrics.CalculatePullMetrics(pulls)), nil
}

// Velocity reports issue flow over count windows of period ending now
func (s *Service) Velocity(ctx context.Context, ref models.RepoRef, period metrics.Period, count int, opts ReportOptions) (*Report[*metrics.Velocity], error) {
	if count <= 0 {
		return nil, apperrors.NewInvalidFormatError(fmt.Sprintf("window count must be positive, got %d", count), nil)
	}
	l, err := s.loaderFor(ctx, ref, opts.Source, models.KindIssues)
	if err != nil {
		return nil, err
	}
	issues, err := l.issues(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return newReport(ref, l, now, metrics.CalculateVelocity(issues, now, period, count)), nil
}

// SLA evaluates response and resolution compliance. Issue timelines are not
// stored and are always fetched live, a bounded number at a time.
func (s *Service) SLA(ctx context.Context, ref models.RepoRef, opts ReportOptions) (*Report[*metrics.SLAReport], error) {
	l, err := s.loaderFor(ctx, ref, opts.Source, models.KindIssues)
	if err != nil {
		return nil, err
	}
	issues, err := l.issues(ctx, opts.Since, nil)
	if err != nil {
		return nil, err
	}
	timelines, err := s.fetchTimelines(ctx, ref, issues)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return newReport(ref, l, now, metrics.CalculateSLA(issues, timelines, s.opts.SLA, now)), nil
}

func (s *Service) fetchTimelines(ctx context.Context, ref models.RepoRef, issues []models.Issue) (map[int][]models.TimelineEvent, error) {
	timelines := make(map[int][]models.TimelineEvent, len(issues))
	if len(issues) == 0 {
		return timelines, nil
	}
	client, err := s.factory.SourceClient(ref.Owner)
	if err != nil {
		return nil, err
	}

	numbers := make([]int, 0, len(issues))
	for _, issue := range issues {
		numbers = append(numbers, issue.Number)
	}

	var mu sync.Mutex
	err = batch.Process(ctx, s.processor, numbers, func(ctx context.Context, chunk []int) error {
		for _, number := range chunk {
			events, err := client.ListIssueTimeline(ctx, ref, number)
			if err != nil {
				return fmt.Errorf("issue #%d: %w", number, err)
			}
			mu.Lock()
			timelines[number] = events
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue timelines: %w", err)
	}
	return timelines, nil
}

func (s *Service) milestoneData(ctx context.Context, ref models.RepoRef, number int, src Source) (loader, *models.Milestone, []models.Issue, error) {
	l, err := s.loaderFor(ctx, ref, src, models.KindIssues, models.KindMilestones)
	if err != nil {
		return nil, nil, nil, err
	}
	milestone, err := l.milestone(ctx, number)
	if err != nil {
		return nil, nil, nil, err
	}
	issues, err := l.issues(ctx, nil, milestone)
	if err != nil {
		return nil, nil, nil, err
	}
	return l, milestone, issues, nil
}

func (s *Service) Burndown(ctx context.Context, ref models.RepoRef, number int, opts ReportOptions) (*Report[*metrics.Burndown], error) {
	l, milestone, issues, err := s.milestoneData(ctx, ref, number, opts.Source)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return newReport(ref, l, now, metrics.CalculateBurndown(issues, milestone, now)), nil
}

func (s *Service) Burnup(ctx context.Context, ref models.RepoRef, number int, opts ReportOptions) (*Report[*metrics.Burnup], error) {
	l, milestone, issues, err := s.milestoneData(ctx, ref, number, opts.Source)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return newReport(ref, l, now, metrics.CalculateBurnup(issues, milestone, now)), nil
}

// ReleaseNotes builds notes from issues closed and pull requests merged since
// opts.Since, defaulting to the publication of the latest stable release
func (s *Service) ReleaseNotes(ctx context.Context, ref models.RepoRef, version string, opts ReportOptions) (*Report[*metrics.ReleaseNotes], error) {
	if version == "" {
		return nil, apperrors.NewInvalidFormatError("version is required", nil)
	}
	l, err := s.loaderFor(ctx, ref, opts.Source, models.KindIssues, models.KindPulls, models.KindReleases)
	if err != nil {
		return nil, err
	}

	since := opts.Since
	if since == nil {
		releases, err := l.releases(ctx)
		if err != nil {
			return nil, err
		}
		since = lastStableRelease(releases)
	}

	issues, err := l.issues(ctx, since, nil)
	if err != nil {
		return nil, err
	}
	pulls, err := l.pulls(ctx, since)
	if err != nil {
		return nil, err
	}

	closed := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.IsClosed() && (since == nil || !issue.ClosedAt.Before(*since)) {
			closed = append(closed, issue)
		}
	}
	merged := make([]models.PullRequest, 0, len(pulls))
	for _, pr := range pulls {
		if pr.IsMerged() && (since == nil || !pr.MergedAt.Before(*since)) {
			merged = append(merged, pr)
		}
	}

	now := s.now()
	notes := metrics.GenerateReleaseNotes(version, closed, merged, s.opts.ReleaseNotes, now)
	return newReport(ref, l, now, notes), nil
}

// lastStableRelease returns the publication time of the most recently published stable release
func lastStableRelease(releases []models.Release) *time.Time {
	var latest *time.Time
	for i := range releases {
		r := &releases[i]
		if !r.IsStable() || r.PublishedAt == nil {
			continue
		}
		if latest == nil || r.PublishedAt.After(*latest) {
			t := *r.PublishedAt
			latest = &t
		}
	}
	return latest
}
