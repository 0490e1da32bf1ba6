package github

import (
	"time"

	gh "github.com/google/go-github/v69/github"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

func timestampPtr(ts *gh.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

func timestamp(ts gh.Timestamp) time.Time {
	return ts.Time.UTC()
}

func convertUser(u *gh.User) models.User {
	if u == nil {
		return models.User{}
	}
	return models.User{
		ID:        u.GetID(),
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		AvatarURL: u.GetAvatarURL(),
	}
}

func convertLabels(labels []*gh.Label) []models.Label {
	out := make([]models.Label, 0, len(labels))
	seen := make(map[int64]bool, len(labels))
	for _, l := range labels {
		if l == nil || seen[l.GetID()] {
			continue
		}
		seen[l.GetID()] = true
		out = append(out, models.Label{
			ID:          l.GetID(),
			Name:        l.GetName(),
			Color:       l.GetColor(),
			Description: l.GetDescription(),
		})
	}
	models.SortLabels(out)
	return out
}

func convertRepository(r *gh.Repository) *models.Repository {
	return &models.Repository{
		ID:              r.GetID(),
		Owner:           r.GetOwner().GetLogin(),
		Name:            r.GetName(),
		FullName:        r.GetFullName(),
		Description:     r.GetDescription(),
		URL:             r.GetHTMLURL(),
		Language:        r.GetLanguage(),
		ForksCount:      r.GetForksCount(),
		StarsCount:      r.GetStargazersCount(),
		OpenIssuesCount: r.GetOpenIssuesCount(),
		WatchersCount:   r.GetWatchersCount(),
		CreatedAt:       timestamp(r.GetCreatedAt()),
		UpdatedAt:       timestamp(r.GetUpdatedAt()),
	}
}

func convertMilestone(m *gh.Milestone) *models.Milestone {
	if m == nil {
		return nil
	}
	return &models.Milestone{
		ID:           m.GetID(),
		Number:       m.GetNumber(),
		Title:        m.GetTitle(),
		Description:  m.Description,
		State:        models.ParseState(m.GetState()),
		OpenIssues:   m.GetOpenIssues(),
		ClosedIssues: m.GetClosedIssues(),
		DueOn:        timestampPtr(m.DueOn),
		CreatedAt:    timestamp(m.GetCreatedAt()),
		UpdatedAt:    timestamp(m.GetUpdatedAt()),
		ClosedAt:     timestampPtr(m.ClosedAt),
	}
}

func convertIssue(i *gh.Issue) models.Issue {
	issue := models.Issue{
		ID:        i.GetID(),
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      i.GetBody(),
		State:     models.ParseState(i.GetState()),
		Labels:    convertLabels(i.Labels),
		Assignees: make([]models.User, 0, len(i.Assignees)),
		Milestone: convertMilestone(i.Milestone),
		Author:    convertUser(i.User),
		Comments:  i.GetComments(),
		CreatedAt: timestamp(i.GetCreatedAt()),
		UpdatedAt: timestamp(i.GetUpdatedAt()),
	}
	if issue.State == models.StateClosed {
		issue.ClosedAt = timestampPtr(i.ClosedAt)
	}
	if i.ClosedBy != nil {
		closer := convertUser(i.ClosedBy)
		issue.ClosedBy = &closer
	}

	seen := make(map[int64]bool, len(i.Assignees))
	for _, a := range i.Assignees {
		if a == nil || seen[a.GetID()] {
			continue
		}
		seen[a.GetID()] = true
		issue.Assignees = append(issue.Assignees, convertUser(a))
	}
	models.SortUsers(issue.Assignees)
	return issue
}

func convertPullRequest(p *gh.PullRequest) models.PullRequest {
	pr := models.PullRequest{
		ID:           p.GetID(),
		Number:       p.GetNumber(),
		Title:        p.GetTitle(),
		Body:         p.GetBody(),
		State:        models.ParseState(p.GetState()),
		Draft:        p.GetDraft(),
		Author:       convertUser(p.User),
		Labels:       convertLabels(p.Labels),
		Milestone:    convertMilestone(p.Milestone),
		HeadRef:      p.GetHead().GetRef(),
		BaseRef:      p.GetBase().GetRef(),
		MergedAt:     timestampPtr(p.MergedAt),
		Additions:    p.GetAdditions(),
		Deletions:    p.GetDeletions(),
		ChangedFiles: p.GetChangedFiles(),
		CreatedAt:    timestamp(p.GetCreatedAt()),
		UpdatedAt:    timestamp(p.GetUpdatedAt()),
		ClosedAt:     timestampPtr(p.ClosedAt),
	}
	// list responses omit "merged"; merged_at is always present
	pr.Merged = pr.MergedAt != nil
	if pr.Merged {
		pr.State = models.StateClosed
	}
	return pr
}

func convertRelease(r *gh.RepositoryRelease) models.Release {
	return models.Release{
		ID:          r.GetID(),
		TagName:     r.GetTagName(),
		Name:        r.Name,
		Body:        r.Body,
		Draft:       r.GetDraft(),
		Prerelease:  r.GetPrerelease(),
		Author:      convertUser(r.Author),
		CreatedAt:   timestamp(r.GetCreatedAt()),
		PublishedAt: timestampPtr(r.PublishedAt),
	}
}

func convertTimelineEvent(e *gh.Timeline) models.TimelineEvent {
	event := models.TimelineEvent{
		Event:     e.GetEvent(),
		CreatedAt: timestamp(e.GetCreatedAt()),
	}
	if e.Actor != nil {
		actor := convertUser(e.Actor)
		event.Actor = &actor
	}
	return event
}
