package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

func ptr[T any](v T) *T { return &v }

// persist writes entities the way the sync engine does
func persist(t *testing.T, store Store, repoID int64, milestones []models.Milestone, issues []models.Issue,
	pulls []models.PullRequest, releases []models.Release) {
	t.Helper()
	ctx := context.Background()

	for i := range milestones {
		require.NoError(t, store.UpsertMilestone(ctx, MilestoneRowFrom(repoID, &milestones[i])))
	}
	for i := range issues {
		issue := &issues[i]
		users := append([]models.User{issue.Author}, issue.Assignees...)
		if issue.ClosedBy != nil {
			users = append(users, *issue.ClosedBy)
		}
		for _, u := range users {
			require.NoError(t, store.UpsertUser(ctx, UserRowFrom(u)))
		}
		require.NoError(t, store.UpsertIssue(ctx, IssueRowFrom(repoID, issue)))

		labels := make([]*LabelRow, 0, len(issue.Labels))
		for _, l := range issue.Labels {
			labels = append(labels, LabelRowFrom(repoID, l))
		}
		require.NoError(t, store.ReplaceIssueLabels(ctx, repoID, issue.ID, labels))

		ids := make([]int64, 0, len(issue.Assignees))
		for _, a := range issue.Assignees {
			ids = append(ids, a.ID)
		}
		require.NoError(t, store.ReplaceIssueAssignees(ctx, repoID, issue.ID, ids))
	}
	for i := range pulls {
		require.NoError(t, store.UpsertUser(ctx, UserRowFrom(pulls[i].Author)))
		require.NoError(t, store.UpsertPullRequest(ctx, PullRequestRowFrom(repoID, &pulls[i])))
	}
	for i := range releases {
		require.NoError(t, store.UpsertUser(ctx, UserRowFrom(releases[i].Author)))
		require.NoError(t, store.UpsertRelease(ctx, ReleaseRowFrom(repoID, &releases[i])))
	}
}

func TestConverterIssueRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	conv := NewConverter(store)
	ctx := context.Background()

	alice := models.User{ID: 1, Login: "alice", AvatarURL: "https://avatars/1"}
	bob := models.User{ID: 2, Login: "bob"}
	milestone := models.Milestone{
		ID: 900, Number: 4, Title: "v1.0", Description: ptr("First stable"), State: models.StateOpen,
		OpenIssues: 1, ClosedIssues: 1, DueOn: ptr(baseTime.AddDate(0, 0, 14)),
		CreatedAt: baseTime.AddDate(0, 0, -14), UpdatedAt: baseTime,
	}
	closedAt := baseTime.Add(-time.Hour)
	issues := []models.Issue{
		{
			ID: 5001, Number: 1, Title: "Crash on start", Body: "stack trace", State: models.StateClosed,
			Labels:    []models.Label{{ID: 10, Name: "bug", Color: "d73a4a"}, {ID: 11, Name: "p1"}},
			Assignees: []models.User{alice, bob}, Milestone: &milestone, Author: bob, Comments: 3,
			CreatedAt: baseTime.AddDate(0, 0, -3), UpdatedAt: closedAt, ClosedAt: &closedAt, ClosedBy: &alice,
		},
		{
			ID: 5002, Number: 2, Title: "Dark mode", State: models.StateOpen,
			Labels: []models.Label{}, Assignees: []models.User{}, Author: alice,
			CreatedAt: baseTime.AddDate(0, 0, -1), UpdatedAt: baseTime,
		},
	}

	persist(t, store, 101, []models.Milestone{milestone}, issues, nil, nil)

	got, err := conv.Issues(ctx, 101, IssueFilter{})
	require.NoError(t, err)
	assert.Equal(t, issues, got)

	// a second write of the same input leaves identical state
	persist(t, store, 101, []models.Milestone{milestone}, issues, nil, nil)
	again, err := conv.Issues(ctx, 101, IssueFilter{})
	require.NoError(t, err)
	assert.Equal(t, got, again)

	m, err := conv.Milestone(ctx, 101, 4)
	require.NoError(t, err)
	assert.Equal(t, &milestone, m)
}

func TestConverterPullsAndReleases(t *testing.T) {
	store := setupTestDB(t)
	conv := NewConverter(store)
	ctx := context.Background()

	carol := models.User{ID: 3, Login: "carol"}
	mergedAt := baseTime.Add(-2 * time.Hour)
	pulls := []models.PullRequest{{
		ID: 7001, Number: 10, Title: "Fix crash", State: models.StateClosed, Author: carol,
		Labels:  []models.Label{{ID: 10, Name: "bug"}},
		HeadRef: "fix/crash", BaseRef: "main", Merged: true, MergedAt: &mergedAt,
		Additions: 12, Deletions: 3, ChangedFiles: 2,
		CreatedAt: baseTime.AddDate(0, 0, -2), UpdatedAt: mergedAt, ClosedAt: &mergedAt,
	}}
	releases := []models.Release{{
		ID: 8001, TagName: "v1.0.0", Name: ptr("One"), Author: carol,
		CreatedAt: baseTime, PublishedAt: ptr(baseTime),
	}}
	persist(t, store, 101, nil, nil, pulls, releases)

	gotPulls, err := conv.PullRequests(ctx, 101, PullFilter{})
	require.NoError(t, err)
	require.Len(t, gotPulls, 1)

	// pull labels are not persisted
	want := pulls[0]
	want.Labels = []models.Label{}
	assert.Equal(t, want, gotPulls[0])

	gotReleases, err := conv.Releases(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, releases, gotReleases)
	assert.Nil(t, gotReleases[0].Body)
}

func TestConverterUnknownAuthor(t *testing.T) {
	store := setupTestDB(t)
	conv := NewConverter(store)
	ctx := context.Background()

	require.NoError(t, store.UpsertIssue(ctx, &IssueRow{
		RepositoryID: 101, ID: 1, Number: 1, Title: "orphan", State: "open", AuthorID: 77,
		CreatedAt: baseTime, UpdatedAt: baseTime,
	}))

	issues, err := conv.Issues(ctx, 101, IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.User{ID: 77}, issues[0].Author)
	assert.Nil(t, issues[0].Milestone)
}
