package db

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

var baseTime = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *SQLStore {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := Open("sqlite", filepath.Join(t.TempDir(), "insights.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testRepositoryRow() *RepositoryRow {
	return &RepositoryRow{
		ID:          101,
		Owner:       "octo",
		Name:        "widgets",
		FullName:    "octo/widgets",
		Description: "Widget factory",
		URL:         "https://github.com/octo/widgets",
		Language:    "Go",
		StarsCount:  42,
		CreatedAt:   baseTime.AddDate(-1, 0, 0),
		UpdatedAt:   baseTime,
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: dialectPostgres}
	lite := &SQLStore{dialect: dialectSQLite}

	q := "SELECT * FROM issues WHERE repository_id = ? AND state = ?"
	assert.Equal(t, "SELECT * FROM issues WHERE repository_id = $1 AND state = $2", pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "whatever", nil)
	assert.Error(t, err)
}

func TestRepositoryOperations(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	t.Run("upsert and get repository", func(t *testing.T) {
		repo := testRepositoryRow()
		require.NoError(t, store.UpsertRepository(ctx, repo))

		saved, err := store.GetRepository(ctx, repo.ID)
		require.NoError(t, err)
		assert.Equal(t, repo.FullName, saved.FullName)
		assert.Equal(t, repo.StarsCount, saved.StarsCount)
		assert.True(t, repo.UpdatedAt.Equal(saved.UpdatedAt))

		byName, err := store.GetRepositoryByName(ctx, "Octo", "Widgets")
		require.NoError(t, err)
		assert.Equal(t, repo.ID, byName.ID)
	})

	t.Run("upsert replaces attributes", func(t *testing.T) {
		repo := testRepositoryRow()
		repo.StarsCount = 43
		require.NoError(t, store.UpsertRepository(ctx, repo))

		repos, err := store.ListRepositories(ctx)
		require.NoError(t, err)
		require.Len(t, repos, 1)
		assert.Equal(t, 43, repos[0].StarsCount)
	})

	t.Run("missing repository is not found", func(t *testing.T) {
		_, err := store.GetRepository(ctx, 999)
		assert.True(t, apperrors.IsNotFound(err))

		_, err = store.GetRepositoryByName(ctx, "octo", "missing")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestReplaceIssueLabelsIsNotAdditive(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertRepository(ctx, testRepositoryRow()))

	issue := &IssueRow{
		RepositoryID: 101, ID: 5001, Number: 1, Title: "Crash", State: "open",
		CreatedAt: baseTime, UpdatedAt: baseTime,
	}
	require.NoError(t, store.UpsertIssue(ctx, issue))

	bug := &LabelRow{ID: 1, Name: "bug", Color: "d73a4a"}
	ui := &LabelRow{ID: 2, Name: "ui"}
	docs := &LabelRow{ID: 3, Name: "docs"}

	require.NoError(t, store.ReplaceIssueLabels(ctx, 101, 5001, []*LabelRow{bug, ui}))
	require.NoError(t, store.ReplaceIssueLabels(ctx, 101, 5001, []*LabelRow{docs, ui}))

	labels, err := store.ListIssueLabels(ctx, 101, 5001)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "docs", labels[0].Name)
	assert.Equal(t, "ui", labels[1].Name)

	require.NoError(t, store.ReplaceIssueAssignees(ctx, 101, 5001, []int64{7, 8}))
	require.NoError(t, store.ReplaceIssueAssignees(ctx, 101, 5001, []int64{8}))
	assignees, err := store.ListIssueAssignees(ctx, 101, 5001)
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, assignees)
}

func TestListIssuesFilters(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	closedAt := baseTime.Add(2 * time.Hour)
	rows := []*IssueRow{
		{RepositoryID: 101, ID: 1, Number: 1, Title: "a", State: "open", CreatedAt: baseTime, UpdatedAt: baseTime,
			MilestoneID: sql.NullInt64{Int64: 900, Valid: true}},
		{RepositoryID: 101, ID: 2, Number: 2, Title: "b", State: "closed", CreatedAt: baseTime, UpdatedAt: closedAt,
			ClosedAt: sql.NullTime{Time: closedAt, Valid: true}},
		{RepositoryID: 202, ID: 3, Number: 1, Title: "other repo", State: "open", CreatedAt: baseTime, UpdatedAt: baseTime},
	}
	for _, r := range rows {
		require.NoError(t, store.UpsertIssue(ctx, r))
	}

	all, err := store.ListIssues(ctx, 101, IssueFilter{State: models.FilterAll})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	closed, err := store.ListIssues(ctx, 101, IssueFilter{State: models.FilterClosed})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.True(t, closed[0].ClosedAt.Valid)
	assert.True(t, closedAt.Equal(closed[0].ClosedAt.Time))

	since := baseTime.Add(time.Hour)
	recent, err := store.ListIssues(ctx, 101, IssueFilter{Since: &since})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 2, recent[0].Number)

	milestoneID := int64(900)
	inMilestone, err := store.ListIssues(ctx, 101, IssueFilter{MilestoneID: &milestoneID})
	require.NoError(t, err)
	require.Len(t, inMilestone, 1)
	assert.Equal(t, 1, inMilestone[0].Number)
}

func TestSyncStatusRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	status, err := store.GetSyncStatus(ctx, 101)
	require.NoError(t, err)
	assert.Nil(t, status)

	s := &models.SyncStatus{RepositoryID: 101}
	s.MarkAll(baseTime)
	require.NoError(t, store.UpsertSyncStatus(ctx, s))

	got, err := store.GetSyncStatus(ctx, 101)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IssuesSynced && got.PullsSynced && got.ReleasesSynced && got.MilestonesSynced)
	require.NotNil(t, got.ReleasesSyncedAt)
	assert.Equal(t, baseTime, *got.ReleasesSyncedAt)
	assert.True(t, got.IsFresh(models.KindIssues, time.Hour, baseTime.Add(30*time.Minute)))
	assert.False(t, got.IsFresh(models.KindIssues, time.Hour, baseTime.Add(2*time.Hour)))
}

func TestDeleteRepositoryPurgesRows(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertRepository(ctx, testRepositoryRow()))
	require.NoError(t, store.UpsertIssue(ctx, &IssueRow{
		RepositoryID: 101, ID: 1, Number: 1, Title: "a", State: "open", CreatedAt: baseTime, UpdatedAt: baseTime,
	}))
	require.NoError(t, store.ReplaceIssueLabels(ctx, 101, 1, []*LabelRow{{ID: 1, Name: "bug"}}))
	require.NoError(t, store.UpsertPullRequest(ctx, &PullRequestRow{
		RepositoryID: 101, ID: 2, Number: 2, Title: "b", State: "open", CreatedAt: baseTime, UpdatedAt: baseTime,
	}))

	require.NoError(t, store.DeleteRepository(ctx, 101))

	issues, err := store.ListIssues(ctx, 101, IssueFilter{})
	require.NoError(t, err)
	assert.Empty(t, issues)
	pulls, err := store.ListPullRequests(ctx, 101, PullFilter{})
	require.NoError(t, err)
	assert.Empty(t, pulls)
	labels, err := store.ListIssueLabels(ctx, 101, 1)
	require.NoError(t, err)
	assert.Empty(t, labels)

	assert.True(t, apperrors.IsNotFound(store.DeleteRepository(ctx, 101)))
}

func TestProjectsRoundTrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	project := &models.Project{ID: "PVT_1", Org: "octo", Number: 3, Title: "Roadmap", ItemCount: 2, UpdatedAt: baseTime}
	require.NoError(t, store.UpsertProject(ctx, project))
	require.NoError(t, store.ReplaceProjectItems(ctx, project.ID, []models.ProjectItem{
		{ID: "I2", Kind: models.ItemDraftIssue, Title: "Write launch post"},
		{ID: "I1", Kind: models.ItemIssue, Number: 12, Title: "Crash", State: "OPEN", Repository: "octo/widgets"},
	}))

	projects, err := store.ListProjects(ctx, "octo")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Len(t, projects[0].Items, 2)
	assert.Equal(t, "I2", projects[0].Items[0].ID)
	assert.Equal(t, models.ItemIssue, projects[0].Items[1].Kind)
	assert.Equal(t, 12, projects[0].Items[1].Number)
}
