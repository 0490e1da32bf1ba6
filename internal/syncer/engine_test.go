package syncer

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamar-Folarin/github-insights/internal/db"
	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/github"
	"github.com/Kamar-Folarin/github-insights/internal/models"
	"github.com/Kamar-Folarin/github-insights/internal/ratelimit"
)

var syncTime = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *db.SQLStore {
	t.Helper()

	store, err := db.Open("sqlite", filepath.Join(t.TempDir(), "insights.db"), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEngine(t *testing.T, store db.Store) (*Engine, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewEngine(store, quietLogger(), WithClock(func() time.Time { return syncTime }), WithRegisterer(reg)), reg
}

func ptr[T any](v T) *T { return &v }

// fixture builds a repository with one milestone, two issues, one pull request and one release
func fixture(id int64, owner, name string) *github.MockRepository {
	base := syncTime.AddDate(0, -2, 0)
	alice := models.User{ID: id*10 + 1, Login: "alice"}
	bob := models.User{ID: id*10 + 2, Login: "bob"}
	milestone := models.Milestone{
		ID:           id*100 + 1,
		Number:       1,
		Title:        "v1.0",
		State:        models.StateOpen,
		OpenIssues:   1,
		ClosedIssues: 1,
		DueOn:        ptr(base.AddDate(0, 3, 0)),
		CreatedAt:    base,
		UpdatedAt:    base.AddDate(0, 0, 1),
	}

	return &github.MockRepository{
		Repository: models.Repository{
			ID:        id,
			Owner:     owner,
			Name:      name,
			FullName:  owner + "/" + name,
			URL:       "https://github.com/" + owner + "/" + name,
			CreatedAt: base.AddDate(-1, 0, 0),
			UpdatedAt: base,
		},
		Milestones: []models.Milestone{milestone},
		Issues: []models.Issue{
			{
				ID:        id*1000 + 1,
				Number:    1,
				Title:     "Crash on start",
				State:     models.StateClosed,
				Labels:    []models.Label{{ID: id*10 + 5, Name: "bug"}, {ID: id*10 + 6, Name: "p1"}},
				Assignees: []models.User{alice, bob},
				Milestone: &milestone,
				Author:    bob,
				Comments:  2,
				CreatedAt: base.AddDate(0, 0, 2),
				UpdatedAt: base.AddDate(0, 0, 5),
				ClosedAt:  ptr(base.AddDate(0, 0, 5)),
				ClosedBy:  &alice,
			},
			{
				ID:        id*1000 + 2,
				Number:    2,
				Title:     "Add dark mode",
				State:     models.StateOpen,
				Labels:    []models.Label{},
				Assignees: []models.User{},
				Author:    alice,
				CreatedAt: base.AddDate(0, 0, 3),
				UpdatedAt: base.AddDate(0, 0, 3),
			},
		},
		Pulls: []models.PullRequest{
			{
				ID:           id*1000 + 3,
				Number:       3,
				Title:        "Fix crash",
				State:        models.StateClosed,
				Author:       alice,
				Labels:       []models.Label{},
				HeadRef:      "fix-crash",
				BaseRef:      "main",
				Merged:       true,
				MergedAt:     ptr(base.AddDate(0, 0, 5)),
				Additions:    12,
				Deletions:    4,
				ChangedFiles: 2,
				CreatedAt:    base.AddDate(0, 0, 4),
				UpdatedAt:    base.AddDate(0, 0, 5),
				ClosedAt:     ptr(base.AddDate(0, 0, 5)),
			},
		},
		Releases: []models.Release{
			{
				ID:          id*1000 + 4,
				TagName:     "v0.9.0",
				Name:        ptr("Preview"),
				Author:      bob,
				CreatedAt:   base.AddDate(0, 0, 6),
				PublishedAt: ptr(base.AddDate(0, 0, 6)),
			},
		},
	}
}

type storeSnapshot struct {
	Issues     []models.Issue
	Pulls      []models.PullRequest
	Releases   []models.Release
	Milestones []models.Milestone
	Status     *models.SyncStatus
}

func snapshot(t *testing.T, store db.Store, repoID int64) storeSnapshot {
	t.Helper()
	ctx := context.Background()
	conv := db.NewConverter(store)

	var s storeSnapshot
	var err error
	s.Issues, err = conv.Issues(ctx, repoID, db.IssueFilter{})
	require.NoError(t, err)
	s.Pulls, err = conv.PullRequests(ctx, repoID, db.PullFilter{})
	require.NoError(t, err)
	s.Releases, err = conv.Releases(ctx, repoID)
	require.NoError(t, err)
	s.Milestones, err = conv.Milestones(ctx, repoID)
	require.NoError(t, err)
	s.Status, err = store.GetSyncStatus(ctx, repoID)
	require.NoError(t, err)
	return s
}

func TestSyncRepository(t *testing.T) {
	store := setupTestDB(t)
	engine, reg := newTestEngine(t, store)
	client := github.NewMockClient()
	repo := fixture(1, "octo", "widgets")
	client.AddRepository(repo)

	result, err := engine.SyncRepository(context.Background(), client, "octo", "widgets")
	require.NoError(t, err)

	assert.Equal(t, &SyncResult{
		Repository:       "octo/widgets",
		RepositoryID:     1,
		MilestonesSynced: 1,
		IssuesSynced:     2,
		PullsSynced:      1,
		ReleasesSynced:   1,
		SyncedAt:         syncTime,
	}, result)

	s := snapshot(t, store, 1)
	assert.Equal(t, repo.Issues, s.Issues)
	assert.Equal(t, repo.Milestones, s.Milestones)
	require.Len(t, s.Pulls, 1)
	assert.Equal(t, repo.Pulls[0], s.Pulls[0])
	require.Len(t, s.Releases, 1)
	assert.Equal(t, repo.Releases[0], s.Releases[0])

	require.NotNil(t, s.Status)
	for _, kind := range []models.EntityKind{models.KindIssues, models.KindPulls, models.KindReleases, models.KindMilestones} {
		at, ok := s.Status.SyncedAt(kind)
		assert.True(t, ok, kind)
		assert.Equal(t, syncTime, at, kind)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(engine.metrics.repositories.WithLabelValues(outcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(engine.metrics.entities.WithLabelValues(StepIssues)))
	assert.Equal(t, 1, testutil.CollectAndCount(engine.metrics.duration))
	_, err = reg.Gather()
	require.NoError(t, err)
}

func TestSyncRepository_Idempotent(t *testing.T) {
	store := setupTestDB(t)
	engine, _ := newTestEngine(t, store)
	client := github.NewMockClient()
	client.AddRepository(fixture(1, "octo", "widgets"))
	ctx := context.Background()

	first, err := engine.SyncRepository(ctx, client, "octo", "widgets")
	require.NoError(t, err)
	before := snapshot(t, store, 1)

	second, err := engine.SyncRepository(ctx, client, "octo", "widgets")
	require.NoError(t, err)
	after := snapshot(t, store, 1)

	assert.Equal(t, first, second)
	assert.Equal(t, before, after)

	repos, err := store.ListRepositories(ctx)
	require.NoError(t, err)
	assert.Len(t, repos, 1)
}

func TestSyncRepository_ReplacesAssociations(t *testing.T) {
	store := setupTestDB(t)
	engine, _ := newTestEngine(t, store)
	client := github.NewMockClient()
	repo := fixture(1, "octo", "widgets")
	client.AddRepository(repo)
	ctx := context.Background()

	_, err := engine.SyncRepository(ctx, client, "octo", "widgets")
	require.NoError(t, err)

	repo.Issues[0].Labels = []models.Label{{ID: 16, Name: "p1"}}
	repo.Issues[0].Assignees = []models.User{}
	_, err = engine.SyncRepository(ctx, client, "octo", "widgets")
	require.NoError(t, err)

	issues, err := db.NewConverter(store).Issues(ctx, 1, db.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, []models.Label{{ID: 16, Name: "p1"}}, issues[0].Labels)
	assert.Empty(t, issues[0].Assignees)
}

func TestSyncRepository_StepFailure(t *testing.T) {
	store := setupTestDB(t)
	engine, _ := newTestEngine(t, store)
	client := github.NewMockClient()
	client.AddRepository(fixture(1, "octo", "widgets"))
	client.FailOn(github.OpListPullRequests, apperrors.NewRateLimitError(syncTime.Add(time.Hour), 5000, 0))
	ctx := context.Background()

	_, err := engine.SyncRepository(ctx, client, "octo", "widgets")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimit(err))
	assert.Contains(t, err.Error(), StepPulls)

	// earlier steps are kept, later ones never ran
	s := snapshot(t, store, 1)
	assert.Len(t, s.Issues, 2)
	assert.Empty(t, s.Pulls)
	assert.Nil(t, s.Status)
	assert.Equal(t, 0, client.Calls(github.OpListReleases))
	assert.Equal(t, 1.0, testutil.ToFloat64(engine.metrics.repositories.WithLabelValues(outcomeFailure)))
}

func TestSyncRepository_NotFound(t *testing.T) {
	store := setupTestDB(t)
	engine, _ := newTestEngine(t, store)

	_, err := engine.SyncRepository(context.Background(), github.NewMockClient(), "octo", "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

type blockingClient struct {
	*github.MockClient
	entered chan struct{}
	release chan struct{}
}

func (c *blockingClient) GetRepository(ctx context.Context, owner, name string) (*models.Repository, error) {
	close(c.entered)
	<-c.release
	return c.MockClient.GetRepository(ctx, owner, name)
}

func TestSyncRepository_InProgress(t *testing.T) {
	store := setupTestDB(t)
	engine, _ := newTestEngine(t, store)
	mock := github.NewMockClient()
	mock.AddRepository(fixture(1, "octo", "widgets"))
	client := &blockingClient{MockClient: mock, entered: make(chan struct{}), release: make(chan struct{})}

	errc := make(chan error, 1)
	go func() {
		_, err := engine.SyncRepository(context.Background(), client, "octo", "widgets")
		errc <- err
	}()
	<-client.entered

	assert.True(t, engine.InProgress("Octo", "Widgets"))
	_, err := engine.SyncRepository(context.Background(), mock, "OCTO", "widgets")
	assert.True(t, apperrors.IsSyncInProgress(err))

	close(client.release)
	require.NoError(t, <-errc)
	assert.False(t, engine.InProgress("octo", "widgets"))
}

func trackAll(t *testing.T, store db.Store, repos ...*github.MockRepository) {
	t.Helper()
	for _, r := range repos {
		require.NoError(t, store.UpsertRepository(context.Background(), db.RepositoryRowFrom(&r.Repository)))
	}
}

func TestSyncBatch_PartialFailure(t *testing.T) {
	store := setupTestDB(t)
	engine, _ := newTestEngine(t, store)
	client := github.NewMockClient()
	one, two, three := fixture(1, "a", "one"), fixture(2, "b", "two"), fixture(3, "c", "three")
	for _, r := range []*github.MockRepository{one, two, three} {
		client.AddRepository(r)
	}
	trackAll(t, store, one, two, three)

	factory := github.NewMockFactory(client)
	factory.FailOrgs["b"] = apperrors.NewUnauthorizedError("no token for b", nil)
	factory.Projects["a"] = []models.Project{{
		ID:        "PVT_1",
		Org:       "a",
		Number:    1,
		Title:     "Roadmap",
		ItemCount: 2,
		Items: []models.ProjectItem{
			{ID: "PVTI_1", Kind: models.ItemIssue, Number: 1, Title: "Crash on start", State: "closed", Repository: "a/one"},
			{ID: "PVTI_2", Kind: models.ItemDraftIssue, Title: "Plan v2"},
		},
		UpdatedAt: syncTime,
	}}
	limiter := ratelimit.NewCounting(ratelimit.Unlimited())

	result, err := engine.SyncBatch(context.Background(), factory, limiter)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
	assert.Equal(t, "b/two", result.Results[1].Repository)
	assert.Equal(t, apperrors.ErrUnauthorized, result.Results[1].ErrorType)
	assert.True(t, result.Results[2].Success, "repository after a failure still syncs")
	assert.Equal(t, 2, result.Results[2].Result.IssuesSynced)

	status, err := store.GetSyncStatus(context.Background(), 3)
	require.NoError(t, err)
	assert.NotNil(t, status)
	status, err = store.GetSyncStatus(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, status)

	require.Len(t, result.Projects, 3)
	assert.Equal(t, ProjectOutcome{Org: "a", Projects: 1, Items: 2}, result.Projects[0])
	assert.NotEmpty(t, result.Projects[1].Error)
	assert.Empty(t, result.Projects[2].Error)

	projects, err := store.ListProjects(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Len(t, projects[0].Items, 2)

	assert.Equal(t, 6, limiter.Calls(), "one wait per repository and per organization")
	assert.Equal(t, 1.0, testutil.ToFloat64(engine.metrics.projects.WithLabelValues(outcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(engine.metrics.repositories.WithLabelValues(outcomeFailure)))
}

func TestSyncBatch_DeduplicatesOrganizations(t *testing.T) {
	store := setupTestDB(t)
	engine, _ := newTestEngine(t, store)
	client := github.NewMockClient()
	one, two := fixture(1, "acme", "one"), fixture(2, "ACME", "two")
	client.AddRepository(one)
	client.AddRepository(two)
	trackAll(t, store, one, two)

	result, err := engine.SyncBatch(context.Background(), github.NewMockFactory(client), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Successful)
	require.Len(t, result.Projects, 1)
}

type closedLimiter struct{}

var errLimiterClosed = errors.New("limiter closed")

func (closedLimiter) Wait(context.Context) error { return errLimiterClosed }

func TestSyncBatch_LimiterFailure(t *testing.T) {
	store := setupTestDB(t)
	engine, _ := newTestEngine(t, store)
	client := github.NewMockClient()
	one, two := fixture(1, "a", "one"), fixture(2, "b", "two")
	client.AddRepository(one)
	client.AddRepository(two)
	trackAll(t, store, one, two)

	result, err := engine.SyncBatch(context.Background(), github.NewMockFactory(client), closedLimiter{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, result.Total, result.Successful+result.Failed)
	for _, r := range result.Results {
		assert.Equal(t, errLimiterClosed.Error(), r.Error)
	}
	for _, p := range result.Projects {
		assert.Equal(t, errLimiterClosed.Error(), p.Error)
	}
	assert.Equal(t, 0, client.Calls(github.OpGetRepository))
}

func TestStartScheduler(t *testing.T) {
	store := setupTestDB(t)
	engine, _ := newTestEngine(t, store)
	client := github.NewMockClient()
	repo := fixture(1, "octo", "widgets")
	client.AddRepository(repo)
	trackAll(t, store, repo)

	ctx, cancel := context.WithCancel(context.Background())
	done := engine.StartScheduler(ctx, time.Hour, github.NewMockFactory(client), nil)

	require.Eventually(t, func() bool {
		return client.Calls(github.OpListReleases) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStartScheduler_Disabled(t *testing.T) {
	engine, _ := newTestEngine(t, setupTestDB(t))
	done := engine.StartScheduler(context.Background(), 0, github.NewMockFactory(github.NewMockClient()), nil)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled scheduler should exit immediately")
	}
}
