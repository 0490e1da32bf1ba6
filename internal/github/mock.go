package github

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// MockRepository is the in-memory content served by MockClient for one repository
type MockRepository struct {
	Repository models.Repository
	Issues     []models.Issue
	Pulls      []models.PullRequest
	Releases   []models.Release
	Milestones []models.Milestone
	Timelines  map[int][]models.TimelineEvent
}

// MockClient is an in-memory SourceClient with per-operation error injection
type MockClient struct {
	mu     sync.Mutex
	repos  map[string]*MockRepository
	errors map[string]error
	calls  map[string]int
}

// Mock operation names, used with FailOn and Calls
const (
	OpGetRepository     = "GetRepository"
	OpListIssues        = "ListIssues"
	OpListPullRequests  = "ListPullRequests"
	OpListReleases      = "ListReleases"
	OpListMilestones    = "ListMilestones"
	OpListIssueTimeline = "ListIssueTimeline"
)

func NewMockClient() *MockClient {
	return &MockClient{
		repos:  make(map[string]*MockRepository),
		errors: make(map[string]error),
		calls:  make(map[string]int),
	}
}

func mockKey(owner, name string) string {
	return strings.ToLower(owner + "/" + name)
}

// AddRepository registers repository content. Owner and Name are taken from repo.Repository.
func (m *MockClient) AddRepository(repo *MockRepository) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repos[mockKey(repo.Repository.Owner, repo.Repository.Name)] = repo
}

// FailOn makes every call of op return err. A nil err clears the failure.
func (m *MockClient) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, op)
		return
	}
	m.errors[op] = err
}

// Calls returns how many times op was invoked
func (m *MockClient) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockClient) lookup(op, owner, name string) (*MockRepository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	if err := m.errors[op]; err != nil {
		return nil, err
	}
	repo, ok := m.repos[mockKey(owner, name)]
	if !ok {
		return nil, apperrors.NewNotFoundError("repository "+owner+"/"+name+" not found", nil)
	}
	return repo, nil
}

func (m *MockClient) GetRepository(_ context.Context, owner, name string) (*models.Repository, error) {
	repo, err := m.lookup(OpGetRepository, owner, name)
	if err != nil {
		return nil, err
	}
	r := repo.Repository
	return &r, nil
}

func (m *MockClient) ListIssues(_ context.Context, ref models.RepoRef, opts ListOptions) ([]models.Issue, error) {
	repo, err := m.lookup(OpListIssues, ref.Owner, ref.Name)
	if err != nil {
		return nil, err
	}
	out := []models.Issue{}
	for _, issue := range repo.Issues {
		if !matchesIssue(issue, opts) {
			continue
		}
		out = append(out, issue)
	}
	return out, nil
}

func matchesIssue(issue models.Issue, opts ListOptions) bool {
	if opts.State != "" && !opts.State.Matches(issue.State) {
		return false
	}
	if opts.Since != nil && issue.UpdatedAt.Before(*opts.Since) {
		return false
	}
	if opts.Milestone != nil && (issue.Milestone == nil || issue.Milestone.Number != *opts.Milestone) {
		return false
	}
	for _, l := range opts.Labels {
		if !issue.HasLabel(l) {
			return false
		}
	}
	if opts.Assignee != "" {
		found := false
		for _, a := range issue.Assignees {
			if strings.EqualFold(a.Login, opts.Assignee) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *MockClient) ListPullRequests(_ context.Context, ref models.RepoRef, opts ListOptions) ([]models.PullRequest, error) {
	repo, err := m.lookup(OpListPullRequests, ref.Owner, ref.Name)
	if err != nil {
		return nil, err
	}
	out := []models.PullRequest{}
	for _, pr := range repo.Pulls {
		if opts.State != "" && !opts.State.Matches(pr.State) {
			continue
		}
		if opts.Since != nil && pr.UpdatedAt.Before(*opts.Since) {
			continue
		}
		out = append(out, pr)
	}
	return out, nil
}

func (m *MockClient) ListReleases(_ context.Context, ref models.RepoRef) ([]models.Release, error) {
	repo, err := m.lookup(OpListReleases, ref.Owner, ref.Name)
	if err != nil {
		return nil, err
	}
	return append([]models.Release{}, repo.Releases...), nil
}

func (m *MockClient) ListMilestones(_ context.Context, ref models.RepoRef) ([]models.Milestone, error) {
	repo, err := m.lookup(OpListMilestones, ref.Owner, ref.Name)
	if err != nil {
		return nil, err
	}
	return append([]models.Milestone{}, repo.Milestones...), nil
}

func (m *MockClient) ListIssueTimeline(_ context.Context, ref models.RepoRef, number int) ([]models.TimelineEvent, error) {
	repo, err := m.lookup(OpListIssueTimeline, ref.Owner, ref.Name)
	if err != nil {
		return nil, err
	}
	return append([]models.TimelineEvent{}, repo.Timelines[number]...), nil
}

// MockFactory hands out one MockClient for every organization, failing for the
// organizations listed in FailOrgs
type MockFactory struct {
	Client   *MockClient
	Projects map[string][]models.Project
	FailOrgs map[string]error
}

func NewMockFactory(client *MockClient) *MockFactory {
	return &MockFactory{
		Client:   client,
		Projects: make(map[string][]models.Project),
		FailOrgs: make(map[string]error),
	}
}

func (f *MockFactory) SourceClient(org string) (SourceClient, error) {
	if err := f.FailOrgs[org]; err != nil {
		return nil, err
	}
	return f.Client, nil
}

func (f *MockFactory) ProjectsClient(org string) (ProjectsClient, error) {
	if err := f.FailOrgs[org]; err != nil {
		return nil, err
	}
	return mockProjects(f.Projects), nil
}

type mockProjects map[string][]models.Project

func (m mockProjects) ListOrgProjects(_ context.Context, org string) ([]models.Project, error) {
	return append([]models.Project{}, m[org]...), nil
}
