package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v69/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
	"github.com/Kamar-Folarin/github-insights/internal/ratelimit"
)

const defaultPerPage = 100

// SourceClient is the set of forge operations the sync pipeline and reports consume.
// Implementations paginate until exhaustion and return classified errors.
type SourceClient interface {
	GetRepository(ctx context.Context, owner, name string) (*models.Repository, error)
	ListIssues(ctx context.Context, ref models.RepoRef, opts ListOptions) ([]models.Issue, error)
	ListPullRequests(ctx context.Context, ref models.RepoRef, opts ListOptions) ([]models.PullRequest, error)
	ListReleases(ctx context.Context, ref models.RepoRef) ([]models.Release, error)
	ListMilestones(ctx context.Context, ref models.RepoRef) ([]models.Milestone, error)
	ListIssueTimeline(ctx context.Context, ref models.RepoRef, number int) ([]models.TimelineEvent, error)
}

// ListOptions filters list operations. Zero values mean no filter.
type ListOptions struct {
	State     models.StateFilter
	Labels    []string
	Assignee  string
	Milestone *int
	Since     *time.Time
	PerPage   int
	// WithStats fetches each pull request individually to fill in line and file counts
	WithStats bool
}

func (o ListOptions) state() string {
	if o.State == "" {
		return string(models.FilterAll)
	}
	return string(o.State)
}

func (o ListOptions) perPage() int {
	if o.PerPage <= 0 || o.PerPage > defaultPerPage {
		return defaultPerPage
	}
	return o.PerPage
}

// LiveClient implements SourceClient against the GitHub REST API
type LiveClient struct {
	client    *gh.Client
	transport *retryTransport
	logger    *logrus.Logger
}

type clientSettings struct {
	baseURL        string
	limiter        ratelimit.Limiter
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	httpClient     *http.Client
}

// ClientOption allows configuring the GitHub client
type ClientOption func(*clientSettings)

// WithRetryConfig configures retry behavior
func WithRetryConfig(maxRetries int, initialBackoff, maxBackoff time.Duration) ClientOption {
	return func(s *clientSettings) {
		s.maxRetries = maxRetries
		s.initialBackoff = initialBackoff
		s.maxBackoff = maxBackoff
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test server
func WithBaseURL(baseURL string) ClientOption {
	return func(s *clientSettings) {
		s.baseURL = baseURL
	}
}

// WithLimiter paces every request through limiter
func WithLimiter(limiter ratelimit.Limiter) ClientOption {
	return func(s *clientSettings) {
		s.limiter = limiter
	}
}

// WithHTTPClient replaces the underlying HTTP client; its transport is wrapped, not replaced
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *clientSettings) {
		s.httpClient = c
	}
}

// NewLiveClient creates a new GitHub client with the given token and options
func NewLiveClient(token string, logger *logrus.Logger, opts ...ClientOption) (*LiveClient, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	settings := &clientSettings{
		limiter:        ratelimit.Unlimited(),
		maxRetries:     3,
		initialBackoff: time.Second,
		maxBackoff:     time.Minute,
	}
	for _, opt := range opts {
		opt(settings)
	}

	httpClient := settings.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
		if token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
			httpClient = oauth2.NewClient(context.Background(), ts)
		}
		httpClient.Timeout = 120 * time.Second
	}

	transport := newRetryTransport(httpClient.Transport, settings.limiter, logger)
	transport.maxRetries = settings.maxRetries
	transport.initialBackoff = settings.initialBackoff
	transport.maxBackoff = settings.maxBackoff

	wrapped := *httpClient
	wrapped.Transport = transport
	client := gh.NewClient(&wrapped)

	if settings.baseURL != "" {
		base := settings.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid GitHub API URL %q", settings.baseURL), err)
		}
		client.BaseURL = u
	}

	return &LiveClient{client: client, transport: transport, logger: logger}, nil
}

// RateLimit returns the rate limit state reported by the last response
func (c *LiveClient) RateLimit() RateLimitInfo {
	return c.transport.RateLimit()
}

// GetRepository gets repository information from GitHub
func (c *LiveClient) GetRepository(ctx context.Context, owner, name string) (*models.Repository, error) {
	if owner == "" || name == "" {
		return nil, apperrors.NewInvalidFormatError("owner and name cannot be empty", nil)
	}

	repo, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, classifyError(err, fmt.Sprintf("repository %s/%s", owner, name))
	}
	return convertRepository(repo), nil
}

// ListIssues lists issues, excluding pull requests, across every page
func (c *LiveClient) ListIssues(ctx context.Context, ref models.RepoRef, opts ListOptions) ([]models.Issue, error) {
	listOpts := &gh.IssueListByRepoOptions{
		State:       opts.state(),
		Labels:      opts.Labels,
		Assignee:    opts.Assignee,
		Sort:        "created",
		Direction:   "asc",
		ListOptions: gh.ListOptions{PerPage: opts.perPage()},
	}
	if opts.Milestone != nil {
		listOpts.Milestone = strconv.Itoa(*opts.Milestone)
	}
	if opts.Since != nil {
		listOpts.Since = *opts.Since
	}

	out := []models.Issue{}
	for {
		page, resp, err := c.client.Issues.ListByRepo(ctx, ref.Owner, ref.Name, listOpts)
		if err != nil {
			return nil, classifyError(err, fmt.Sprintf("issues of %s", ref))
		}
		for _, issue := range page {
			if issue.IsPullRequest() {
				continue
			}
			out = append(out, convertIssue(issue))
		}
		c.logger.WithFields(logrus.Fields{
			"repository": ref.FullName(),
			"page":       listOpts.Page,
			"count":      len(page),
		}).Debug("Fetched issues page")

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return out, nil
}

// ListPullRequests lists pull requests across every page. Since is applied client side.
func (c *LiveClient) ListPullRequests(ctx context.Context, ref models.RepoRef, opts ListOptions) ([]models.PullRequest, error) {
	listOpts := &gh.PullRequestListOptions{
		State:       opts.state(),
		Sort:        "created",
		Direction:   "asc",
		ListOptions: gh.ListOptions{PerPage: opts.perPage()},
	}

	out := []models.PullRequest{}
	for {
		page, resp, err := c.client.PullRequests.List(ctx, ref.Owner, ref.Name, listOpts)
		if err != nil {
			return nil, classifyError(err, fmt.Sprintf("pull requests of %s", ref))
		}
		for _, pr := range page {
			if opts.Since != nil && pr.GetUpdatedAt().Time.Before(*opts.Since) {
				continue
			}
			if opts.WithStats && pr.Additions == nil {
				full, _, err := c.client.PullRequests.Get(ctx, ref.Owner, ref.Name, pr.GetNumber())
				if err != nil {
					return nil, classifyError(err, fmt.Sprintf("pull request %s#%d", ref, pr.GetNumber()))
				}
				pr = full
			}
			out = append(out, convertPullRequest(pr))
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return out, nil
}

func (c *LiveClient) ListReleases(ctx context.Context, ref models.RepoRef) ([]models.Release, error) {
	listOpts := &gh.ListOptions{PerPage: defaultPerPage}

	out := []models.Release{}
	for {
		page, resp, err := c.client.Repositories.ListReleases(ctx, ref.Owner, ref.Name, listOpts)
		if err != nil {
			return nil, classifyError(err, fmt.Sprintf("releases of %s", ref))
		}
		for _, r := range page {
			out = append(out, convertRelease(r))
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return out, nil
}

// ListMilestones lists open and closed milestones
func (c *LiveClient) ListMilestones(ctx context.Context, ref models.RepoRef) ([]models.Milestone, error) {
	listOpts := &gh.MilestoneListOptions{
		State:       string(models.FilterAll),
		ListOptions: gh.ListOptions{PerPage: defaultPerPage},
	}

	out := []models.Milestone{}
	for {
		page, resp, err := c.client.Issues.ListMilestones(ctx, ref.Owner, ref.Name, listOpts)
		if err != nil {
			return nil, classifyError(err, fmt.Sprintf("milestones of %s", ref))
		}
		for _, m := range page {
			out = append(out, *convertMilestone(m))
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return out, nil
}

func (c *LiveClient) ListIssueTimeline(ctx context.Context, ref models.RepoRef, number int) ([]models.TimelineEvent, error) {
	listOpts := &gh.ListOptions{PerPage: defaultPerPage}

	out := []models.TimelineEvent{}
	for {
		page, resp, err := c.client.Issues.ListIssueTimeline(ctx, ref.Owner, ref.Name, number, listOpts)
		if err != nil {
			return nil, classifyError(err, fmt.Sprintf("timeline of %s#%d", ref, number))
		}
		for _, e := range page {
			out = append(out, convertTimelineEvent(e))
		}

		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return out, nil
}
