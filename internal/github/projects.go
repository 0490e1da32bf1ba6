package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// ProjectsClient reads organization project boards
type ProjectsClient interface {
	ListOrgProjects(ctx context.Context, org string) ([]models.Project, error)
}

// GraphQLClient implements ProjectsClient over the GitHub GraphQL API
type GraphQLClient struct {
	client *githubv4.Client
	logger *logrus.Logger
}

// NewGraphQLClient creates a GraphQL client. An empty endpoint targets github.com.
func NewGraphQLClient(httpClient *http.Client, endpoint string, logger *logrus.Logger) *GraphQLClient {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	var client *githubv4.Client
	if endpoint == "" {
		client = githubv4.NewClient(httpClient)
	} else {
		client = githubv4.NewEnterpriseClient(endpoint, httpClient)
	}
	return &GraphQLClient{client: client, logger: logger}
}

type repositoryRef struct {
	NameWithOwner githubv4.String
}

// projectItemContent is the Issue | PullRequest | DraftIssue union behind a card.
// Redacted content arrives as null and decodes to the zero value.
type projectItemContent struct {
	TypeName    githubv4.String `graphql:"__typename"`
	Issue       issueContent    `graphql:"... on Issue"`
	PullRequest pullContent     `graphql:"... on PullRequest"`
	DraftIssue  struct {
		Title githubv4.String
	} `graphql:"... on DraftIssue"`
}

type issueContent struct {
	Number     githubv4.Int
	Title      githubv4.String
	State      githubv4.String
	Repository repositoryRef
}

// pullContent aliases state; IssueState and PullRequestState cannot share a response key
type pullContent struct {
	Number     githubv4.Int
	Title      githubv4.String
	State      githubv4.String `graphql:"pullState: state"`
	Repository repositoryRef
}

type projectItemNode struct {
	ID      githubv4.ID
	Type    githubv4.String
	Content projectItemContent
}

type projectNode struct {
	ID        githubv4.ID
	Number    githubv4.Int
	Title     githubv4.String
	Closed    githubv4.Boolean
	URL       githubv4.String
	UpdatedAt githubv4.DateTime
	Items     struct {
		TotalCount githubv4.Int
		Nodes      []projectItemNode
	} `graphql:"items(first: 100)"`
}

// ListOrgProjects returns every project of org with up to 100 items each
func (c *GraphQLClient) ListOrgProjects(ctx context.Context, org string) ([]models.Project, error) {
	var query struct {
		Organization struct {
			ProjectsV2 struct {
				Nodes    []projectNode
				PageInfo struct {
					EndCursor   githubv4.String
					HasNextPage githubv4.Boolean
				}
			} `graphql:"projectsV2(first: $first, after: $cursor)"`
		} `graphql:"organization(login: $org)"`
	}

	variables := map[string]interface{}{
		"org":    githubv4.String(org),
		"first":  githubv4.Int(20),
		"cursor": (*githubv4.String)(nil),
	}

	projects := []models.Project{}
	for {
		if err := c.client.Query(ctx, &query, variables); err != nil {
			return nil, classifyGraphQLError(err, org)
		}
		for _, node := range query.Organization.ProjectsV2.Nodes {
			projects = append(projects, convertProject(org, node))
		}

		c.logger.WithFields(logrus.Fields{
			"org":      org,
			"projects": len(projects),
		}).Debug("Fetched projects page")

		if !query.Organization.ProjectsV2.PageInfo.HasNextPage {
			break
		}
		cursor := query.Organization.ProjectsV2.PageInfo.EndCursor
		variables["cursor"] = githubv4.NewString(cursor)
	}
	return projects, nil
}

func convertProject(org string, node projectNode) models.Project {
	p := models.Project{
		ID:        fmt.Sprint(node.ID),
		Org:       org,
		Number:    int(node.Number),
		Title:     string(node.Title),
		Closed:    bool(node.Closed),
		URL:       string(node.URL),
		ItemCount: int(node.Items.TotalCount),
		Items:     make([]models.ProjectItem, 0, len(node.Items.Nodes)),
		UpdatedAt: node.UpdatedAt.Time.UTC(),
	}
	for _, item := range node.Items.Nodes {
		p.Items = append(p.Items, convertProjectItem(item))
	}
	return p
}

// itemKind discriminates the union by __typename, then the item type enum,
// then by which fragment carries data
func (n projectItemNode) itemKind() models.ProjectItemKind {
	switch string(n.Content.TypeName) {
	case "Issue":
		return models.ItemIssue
	case "PullRequest":
		return models.ItemPullRequest
	case "DraftIssue":
		return models.ItemDraftIssue
	}
	switch string(n.Type) {
	case "ISSUE":
		return models.ItemIssue
	case "PULL_REQUEST":
		return models.ItemPullRequest
	case "DRAFT_ISSUE":
		return models.ItemDraftIssue
	case "REDACTED":
		return models.ItemRedacted
	}
	switch {
	case n.Content.PullRequest.Number > 0:
		return models.ItemPullRequest
	case n.Content.Issue.Number > 0:
		return models.ItemIssue
	case n.Content.DraftIssue.Title != "":
		return models.ItemDraftIssue
	}
	return models.ItemRedacted
}

func convertProjectItem(n projectItemNode) models.ProjectItem {
	item := models.ProjectItem{ID: fmt.Sprint(n.ID), Kind: n.itemKind()}

	var content issueContent
	switch item.Kind {
	case models.ItemIssue:
		content = n.Content.Issue
	case models.ItemPullRequest:
		content = issueContent(n.Content.PullRequest)
	case models.ItemDraftIssue:
		item.Title = string(n.Content.DraftIssue.Title)
		return item
	default:
		return item
	}

	item.Number = int(content.Number)
	item.Title = string(content.Title)
	item.State = strings.ToLower(string(content.State))
	item.Repository = string(content.Repository.NameWithOwner)
	return item
}
