package models

import "time"

// ProjectItemKind discriminates the content behind a project board item
type ProjectItemKind string

const (
	ItemIssue       ProjectItemKind = "issue"
	ItemPullRequest ProjectItemKind = "pull_request"
	ItemDraftIssue  ProjectItemKind = "draft_issue"
	// ItemRedacted is content the credential cannot see
	ItemRedacted ProjectItemKind = "redacted"
)

// Project is an organization project board
type Project struct {
	ID        string        `json:"id"`
	Org       string        `json:"org"`
	Number    int           `json:"number"`
	Title     string        `json:"title"`
	Closed    bool          `json:"closed"`
	URL       string        `json:"url"`
	ItemCount int           `json:"item_count"`
	Items     []ProjectItem `json:"items,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ProjectItem is a card on a project board. Number and Repository are empty for drafts.
type ProjectItem struct {
	ID         string          `json:"id"`
	Kind       ProjectItemKind `json:"kind"`
	Number     int             `json:"number,omitempty"`
	Title      string          `json:"title"`
	State      string          `json:"state,omitempty"`
	Repository string          `json:"repository,omitempty"`
}
