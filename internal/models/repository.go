package models

import "time"

// Repository holds repository metadata. ID is the forge-assigned id.
type Repository struct {
	ID              int64     `json:"id"`
	Owner           string    `json:"owner"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	URL             string    `json:"html_url"`
	Language        string    `json:"language"`
	ForksCount      int       `json:"forks_count"`
	StarsCount      int       `json:"stargazers_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	WatchersCount   int       `json:"watchers_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Ref returns the owner/name reference of the repository
func (r *Repository) Ref() RepoRef {
	return RepoRef{Owner: r.Owner, Name: r.Name}
}
