package db

import (
	"database/sql"
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// Row types mirror table columns. Nested references are ids and are resolved by Converter.

type RepositoryRow struct {
	ID              int64
	Owner           string
	Name            string
	FullName        string
	Description     string
	URL             string
	Language        string
	ForksCount      int
	StarsCount      int
	OpenIssuesCount int
	WatchersCount   int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type UserRow struct {
	ID        int64
	Login     string
	Name      string
	AvatarURL string
}

type LabelRow struct {
	RepositoryID int64
	ID           int64
	Name         string
	Color        string
	Description  string
}

type MilestoneRow struct {
	RepositoryID int64
	ID           int64
	Number       int
	Title        string
	Description  sql.NullString
	State        string
	OpenIssues   int
	ClosedIssues int
	DueOn        sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     sql.NullTime
}

type IssueRow struct {
	RepositoryID int64
	ID           int64
	Number       int
	Title        string
	Body         string
	State        string
	AuthorID     int64
	MilestoneID  sql.NullInt64
	Comments     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     sql.NullTime
	ClosedByID   sql.NullInt64
}

// PullRequestRow carries no label or milestone columns; those associations are not persisted for pulls.
type PullRequestRow struct {
	RepositoryID int64
	ID           int64
	Number       int
	Title        string
	Body         string
	State        string
	Draft        bool
	AuthorID     int64
	HeadRef      string
	BaseRef      string
	Merged       bool
	MergedAt     sql.NullTime
	Additions    int
	Deletions    int
	ChangedFiles int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     sql.NullTime
}

type ReleaseRow struct {
	RepositoryID int64
	ID           int64
	TagName      string
	Name         sql.NullString
	Body         sql.NullString
	Draft        bool
	Prerelease   bool
	AuthorID     int64
	CreatedAt    time.Time
	PublishedAt  sql.NullTime
}

// IssueFilter narrows ListIssues. Zero values match everything.
type IssueFilter struct {
	State       models.StateFilter
	Since       *time.Time
	MilestoneID *int64
}

// PullFilter narrows ListPullRequests. Zero values match everything.
type PullFilter struct {
	State models.StateFilter
	Since *time.Time
}
