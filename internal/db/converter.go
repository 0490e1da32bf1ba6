package db

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// Converter maps between store rows and domain entities. Reads resolve nested
// references (milestone, labels, assignees, users) with follow-up queries.
type Converter struct {
	store Store
}

func NewConverter(store Store) *Converter {
	return &Converter{store: store}
}

// Entity -> row

func RepositoryRowFrom(r *models.Repository) *RepositoryRow {
	return &RepositoryRow{
		ID:              r.ID,
		Owner:           r.Owner,
		Name:            r.Name,
		FullName:        r.FullName,
		Description:     r.Description,
		URL:             r.URL,
		Language:        r.Language,
		ForksCount:      r.ForksCount,
		StarsCount:      r.StarsCount,
		OpenIssuesCount: r.OpenIssuesCount,
		WatchersCount:   r.WatchersCount,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

func UserRowFrom(u models.User) *UserRow {
	return &UserRow{ID: u.ID, Login: u.Login, Name: u.Name, AvatarURL: u.AvatarURL}
}

func LabelRowFrom(repoID int64, l models.Label) *LabelRow {
	return &LabelRow{RepositoryID: repoID, ID: l.ID, Name: l.Name, Color: l.Color, Description: l.Description}
}

func MilestoneRowFrom(repoID int64, m *models.Milestone) *MilestoneRow {
	return &MilestoneRow{
		RepositoryID: repoID,
		ID:           m.ID,
		Number:       m.Number,
		Title:        m.Title,
		Description:  nullString(m.Description),
		State:        string(m.State),
		OpenIssues:   m.OpenIssues,
		ClosedIssues: m.ClosedIssues,
		DueOn:        nullTime(m.DueOn),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
		ClosedAt:     nullTime(m.ClosedAt),
	}
}

func IssueRowFrom(repoID int64, i *models.Issue) *IssueRow {
	row := &IssueRow{
		RepositoryID: repoID,
		ID:           i.ID,
		Number:       i.Number,
		Title:        i.Title,
		Body:         i.Body,
		State:        string(i.State),
		AuthorID:     i.Author.ID,
		Comments:     i.Comments,
		CreatedAt:    i.CreatedAt.UTC(),
		UpdatedAt:    i.UpdatedAt.UTC(),
		ClosedAt:     nullTime(i.ClosedAt),
	}
	if i.Milestone != nil {
		row.MilestoneID = sql.NullInt64{Int64: i.Milestone.ID, Valid: true}
	}
	if i.ClosedBy != nil {
		row.ClosedByID = sql.NullInt64{Int64: i.ClosedBy.ID, Valid: true}
	}
	return row
}

// PullRequestRowFrom drops labels and milestone; they are not persisted for pulls
func PullRequestRowFrom(repoID int64, p *models.PullRequest) *PullRequestRow {
	return &PullRequestRow{
		RepositoryID: repoID,
		ID:           p.ID,
		Number:       p.Number,
		Title:        p.Title,
		Body:         p.Body,
		State:        string(p.State),
		Draft:        p.Draft,
		AuthorID:     p.Author.ID,
		HeadRef:      p.HeadRef,
		BaseRef:      p.BaseRef,
		Merged:       p.Merged,
		MergedAt:     nullTime(p.MergedAt),
		Additions:    p.Additions,
		Deletions:    p.Deletions,
		ChangedFiles: p.ChangedFiles,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
		ClosedAt:     nullTime(p.ClosedAt),
	}
}

func ReleaseRowFrom(repoID int64, r *models.Release) *ReleaseRow {
	return &ReleaseRow{
		RepositoryID: repoID,
		ID:           r.ID,
		TagName:      r.TagName,
		Name:         nullString(r.Name),
		Body:         nullString(r.Body),
		Draft:        r.Draft,
		Prerelease:   r.Prerelease,
		AuthorID:     r.Author.ID,
		CreatedAt:    r.CreatedAt.UTC(),
		PublishedAt:  nullTime(r.PublishedAt),
	}
}

// Row -> entity

func RepositoryFromRow(r *RepositoryRow) *models.Repository {
	return &models.Repository{
		ID:              r.ID,
		Owner:           r.Owner,
		Name:            r.Name,
		FullName:        r.FullName,
		Description:     r.Description,
		URL:             r.URL,
		Language:        r.Language,
		ForksCount:      r.ForksCount,
		StarsCount:      r.StarsCount,
		OpenIssuesCount: r.OpenIssuesCount,
		WatchersCount:   r.WatchersCount,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

func UserFromRow(r *UserRow) models.User {
	return models.User{ID: r.ID, Login: r.Login, Name: r.Name, AvatarURL: r.AvatarURL}
}

func LabelFromRow(r *LabelRow) models.Label {
	return models.Label{ID: r.ID, Name: r.Name, Color: r.Color, Description: r.Description}
}

func MilestoneFromRow(r *MilestoneRow) *models.Milestone {
	return &models.Milestone{
		ID:           r.ID,
		Number:       r.Number,
		Title:        r.Title,
		Description:  stringPtr(r.Description),
		State:        models.ParseState(r.State),
		OpenIssues:   r.OpenIssues,
		ClosedIssues: r.ClosedIssues,
		DueOn:        timePtr(r.DueOn),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		ClosedAt:     timePtr(r.ClosedAt),
	}
}

// resolver memoizes users and milestones for the duration of one read
type resolver struct {
	store      Store
	repoID     int64
	users      map[int64]models.User
	milestones map[int64]*models.Milestone
}

func (c *Converter) newResolver(repoID int64) *resolver {
	return &resolver{
		store:      c.store,
		repoID:     repoID,
		users:      make(map[int64]models.User),
		milestones: make(map[int64]*models.Milestone),
	}
}

// user resolves an id to a User. Unknown ids yield a User carrying only the id.
func (r *resolver) user(ctx context.Context, id int64) (models.User, error) {
	if id == 0 {
		return models.User{}, nil
	}
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	row, err := r.store.GetUser(ctx, id)
	if apperrors.IsNotFound(err) {
		u := models.User{ID: id}
		r.users[id] = u
		return u, nil
	}
	if err != nil {
		return models.User{}, err
	}
	u := UserFromRow(row)
	r.users[id] = u
	return u, nil
}

func (r *resolver) milestone(ctx context.Context, id sql.NullInt64) (*models.Milestone, error) {
	if !id.Valid {
		return nil, nil
	}
	if m, ok := r.milestones[id.Int64]; ok {
		return m, nil
	}
	row, err := r.store.GetMilestone(ctx, r.repoID, id.Int64)
	if apperrors.IsNotFound(err) {
		r.milestones[id.Int64] = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := MilestoneFromRow(row)
	r.milestones[id.Int64] = m
	return m, nil
}

func (r *resolver) issue(ctx context.Context, row *IssueRow) (*models.Issue, error) {
	issue := &models.Issue{
		ID:        row.ID,
		Number:    row.Number,
		Title:     row.Title,
		Body:      row.Body,
		State:     models.ParseState(row.State),
		Labels:    []models.Label{},
		Assignees: []models.User{},
		Comments:  row.Comments,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
		ClosedAt:  timePtr(row.ClosedAt),
	}

	var err error
	if issue.Author, err = r.user(ctx, row.AuthorID); err != nil {
		return nil, fmt.Errorf("failed to resolve author of issue #%d: %w", row.Number, err)
	}
	if row.ClosedByID.Valid {
		closer, err := r.user(ctx, row.ClosedByID.Int64)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve closer of issue #%d: %w", row.Number, err)
		}
		issue.ClosedBy = &closer
	}
	if issue.Milestone, err = r.milestone(ctx, row.MilestoneID); err != nil {
		return nil, fmt.Errorf("failed to resolve milestone of issue #%d: %w", row.Number, err)
	}

	labels, err := r.store.ListIssueLabels(ctx, r.repoID, row.ID)
	if err != nil {
		return nil, err
	}
	for _, l := range labels {
		issue.Labels = append(issue.Labels, LabelFromRow(l))
	}

	assignees, err := r.store.ListIssueAssignees(ctx, r.repoID, row.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range assignees {
		u, err := r.user(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assignee of issue #%d: %w", row.Number, err)
		}
		issue.Assignees = append(issue.Assignees, u)
	}

	models.SortLabels(issue.Labels)
	models.SortUsers(issue.Assignees)
	return issue, nil
}

// Issues reads the repository's issues matching filter as fully resolved entities
func (c *Converter) Issues(ctx context.Context, repoID int64, filter IssueFilter) ([]models.Issue, error) {
	rows, err := c.store.ListIssues(ctx, repoID, filter)
	if err != nil {
		return nil, err
	}
	r := c.newResolver(repoID)
	out := make([]models.Issue, 0, len(rows))
	for _, row := range rows {
		issue, err := r.issue(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, *issue)
	}
	return out, nil
}

// PullRequests reads the repository's pull requests. Labels are always empty and milestone nil.
func (c *Converter) PullRequests(ctx context.Context, repoID int64, filter PullFilter) ([]models.PullRequest, error) {
	rows, err := c.store.ListPullRequests(ctx, repoID, filter)
	if err != nil {
		return nil, err
	}
	r := c.newResolver(repoID)
	out := make([]models.PullRequest, 0, len(rows))
	for _, row := range rows {
		author, err := r.user(ctx, row.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve author of pull request #%d: %w", row.Number, err)
		}
		out = append(out, models.PullRequest{
			ID:           row.ID,
			Number:       row.Number,
			Title:        row.Title,
			Body:         row.Body,
			State:        models.ParseState(row.State),
			Draft:        row.Draft,
			Author:       author,
			Labels:       []models.Label{},
			HeadRef:      row.HeadRef,
			BaseRef:      row.BaseRef,
			Merged:       row.Merged,
			MergedAt:     timePtr(row.MergedAt),
			Additions:    row.Additions,
			Deletions:    row.Deletions,
			ChangedFiles: row.ChangedFiles,
			CreatedAt:    row.CreatedAt.UTC(),
			UpdatedAt:    row.UpdatedAt.UTC(),
			ClosedAt:     timePtr(row.ClosedAt),
		})
	}
	return out, nil
}

func (c *Converter) Releases(ctx context.Context, repoID int64) ([]models.Release, error) {
	rows, err := c.store.ListReleases(ctx, repoID)
	if err != nil {
		return nil, err
	}
	r := c.newResolver(repoID)
	out := make([]models.Release, 0, len(rows))
	for _, row := range rows {
		author, err := r.user(ctx, row.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve author of release %s: %w", row.TagName, err)
		}
		out = append(out, models.Release{
			ID:          row.ID,
			TagName:     row.TagName,
			Name:        stringPtr(row.Name),
			Body:        stringPtr(row.Body),
			Draft:       row.Draft,
			Prerelease:  row.Prerelease,
			Author:      author,
			CreatedAt:   row.CreatedAt.UTC(),
			PublishedAt: timePtr(row.PublishedAt),
		})
	}
	return out, nil
}

func (c *Converter) Milestones(ctx context.Context, repoID int64) ([]models.Milestone, error) {
	rows, err := c.store.ListMilestones(ctx, repoID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Milestone, 0, len(rows))
	for _, row := range rows {
		out = append(out, *MilestoneFromRow(row))
	}
	return out, nil
}

// Milestone reads one milestone by its number
func (c *Converter) Milestone(ctx context.Context, repoID int64, number int) (*models.Milestone, error) {
	row, err := c.store.GetMilestoneByNumber(ctx, repoID, number)
	if err != nil {
		return nil, err
	}
	return MilestoneFromRow(row), nil
}

func (c *Converter) Repository(ctx context.Context, owner, name string) (*models.Repository, error) {
	row, err := c.store.GetRepositoryByName(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return RepositoryFromRow(row), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
