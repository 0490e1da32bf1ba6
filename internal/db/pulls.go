package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

const pullColumns = `repository_id, id, number, title, body, state, draft, author_id, head_ref, base_ref,
	merged, merged_at, additions, deletions, changed_files, created_at, updated_at, closed_at`

func (s *SQLStore) UpsertPullRequest(ctx context.Context, pr *PullRequestRow) error {
	err := s.exec(ctx, `
		INSERT INTO pull_requests (`+pullColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repository_id, id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			body = excluded.body,
			state = excluded.state,
			draft = excluded.draft,
			author_id = excluded.author_id,
			head_ref = excluded.head_ref,
			base_ref = excluded.base_ref,
			merged = excluded.merged,
			merged_at = excluded.merged_at,
			additions = excluded.additions,
			deletions = excluded.deletions,
			changed_files = excluded.changed_files,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			closed_at = excluded.closed_at`,
		pr.RepositoryID, pr.ID, pr.Number, pr.Title, pr.Body, pr.State, pr.Draft, pr.AuthorID,
		pr.HeadRef, pr.BaseRef, pr.Merged, utcNull(pr.MergedAt), pr.Additions, pr.Deletions, pr.ChangedFiles,
		pr.CreatedAt.UTC(), pr.UpdatedAt.UTC(), utcNull(pr.ClosedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pull request #%d: %w", pr.Number, err)
	}
	return nil
}

func (s *SQLStore) ListPullRequests(ctx context.Context, repoID int64, filter PullFilter) ([]*PullRequestRow, error) {
	where := []string{"repository_id = ?"}
	args := []any{repoID}

	switch filter.State {
	case models.FilterOpen, models.FilterClosed:
		where = append(where, "state = ?")
		args = append(args, string(filter.State))
	}
	if filter.Since != nil {
		where = append(where, "updated_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT ` + pullColumns + ` FROM pull_requests WHERE ` + strings.Join(where, " AND ") + ` ORDER BY number`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pull requests: %w", err)
	}
	defer rows.Close()

	var out []*PullRequestRow
	for rows.Next() {
		var pr PullRequestRow
		if err := rows.Scan(
			&pr.RepositoryID,
			&pr.ID,
			&pr.Number,
			&pr.Title,
			&pr.Body,
			&pr.State,
			&pr.Draft,
			&pr.AuthorID,
			&pr.HeadRef,
			&pr.BaseRef,
			&pr.Merged,
			&pr.MergedAt,
			&pr.Additions,
			&pr.Deletions,
			&pr.ChangedFiles,
			&pr.CreatedAt,
			&pr.UpdatedAt,
			&pr.ClosedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pull request: %w", err)
		}
		out = append(out, &pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pull requests: %w", err)
	}
	return out, nil
}

const releaseColumns = `repository_id, id, tag_name, name, body, draft, prerelease, author_id, created_at, published_at`

func (s *SQLStore) UpsertRelease(ctx context.Context, r *ReleaseRow) error {
	err := s.exec(ctx, `
		INSERT INTO releases (`+releaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repository_id, id) DO UPDATE SET
			tag_name = excluded.tag_name,
			name = excluded.name,
			body = excluded.body,
			draft = excluded.draft,
			prerelease = excluded.prerelease,
			author_id = excluded.author_id,
			created_at = excluded.created_at,
			published_at = excluded.published_at`,
		r.RepositoryID, r.ID, r.TagName, r.Name, r.Body, r.Draft, r.Prerelease, r.AuthorID,
		r.CreatedAt.UTC(), utcNull(r.PublishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert release %s: %w", r.TagName, err)
	}
	return nil
}

func (s *SQLStore) ListReleases(ctx context.Context, repoID int64) ([]*ReleaseRow, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+releaseColumns+` FROM releases WHERE repository_id = ? ORDER BY created_at DESC, id DESC`), repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	var out []*ReleaseRow
	for rows.Next() {
		var r ReleaseRow
		if err := rows.Scan(
			&r.RepositoryID,
			&r.ID,
			&r.TagName,
			&r.Name,
			&r.Body,
			&r.Draft,
			&r.Prerelease,
			&r.AuthorID,
			&r.CreatedAt,
			&r.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan release: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating releases: %w", err)
	}
	return out, nil
}
