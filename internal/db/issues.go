package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

const milestoneColumns = `repository_id, id, number, title, description, state, open_issues, closed_issues,
	due_on, created_at, updated_at, closed_at`

func scanMilestone(row scanner) (*MilestoneRow, error) {
	var m MilestoneRow
	err := row.Scan(
		&m.RepositoryID,
		&m.ID,
		&m.Number,
		&m.Title,
		&m.Description,
		&m.State,
		&m.OpenIssues,
		&m.ClosedIssues,
		&m.DueOn,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLStore) UpsertMilestone(ctx context.Context, m *MilestoneRow) error {
	err := s.exec(ctx, `
		INSERT INTO milestones (`+milestoneColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repository_id, id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			description = excluded.description,
			state = excluded.state,
			open_issues = excluded.open_issues,
			closed_issues = excluded.closed_issues,
			due_on = excluded.due_on,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			closed_at = excluded.closed_at`,
		m.RepositoryID, m.ID, m.Number, m.Title, m.Description, m.State, m.OpenIssues, m.ClosedIssues,
		utcNull(m.DueOn), m.CreatedAt.UTC(), m.UpdatedAt.UTC(), utcNull(m.ClosedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert milestone %d: %w", m.Number, err)
	}
	return nil
}

func (s *SQLStore) GetMilestone(ctx context.Context, repoID, id int64) (*MilestoneRow, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+milestoneColumns+` FROM milestones WHERE repository_id = ? AND id = ?`), repoID, id)
	m, err := scanMilestone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("milestone not found with id %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return m, nil
}

func (s *SQLStore) GetMilestoneByNumber(ctx context.Context, repoID int64, number int) (*MilestoneRow, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+milestoneColumns+` FROM milestones WHERE repository_id = ? AND number = ?`), repoID, number)
	m, err := scanMilestone(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("milestone #%d not found", number), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	return m, nil
}

func (s *SQLStore) ListMilestones(ctx context.Context, repoID int64) ([]*MilestoneRow, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+milestoneColumns+` FROM milestones WHERE repository_id = ? ORDER BY number`), repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query milestones: %w", err)
	}
	defer rows.Close()

	var out []*MilestoneRow
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating milestones: %w", err)
	}
	return out, nil
}

const issueColumns = `repository_id, id, number, title, body, state, author_id, milestone_id, comments,
	created_at, updated_at, closed_at, closed_by_id`

func (s *SQLStore) UpsertIssue(ctx context.Context, i *IssueRow) error {
	err := s.exec(ctx, `
		INSERT INTO issues (`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repository_id, id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			body = excluded.body,
			state = excluded.state,
			author_id = excluded.author_id,
			milestone_id = excluded.milestone_id,
			comments = excluded.comments,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			closed_at = excluded.closed_at,
			closed_by_id = excluded.closed_by_id`,
		i.RepositoryID, i.ID, i.Number, i.Title, i.Body, i.State, i.AuthorID, i.MilestoneID, i.Comments,
		i.CreatedAt.UTC(), i.UpdatedAt.UTC(), utcNull(i.ClosedAt), i.ClosedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert issue #%d: %w", i.Number, err)
	}
	return nil
}

func (s *SQLStore) ListIssues(ctx context.Context, repoID int64, filter IssueFilter) ([]*IssueRow, error) {
	var where []string
	args := []any{repoID}
	where = append(where, "repository_id = ?")

	switch filter.State {
	case models.FilterOpen, models.FilterClosed:
		where = append(where, "state = ?")
		args = append(args, string(filter.State))
	}
	if filter.Since != nil {
		where = append(where, "updated_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if filter.MilestoneID != nil {
		where = append(where, "milestone_id = ?")
		args = append(args, *filter.MilestoneID)
	}

	query := `SELECT ` + issueColumns + ` FROM issues WHERE ` + strings.Join(where, " AND ") + ` ORDER BY number`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var out []*IssueRow
	for rows.Next() {
		var i IssueRow
		if err := rows.Scan(
			&i.RepositoryID,
			&i.ID,
			&i.Number,
			&i.Title,
			&i.Body,
			&i.State,
			&i.AuthorID,
			&i.MilestoneID,
			&i.Comments,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.ClosedAt,
			&i.ClosedByID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		out = append(out, &i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}
	return out, nil
}

// ReplaceIssueLabels upserts the labels and replaces the issue's label set in one transaction
func (s *SQLStore) ReplaceIssueLabels(ctx context.Context, repoID, issueID int64, labels []*LabelRow) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			s.rebind(`DELETE FROM issue_labels WHERE repository_id = ? AND issue_id = ?`), repoID, issueID); err != nil {
			return fmt.Errorf("failed to clear issue labels: %w", err)
		}

		for _, l := range labels {
			if _, err := tx.ExecContext(ctx, s.rebind(upsertLabelQuery),
				repoID, l.ID, l.Name, l.Color, l.Description); err != nil {
				return fmt.Errorf("failed to upsert label %s: %w", l.Name, err)
			}
			if _, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO issue_labels (repository_id, issue_id, label_id) VALUES (?, ?, ?)
				ON CONFLICT DO NOTHING`), repoID, issueID, l.ID); err != nil {
				return fmt.Errorf("failed to link label %s: %w", l.Name, err)
			}
		}
		return nil
	})
}

// ReplaceIssueAssignees replaces the issue's assignee set in one transaction
func (s *SQLStore) ReplaceIssueAssignees(ctx context.Context, repoID, issueID int64, userIDs []int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			s.rebind(`DELETE FROM issue_assignees WHERE repository_id = ? AND issue_id = ?`), repoID, issueID); err != nil {
			return fmt.Errorf("failed to clear issue assignees: %w", err)
		}

		for _, id := range userIDs {
			if _, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO issue_assignees (repository_id, issue_id, user_id) VALUES (?, ?, ?)
				ON CONFLICT DO NOTHING`), repoID, issueID, id); err != nil {
				return fmt.Errorf("failed to link assignee %d: %w", id, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) ListIssueLabels(ctx context.Context, repoID, issueID int64) ([]*LabelRow, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT l.repository_id, l.id, l.name, l.color, l.description
		FROM issue_labels il
		JOIN labels l ON l.repository_id = il.repository_id AND l.id = il.label_id
		WHERE il.repository_id = ? AND il.issue_id = ?
		ORDER BY l.name`), repoID, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issue labels: %w", err)
	}
	defer rows.Close()

	var out []*LabelRow
	for rows.Next() {
		var l LabelRow
		if err := rows.Scan(&l.RepositoryID, &l.ID, &l.Name, &l.Color, &l.Description); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labels: %w", err)
	}
	return out, nil
}

func (s *SQLStore) ListIssueAssignees(ctx context.Context, repoID, issueID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT user_id FROM issue_assignees
		WHERE repository_id = ? AND issue_id = ?
		ORDER BY user_id`), repoID, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issue assignees: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan assignee: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignees: %w", err)
	}
	return out, nil
}

// utcNull normalises a nullable timestamp to UTC before it is written
func utcNull(t sql.NullTime) sql.NullTime {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}
