package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
)

const repositoryColumns = `id, owner, name, full_name, description, url, language, forks_count, stars_count,
	open_issues_count, watchers_count, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRepository(row scanner) (*RepositoryRow, error) {
	var r RepositoryRow
	err := row.Scan(
		&r.ID,
		&r.Owner,
		&r.Name,
		&r.FullName,
		&r.Description,
		&r.URL,
		&r.Language,
		&r.ForksCount,
		&r.StarsCount,
		&r.OpenIssuesCount,
		&r.WatchersCount,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLStore) UpsertRepository(ctx context.Context, repo *RepositoryRow) error {
	if repo == nil {
		return fmt.Errorf("repository cannot be nil")
	}

	err := s.exec(ctx, `
		INSERT INTO repositories (`+repositoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			full_name = excluded.full_name,
			description = excluded.description,
			url = excluded.url,
			language = excluded.language,
			forks_count = excluded.forks_count,
			stars_count = excluded.stars_count,
			open_issues_count = excluded.open_issues_count,
			watchers_count = excluded.watchers_count,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		repo.ID, repo.Owner, repo.Name, repo.FullName, repo.Description, repo.URL, repo.Language,
		repo.ForksCount, repo.StarsCount, repo.OpenIssuesCount, repo.WatchersCount,
		repo.CreatedAt.UTC(), repo.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert repository %s: %w", repo.FullName, err)
	}
	return nil
}

func (s *SQLStore) GetRepository(ctx context.Context, id int64) (*RepositoryRow, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+repositoryColumns+` FROM repositories WHERE id = ?`), id)
	repo, err := scanRepository(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("repository not found with id %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	return repo, nil
}

func (s *SQLStore) GetRepositoryByName(ctx context.Context, owner, name string) (*RepositoryRow, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+repositoryColumns+` FROM repositories WHERE LOWER(owner) = LOWER(?) AND LOWER(name) = LOWER(?)`),
		owner, name)
	repo, err := scanRepository(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("repository not tracked: %s/%s", owner, name), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	return repo, nil
}

func (s *SQLStore) ListRepositories(ctx context.Context) ([]*RepositoryRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+repositoryColumns+` FROM repositories ORDER BY owner, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query repositories: %w", err)
	}
	defer rows.Close()

	var repos []*RepositoryRow
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repositories: %w", err)
	}
	return repos, nil
}

// DeleteRepository deletes a repository and all its associated data
func (s *SQLStore) DeleteRepository(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{
			"issue_labels", "issue_assignees", "issues", "labels", "pull_requests",
			"releases", "milestones", "sync_status",
		} {
			if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM "+table+" WHERE repository_id = ?"), id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
		}

		res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM repositories WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete repository: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("repository not found with id %d", id), nil)
		}
		return nil
	})
}

const userColumns = `id, login, name, avatar_url`

func (s *SQLStore) UpsertUser(ctx context.Context, user *UserRow) error {
	err := s.exec(ctx, `
		INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			login = excluded.login,
			name = excluded.name,
			avatar_url = excluded.avatar_url`,
		user.ID, user.Login, user.Name, user.AvatarURL)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.Login, err)
	}
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (*UserRow, error) {
	var u UserRow
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id).
		Scan(&u.ID, &u.Login, &u.Name, &u.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user not found with id %d", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

const upsertLabelQuery = `
	INSERT INTO labels (repository_id, id, name, color, description) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (repository_id, id) DO UPDATE SET
		name = excluded.name,
		color = excluded.color,
		description = excluded.description`

func (s *SQLStore) UpsertLabel(ctx context.Context, label *LabelRow) error {
	err := s.exec(ctx, upsertLabelQuery, label.RepositoryID, label.ID, label.Name, label.Color, label.Description)
	if err != nil {
		return fmt.Errorf("failed to upsert label %s: %w", label.Name, err)
	}
	return nil
}
