package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

func (s *SQLStore) UpsertProject(ctx context.Context, p *models.Project) error {
	err := s.exec(ctx, `
		INSERT INTO projects (id, org, number, title, closed, url, item_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			org = excluded.org,
			number = excluded.number,
			title = excluded.title,
			closed = excluded.closed,
			url = excluded.url,
			item_count = excluded.item_count,
			updated_at = excluded.updated_at`,
		p.ID, p.Org, p.Number, p.Title, p.Closed, p.URL, p.ItemCount, p.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert project %s/%d: %w", p.Org, p.Number, err)
	}
	return nil
}

// ReplaceProjectItems replaces the card set of a project, preserving board order
func (s *SQLStore) ReplaceProjectItems(ctx context.Context, projectID string, items []models.ProjectItem) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM project_items WHERE project_id = ?`), projectID); err != nil {
			return fmt.Errorf("failed to clear project items: %w", err)
		}
		for pos, item := range items {
			if _, err := tx.ExecContext(ctx, s.rebind(`
				INSERT INTO project_items (project_id, id, kind, number, title, state, repository, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT DO NOTHING`),
				projectID, item.ID, string(item.Kind), item.Number, item.Title, item.State, item.Repository, pos,
			); err != nil {
				return fmt.Errorf("failed to insert project item %s: %w", item.ID, err)
			}
		}
		return nil
	})
}

// ListProjects returns the organization's projects with their items
func (s *SQLStore) ListProjects(ctx context.Context, org string) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, org, number, title, closed, url, item_count, updated_at
		FROM projects WHERE org = ? ORDER BY number`), org)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Org, &p.Number, &p.Title, &p.Closed, &p.URL, &p.ItemCount, &p.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.UpdatedAt = p.UpdatedAt.UTC()
		projects = append(projects, &p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	rows.Close()

	// items are read after the project cursor is closed; sqlite runs on a single connection
	for _, p := range projects {
		items, err := s.listProjectItems(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		p.Items = items
	}
	return projects, nil
}

func (s *SQLStore) listProjectItems(ctx context.Context, projectID string) ([]models.ProjectItem, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, kind, number, title, state, repository
		FROM project_items WHERE project_id = ? ORDER BY position`), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project items: %w", err)
	}
	defer rows.Close()

	var items []models.ProjectItem
	for rows.Next() {
		var item models.ProjectItem
		var kind string
		if err := rows.Scan(&item.ID, &kind, &item.Number, &item.Title, &item.State, &item.Repository); err != nil {
			return nil, fmt.Errorf("failed to scan project item: %w", err)
		}
		item.Kind = models.ProjectItemKind(kind)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project items: %w", err)
	}
	return items, nil
}
