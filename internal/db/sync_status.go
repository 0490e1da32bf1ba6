package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/models"
)

// GetSyncStatus retrieves the sync status for a repository. It returns nil when the repository was never synced.
func (s *SQLStore) GetSyncStatus(ctx context.Context, repoID int64) (*models.SyncStatus, error) {
	var status models.SyncStatus
	var issuesAt, pullsAt, releasesAt, milestonesAt sql.NullTime

	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT repository_id, issues_synced, pulls_synced, releases_synced, milestones_synced,
			issues_synced_at, pulls_synced_at, releases_synced_at, milestones_synced_at, updated_at
		FROM sync_status WHERE repository_id = ?`), repoID).Scan(
		&status.RepositoryID,
		&status.IssuesSynced,
		&status.PullsSynced,
		&status.ReleasesSynced,
		&status.MilestonesSynced,
		&issuesAt,
		&pullsAt,
		&releasesAt,
		&milestonesAt,
		&status.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	status.IssuesSyncedAt = timePtr(issuesAt)
	status.PullsSyncedAt = timePtr(pullsAt)
	status.ReleasesSyncedAt = timePtr(releasesAt)
	status.MilestonesSyncedAt = timePtr(milestonesAt)
	status.UpdatedAt = status.UpdatedAt.UTC()
	return &status, nil
}

// UpsertSyncStatus updates the sync status for a repository
func (s *SQLStore) UpsertSyncStatus(ctx context.Context, status *models.SyncStatus) error {
	if status == nil {
		return fmt.Errorf("status cannot be nil")
	}

	err := s.exec(ctx, `
		INSERT INTO sync_status (repository_id, issues_synced, pulls_synced, releases_synced, milestones_synced,
			issues_synced_at, pulls_synced_at, releases_synced_at, milestones_synced_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repository_id) DO UPDATE SET
			issues_synced = excluded.issues_synced,
			pulls_synced = excluded.pulls_synced,
			releases_synced = excluded.releases_synced,
			milestones_synced = excluded.milestones_synced,
			issues_synced_at = excluded.issues_synced_at,
			pulls_synced_at = excluded.pulls_synced_at,
			releases_synced_at = excluded.releases_synced_at,
			milestones_synced_at = excluded.milestones_synced_at,
			updated_at = excluded.updated_at`,
		status.RepositoryID, status.IssuesSynced, status.PullsSynced, status.ReleasesSynced, status.MilestonesSynced,
		nullTime(status.IssuesSyncedAt), nullTime(status.PullsSyncedAt),
		nullTime(status.ReleasesSyncedAt), nullTime(status.MilestonesSyncedAt),
		status.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
