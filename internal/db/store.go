package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-insights/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Store defines the interface for database operations.
// Every upsert is keyed by (source id, repository id) and is idempotent.
type Store interface {
	// Repository operations
	UpsertRepository(ctx context.Context, repo *RepositoryRow) error
	GetRepository(ctx context.Context, id int64) (*RepositoryRow, error)
	GetRepositoryByName(ctx context.Context, owner, name string) (*RepositoryRow, error)
	ListRepositories(ctx context.Context) ([]*RepositoryRow, error)
	DeleteRepository(ctx context.Context, id int64) error

	// User and label operations
	UpsertUser(ctx context.Context, user *UserRow) error
	GetUser(ctx context.Context, id int64) (*UserRow, error)
	UpsertLabel(ctx context.Context, label *LabelRow) error

	// Milestone operations
	UpsertMilestone(ctx context.Context, milestone *MilestoneRow) error
	GetMilestone(ctx context.Context, repoID, id int64) (*MilestoneRow, error)
	GetMilestoneByNumber(ctx context.Context, repoID int64, number int) (*MilestoneRow, error)
	ListMilestones(ctx context.Context, repoID int64) ([]*MilestoneRow, error)

	// Issue operations
	UpsertIssue(ctx context.Context, issue *IssueRow) error
	ListIssues(ctx context.Context, repoID int64, filter IssueFilter) ([]*IssueRow, error)
	ReplaceIssueLabels(ctx context.Context, repoID, issueID int64, labels []*LabelRow) error
	ReplaceIssueAssignees(ctx context.Context, repoID, issueID int64, userIDs []int64) error
	ListIssueLabels(ctx context.Context, repoID, issueID int64) ([]*LabelRow, error)
	ListIssueAssignees(ctx context.Context, repoID, issueID int64) ([]int64, error)

	// Pull request and release operations
	UpsertPullRequest(ctx context.Context, pr *PullRequestRow) error
	ListPullRequests(ctx context.Context, repoID int64, filter PullFilter) ([]*PullRequestRow, error)
	UpsertRelease(ctx context.Context, release *ReleaseRow) error
	ListReleases(ctx context.Context, repoID int64) ([]*ReleaseRow, error)

	// Sync operations
	GetSyncStatus(ctx context.Context, repoID int64) (*models.SyncStatus, error)
	UpsertSyncStatus(ctx context.Context, status *models.SyncStatus) error

	// Project board operations
	UpsertProject(ctx context.Context, project *models.Project) error
	ReplaceProjectItems(ctx context.Context, projectID string, items []models.ProjectItem) error
	ListProjects(ctx context.Context, org string) ([]*models.Project, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite"
)

// SQLStore implements Store over database/sql for Postgres (lib/pq or pgx) and SQLite.
// Queries are written with ? placeholders and rebound per dialect.
type SQLStore struct {
	db      *sql.DB
	dialect string
	logger  *logrus.Logger
}

// Open connects to the database named by driver: "postgres" (lib/pq), "pgx" or "sqlite"
func Open(driver, dsn string, logger *logrus.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var dialect string
	switch driver {
	case "postgres", "pgx":
		dialect = dialectPostgres
	case "sqlite":
		dialect = dialectSQLite
		dsn = sqliteDSN(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == dialectSQLite {
		// pragmas are per connection and one writer avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLStore{db: db, dialect: dialect, logger: logger}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma") || strings.Contains(dsn, "_time_format") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

// Migrate applies the embedded goose migrations for the store's dialect
func (s *SQLStore) Migrate(_ context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(s.logger)

	gooseDialect, dir := "postgres", "migrations/postgres"
	if s.dialect == dialectSQLite {
		gooseDialect, dir = "sqlite3", "migrations/sqlite"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}

	if err := goose.Up(s.db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for Postgres
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return err
}

// inTx runs fn inside a transaction, rolling back on error
func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
