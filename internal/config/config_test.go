package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
)

func stubTokenForHost(t *testing.T, token string) {
	t.Helper()
	orig := tokenForHost
	tokenForHost = func(string) string { return token }
	t.Cleanup(func() { tokenForHost = orig })
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "DB_DRIVER", "DB_CONNECTION_STRING", "GITHUB_TOKEN", "TRACKED_REPOS",
		"SYNC_INTERVAL_MINUTES", "CACHE_MAX_AGE_MINUTES", "STALE_DAYS", "GITHUB_REQUESTS_PER_SECOND",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	stubTokenForHost(t, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 30, cfg.StaleDays)
	assert.Equal(t, time.Hour, cfg.Sync.Interval)
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBaseURL)
	assert.Equal(t, apperrors.ErrConfig, apperrors.TypeOf(cfg.RequireToken()))
	assert.Error(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	stubTokenForHost(t, "gh-cli-token")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_CONNECTION_STRING", "insights.db")
	t.Setenv("TRACKED_REPOS", "octo/one, octo/two,")
	t.Setenv("SYNC_INTERVAL_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"octo/one", "octo/two"}, cfg.TrackedRepos)
	assert.Equal(t, 15*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, "gh-cli-token", cfg.GitHub.Token)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	stubTokenForHost(t, "")

	path := filepath.Join(t.TempDir(), "insights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: pgx
  dsn: postgres://localhost/insights
github:
  token: file-token
  org_tokens:
    acme: acme-token
sync:
  cache_max_age: 30m
repositories:
  - acme/api
sla:
  response_hours: 12
  resolution_hours: 72
  priorities:
    p0:
      response_hours: 1
      resolution_hours: 8
release_notes:
  ui: User Interface
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GITHUB_TOKEN", "env-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "env-token", cfg.GitHub.Token)
	assert.Equal(t, "acme-token", cfg.GitHub.TokenFor("acme"))
	assert.Equal(t, "env-token", cfg.GitHub.TokenFor("other"))
	assert.Equal(t, 30*time.Minute, cfg.Sync.CacheMaxAge)
	assert.Equal(t, []string{"acme/api"}, cfg.TrackedRepos)
	assert.Equal(t, 72.0, cfg.SLA.ResolutionHours)
	assert.Equal(t, 8.0, cfg.SLA.Priorities["p0"].ResolutionHours)
	assert.Equal(t, "User Interface", cfg.ReleaseNotes["ui"])
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	stubTokenForHost(t, "")
	t.Setenv("STALE_DAYS", "-3")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrConfig, apperrors.TypeOf(err))
}

func TestTokenForIgnoresCase(t *testing.T) {
	cfg := DefaultGitHubConfig()
	cfg.Token = "default"
	cfg.OrgTokens["Acme"] = "acme-token"

	assert.Equal(t, "acme-token", cfg.TokenFor("acme"))
	assert.Equal(t, "acme-token", cfg.TokenFor("ACME"))
	assert.Equal(t, "default", cfg.TokenFor("other"))
}

func TestLoadLowercasesOrgTokens(t *testing.T) {
	clearEnv(t)
	stubTokenForHost(t, "")

	path := filepath.Join(t.TempDir(), "insights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  dsn: postgres://localhost/insights
github:
  token: file-token
  org_tokens:
    Acme: acme-token
`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"acme": "acme-token"}, cfg.GitHub.OrgTokens)
	assert.Equal(t, "acme-token", cfg.GitHub.TokenFor("acme"))
	assert.Equal(t, "acme-token", cfg.GitHub.TokenFor("ACME"))
}
