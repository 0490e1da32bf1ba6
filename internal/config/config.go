package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/auth"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
)

type Config struct {
	Port               string
	LogLevel           string
	LogFormat          string
	DBDriver           string
	DBConnectionString string
	TracingEndpoint    string
	TrackedRepos       []string
	StaleDays          int
	SLA                SLAConfig
	// ReleaseNotes maps a label substring to a section title
	ReleaseNotes map[string]string
	GitHub       *GitHubConfig
	Sync         *SyncConfig
}

// SLAConfig holds response and resolution thresholds in hours
type SLAConfig struct {
	ResponseHours   float64                   `yaml:"response_hours"`
	ResolutionHours float64                   `yaml:"resolution_hours"`
	Priorities      map[string]SLAHoursConfig `yaml:"priorities"`
}

// SLAHoursConfig is the threshold pair for one priority label
type SLAHoursConfig struct {
	ResponseHours   float64 `yaml:"response_hours"`
	ResolutionHours float64 `yaml:"resolution_hours"`
}

// fileConfig mirrors the optional YAML document named by CONFIG_FILE
type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`
	GitHub struct {
		Token     string            `yaml:"token"`
		BaseURL   string            `yaml:"base_url"`
		OrgTokens map[string]string `yaml:"org_tokens"`
	} `yaml:"github"`
	Sync struct {
		Interval    string `yaml:"interval"`
		CacheMaxAge string `yaml:"cache_max_age"`
	} `yaml:"sync"`
	Repositories []string          `yaml:"repositories"`
	StaleDays    int               `yaml:"stale_days"`
	SLA          SLAConfig         `yaml:"sla"`
	ReleaseNotes map[string]string `yaml:"release_notes"`
}

// tokenForHost reads the credential stored by the gh CLI
var tokenForHost = func(host string) string {
	token, _ := auth.TokenForHost(host)
	return token
}

// Load builds the configuration from CONFIG_FILE (when set) and the environment.
// Environment variables take precedence over the file.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         "8080",
		LogLevel:     "info",
		LogFormat:    "json",
		DBDriver:     "postgres",
		StaleDays:    30,
		ReleaseNotes: map[string]string{},
		GitHub:       DefaultGitHubConfig(),
		Sync:         DefaultSyncConfig(),
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = tokenForHost("github.com")
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("failed to read config file", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return apperrors.NewConfigError("failed to parse config file", err)
	}

	if fc.Server.Port != "" {
		c.Port = fc.Server.Port
	}
	if fc.Database.Driver != "" {
		c.DBDriver = fc.Database.Driver
	}
	if fc.Database.DSN != "" {
		c.DBConnectionString = fc.Database.DSN
	}
	if fc.GitHub.Token != "" {
		c.GitHub.Token = fc.GitHub.Token
	}
	if fc.GitHub.BaseURL != "" {
		c.GitHub.APIBaseURL = fc.GitHub.BaseURL
	}
	for org, token := range fc.GitHub.OrgTokens {
		c.GitHub.OrgTokens[strings.ToLower(org)] = token
	}
	if fc.Sync.Interval != "" {
		d, err := time.ParseDuration(fc.Sync.Interval)
		if err != nil {
			return apperrors.NewConfigError("invalid sync.interval", err)
		}
		c.Sync.Interval = d
	}
	if fc.Sync.CacheMaxAge != "" {
		d, err := time.ParseDuration(fc.Sync.CacheMaxAge)
		if err != nil {
			return apperrors.NewConfigError("invalid sync.cache_max_age", err)
		}
		c.Sync.CacheMaxAge = d
	}
	c.TrackedRepos = append(c.TrackedRepos, fc.Repositories...)
	if fc.StaleDays > 0 {
		c.StaleDays = fc.StaleDays
	}
	c.SLA = fc.SLA
	for key, title := range fc.ReleaseNotes {
		c.ReleaseNotes[key] = title
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DBConnectionString = getEnv("DB_CONNECTION_STRING", c.DBConnectionString)
	c.TracingEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.TracingEndpoint)
	c.GitHub.Token = getEnv("GITHUB_TOKEN", c.GitHub.Token)
	c.GitHub.APIBaseURL = getEnv("GITHUB_API_URL", c.GitHub.APIBaseURL)

	if v := getEnv("TRACKED_REPOS", ""); v != "" {
		c.TrackedRepos = append(c.TrackedRepos, parseCSV(v)...)
	}

	if v := getEnv("SYNC_INTERVAL_MINUTES", ""); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.NewConfigError("invalid SYNC_INTERVAL_MINUTES", err)
		}
		c.Sync.Interval = time.Duration(minutes) * time.Minute
	}
	if v := getEnv("CACHE_MAX_AGE_MINUTES", ""); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.NewConfigError("invalid CACHE_MAX_AGE_MINUTES", err)
		}
		c.Sync.CacheMaxAge = time.Duration(minutes) * time.Minute
	}
	if v := getEnv("GITHUB_REQUESTS_PER_SECOND", ""); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apperrors.NewConfigError("invalid GITHUB_REQUESTS_PER_SECOND", err)
		}
		c.GitHub.RateLimit.RequestsPerSecond = rps
	}
	if v := getEnv("STALE_DAYS", ""); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return apperrors.NewConfigError(fmt.Sprintf("invalid STALE_DAYS %q", v), err)
		}
		c.StaleDays = days
	}
	return nil
}

// Validate checks the settings every entry point needs
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "pgx", "sqlite":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unsupported DB_DRIVER %q", c.DBDriver), nil)
	}
	if c.DBConnectionString == "" {
		return apperrors.NewConfigError("DB_CONNECTION_STRING is required", nil)
	}
	return nil
}

// RequireToken fails when no GitHub credential could be resolved
func (c *Config) RequireToken() error {
	if c.GitHub.Token == "" {
		return apperrors.NewConfigError("GITHUB_TOKEN is required (or log in with `gh auth login`)", nil)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func parseCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			out = append(out, value)
		}
	}
	return out
}
