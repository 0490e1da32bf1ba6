package config

import (
	"strings"
	"time"
)

// GitHubConfig holds GitHub-specific configuration
type GitHubConfig struct {
	Token      string
	APIBaseURL string
	// OrgTokens overrides Token for repositories owned by the named organization.
	// Organization names match case-insensitively.
	OrgTokens map[string]string
	RateLimit RateLimitConfig
}

// RateLimitConfig holds rate limit configuration
type RateLimitConfig struct {
	MaxRetries      int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	RetryMultiplier float64
	// RequestsPerSecond paces requests per credential; zero disables client-side pacing
	RequestsPerSecond float64
	Burst             int
}

// DefaultGitHubConfig returns the default GitHub configuration
func DefaultGitHubConfig() *GitHubConfig {
	return &GitHubConfig{
		APIBaseURL: "https://api.github.com",
		OrgTokens:  map[string]string{},
		RateLimit: RateLimitConfig{
			MaxRetries:        3,
			InitialBackoff:    time.Second,
			MaxBackoff:        time.Minute,
			RetryMultiplier:   2.0,
			RequestsPerSecond: 1.3,
			Burst:             10,
		},
	}
}

// TokenFor returns the credential to use for an organization
func (c *GitHubConfig) TokenFor(org string) string {
	if t := c.OrgTokens[strings.ToLower(org)]; t != "" {
		return t
	}
	for name, t := range c.OrgTokens {
		if t != "" && strings.EqualFold(name, org) {
			return t
		}
	}
	return c.Token
}
