package github

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/Kamar-Folarin/github-insights/internal/config"
	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/ratelimit"
)

// ClientFactory resolves the clients to use for repositories owned by an organization
type ClientFactory interface {
	SourceClient(org string) (SourceClient, error)
	ProjectsClient(org string) (ProjectsClient, error)
}

// TokenFactory builds live clients from configured credentials. Clients built for
// the same token share one limiter.
type TokenFactory struct {
	cfg    *config.GitHubConfig
	logger *logrus.Logger

	mu       sync.Mutex
	limiters map[string]ratelimit.Limiter
	sources  map[string]*LiveClient
}

func NewTokenFactory(cfg *config.GitHubConfig, logger *logrus.Logger) *TokenFactory {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TokenFactory{
		cfg:      cfg,
		logger:   logger,
		limiters: make(map[string]ratelimit.Limiter),
		sources:  make(map[string]*LiveClient),
	}
}

// Limiter returns the limiter shared by clients using org's credential
func (f *TokenFactory) Limiter(org string) ratelimit.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limiterLocked(f.cfg.TokenFor(org))
}

func (f *TokenFactory) limiterLocked(token string) ratelimit.Limiter {
	if l, ok := f.limiters[token]; ok {
		return l
	}
	l := ratelimit.NewTokenBucket(f.cfg.RateLimit.RequestsPerSecond, f.cfg.RateLimit.Burst)
	f.limiters[token] = l
	return l
}

func (f *TokenFactory) SourceClient(org string) (SourceClient, error) {
	token := f.cfg.TokenFor(org)

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.sources[token]; ok {
		return c, nil
	}

	rl := f.cfg.RateLimit
	c, err := NewLiveClient(token, f.logger,
		WithBaseURL(f.cfg.APIBaseURL),
		WithLimiter(f.limiterLocked(token)),
		WithRetryConfig(rl.MaxRetries, rl.InitialBackoff, rl.MaxBackoff),
	)
	if err != nil {
		return nil, err
	}
	f.sources[token] = c
	return c, nil
}

// ProjectsClient requires a token; the projects API rejects anonymous callers
func (f *TokenFactory) ProjectsClient(org string) (ProjectsClient, error) {
	token := f.cfg.TokenFor(org)
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("a GitHub token is required to read projects of "+org, nil)
	}

	f.mu.Lock()
	limiter := f.limiterLocked(token)
	f.mu.Unlock()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	base := oauth2.NewClient(context.Background(), ts)
	transport := newRetryTransport(base.Transport, limiter, f.logger)
	transport.maxRetries = f.cfg.RateLimit.MaxRetries
	transport.initialBackoff = f.cfg.RateLimit.InitialBackoff
	transport.maxBackoff = f.cfg.RateLimit.MaxBackoff
	httpClient := &http.Client{Transport: transport, Timeout: 120 * time.Second}

	return NewGraphQLClient(httpClient, graphQLEndpoint(f.cfg.APIBaseURL), f.logger), nil
}

// graphQLEndpoint derives the GraphQL URL from a REST base URL.
// GitHub Enterprise serves REST under /api/v3 and GraphQL under /api/graphql.
func graphQLEndpoint(restBase string) string {
	base := strings.TrimSuffix(restBase, "/")
	if base == "" || base == "https://api.github.com" {
		return ""
	}
	base = strings.TrimSuffix(base, "/v3")
	return base + "/graphql"
}
