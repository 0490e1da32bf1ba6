package github

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-insights/internal/ratelimit"
)

// RateLimitInfo holds information about GitHub API rate limits
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetTime time.Time
	// Secondary limits are announced through Retry-After
	SecondaryLimitReset time.Time
}

// retryTransport paces requests through a shared limiter and retries transient
// failures with exponential backoff. Rate limit waits longer than maxBackoff are
// not slept through; the response is handed back so the caller sees the limit.
type retryTransport struct {
	base    http.RoundTripper
	limiter ratelimit.Limiter
	logger  *logrus.Logger

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu   sync.Mutex
	info RateLimitInfo

	sleep func(ctx context.Context, d time.Duration) error
}

func newRetryTransport(base http.RoundTripper, limiter ratelimit.Limiter, logger *logrus.Logger) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	return &retryTransport{
		base:           base,
		limiter:        limiter,
		logger:         logger,
		maxRetries:     3,
		initialBackoff: time.Second,
		maxBackoff:     time.Minute,
		sleep:          sleepContext,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	backoff := t.initialBackoff
	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			if err := rewindBody(req); err != nil {
				return nil, err
			}
		}
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			t.logger.Warnf("Request attempt %d to %s failed: %v", attempt+1, req.URL.Path, err)
			if err := t.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = nextBackoff(backoff, t.maxBackoff)
			continue
		}

		info := t.updateRateLimitInfo(resp)
		if attempt == t.maxRetries {
			return resp, nil
		}

		switch {
		case isRateLimited(resp, info):
			wait := rateLimitWait(resp, info, time.Now())
			if wait > t.maxBackoff {
				t.logger.Warnf("Rate limit exceeded, resets in %v", wait.Round(time.Second))
				return resp, nil
			}
			t.logger.Warnf("Rate limit exceeded. Waiting %v before retry", wait)
			drain(resp)
			if err := t.sleep(ctx, wait); err != nil {
				return nil, err
			}
		case resp.StatusCode >= http.StatusInternalServerError:
			t.logger.Warnf("Request attempt %d to %s returned %d", attempt+1, req.URL.Path, resp.StatusCode)
			drain(resp)
			if err := t.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = nextBackoff(backoff, t.maxBackoff)
		default:
			return resp, nil
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// RateLimit returns the most recent rate limit headers seen
func (t *retryTransport) RateLimit() RateLimitInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info
}

// updateRateLimitInfo updates the rate limit information from response headers
func (t *retryTransport) updateRateLimitInfo(resp *http.Response) RateLimitInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "" {
		t.info.Limit, _ = strconv.Atoi(limit)
	}
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		t.info.Remaining, _ = strconv.Atoi(remaining)
	}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if resetTime, err := strconv.ParseInt(reset, 10, 64); err == nil {
			t.info.ResetTime = time.Unix(resetTime, 0)
		}
	}
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if retrySeconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
			t.info.SecondaryLimitReset = time.Now().Add(time.Duration(retrySeconds) * time.Second)
		}
	}
	return t.info
}

func isRateLimited(resp *http.Response, info RateLimitInfo) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode != http.StatusForbidden {
		return false
	}
	return resp.Header.Get("Retry-After") != "" ||
		(resp.Header.Get("X-RateLimit-Remaining") != "" && info.Remaining == 0)
}

func rateLimitWait(resp *http.Response, info RateLimitInfo, now time.Time) time.Duration {
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if secs, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	if !info.ResetTime.IsZero() {
		if wait := info.ResetTime.Sub(now); wait > 0 {
			return wait
		}
	}
	return 0
}

func nextBackoff(current, limit time.Duration) time.Duration {
	return time.Duration(math.Min(float64(current*2), float64(limit)))
}

func rewindBody(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("failed to reset request body: %w", err)
	}
	req.Body = body
	return nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
