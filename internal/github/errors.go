package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v69/github"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
)

// classifyError maps a go-github error onto the application error taxonomy.
// what names the resource being fetched, for the message.
func classifyError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return apperrors.NewRateLimitError(rateErr.Rate.Reset.Time, rateErr.Rate.Limit, rateErr.Rate.Remaining)
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		reset := time.Now()
		if d := abuseErr.GetRetryAfter(); d > 0 {
			reset = reset.Add(d)
		}
		return apperrors.NewRateLimitError(reset, 0, 0)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		status := respErr.Response.StatusCode
		msg := fmt.Sprintf("%s: %s", what, respErr.Message)
		switch {
		case status == http.StatusNotFound:
			return apperrors.NewNotFoundError(fmt.Sprintf("%s not found", what), err)
		case status == http.StatusUnauthorized:
			return apperrors.NewUnauthorizedError(msg, err)
		case status == http.StatusForbidden:
			return apperrors.NewMissingScopeError(msg, err)
		case status == http.StatusTooManyRequests:
			return apperrors.NewRateLimitError(time.Now().Add(time.Minute), 0, 0)
		case status >= http.StatusInternalServerError:
			return apperrors.NewNetworkError(msg, err)
		default:
			return apperrors.NewAPIError(fmt.Sprintf("%s: status %d: %s", what, status, respErr.Message), err)
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return apperrors.NewNetworkError(fmt.Sprintf("failed to fetch %s", what), err)
	}

	return apperrors.NewAPIError(fmt.Sprintf("failed to fetch %s", what), err)
}

// classifyGraphQLError maps a githubv4 error for org onto the taxonomy. The GraphQL
// client exposes status codes and error types only through the message text.
func classifyGraphQLError(err error, org string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return apperrors.NewNetworkError(fmt.Sprintf("failed to query projects of %s", org), err)
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "RATE_LIMITED"), strings.Contains(msg, "429"):
		return apperrors.NewRateLimitError(time.Now().Add(time.Minute), 0, 0)
	case strings.Contains(msg, "401 Unauthorized"):
		return apperrors.NewUnauthorizedError(fmt.Sprintf("projects of %s", org), err)
	case strings.Contains(msg, "INSUFFICIENT_SCOPES"), strings.Contains(msg, "403 Forbidden"):
		return apperrors.NewMissingScopeError(fmt.Sprintf("projects of %s require the read:project scope", org), err)
	case strings.Contains(msg, "Could not resolve"), strings.Contains(msg, "NOT_FOUND"):
		return apperrors.NewNotFoundError(fmt.Sprintf("organization %s not found", org), err)
	case strings.Contains(msg, "non-200 OK status code: 5"):
		return apperrors.NewNetworkError(fmt.Sprintf("projects of %s", org), err)
	}
	return apperrors.NewAPIError(fmt.Sprintf("failed to query projects of %s", org), err)
}
