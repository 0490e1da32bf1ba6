package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

func TestRequestMetricsMiddleware_RecordsRouteTemplates(t *testing.T) {
	router, svc, metrics := setupTestRouter(t, nil)
	svc.On("GetSyncStatus", mock.Anything, widgets).Return(&models.SyncStatus{RepositoryID: 1}, nil).Once()
	svc.On("GetSyncStatus", mock.Anything, models.RepoRef{Owner: "octo", Name: "gadgets"}).
		Return(nil, apperrors.NewNotFoundError("repository not tracked", nil)).Once()

	doRequest(router, http.MethodGet, "/api/v1/repos/octo/widgets/sync-status", nil)
	doRequest(router, http.MethodGet, "/api/v1/repos/octo/gadgets/sync-status", nil)

	route := "/api/v1/repos/:owner/:repo/sync-status"
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestTotal.WithLabelValues(http.MethodGet, route, "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestTotal.WithLabelValues(http.MethodGet, route, "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestErrors.WithLabelValues(http.MethodGet, route, "404")))
}

func TestRequestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	router, _, metrics := setupTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestTotal.WithLabelValues(http.MethodGet, "unmatched", "4xx")))
}

func TestMetricsEndpoint(t *testing.T) {
	router, svc, _ := setupTestRouter(t, nil)
	svc.On("ListRepositories", mock.Anything).Return([]models.Repository{}, nil)

	doRequest(router, http.MethodGet, "/api/v1/repositories", nil)
	w := doRequest(router, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "insights_http_requests_total")
	assert.Contains(t, body, `route="/api/v1/repositories"`)
	assert.False(t, strings.Contains(body, `route="/metrics"`), "scrapes are not counted")
}

func TestHTTPStatusClass(t *testing.T) {
	for code, want := range map[int]string{101: "1xx", 204: "2xx", 304: "3xx", 429: "4xx", 503: "5xx"} {
		assert.Equal(t, want, httpStatusClass(code), code)
	}
}
