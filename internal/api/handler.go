package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "github.com/Kamar-Folarin/github-insights/internal/errors"
	"github.com/Kamar-Folarin/github-insights/internal/metrics"
	"github.com/Kamar-Folarin/github-insights/internal/models"
	"github.com/Kamar-Folarin/github-insights/internal/service"
	"github.com/Kamar-Folarin/github-insights/internal/syncer"
	"github.com/Kamar-Folarin/github-insights/internal/utils"
)

const defaultVelocityWindows = 4

// InsightsService is the application surface served over HTTP
type InsightsService interface {
	ListRepositories(ctx context.Context) ([]models.Repository, error)
	TrackRepository(ctx context.Context, ref models.RepoRef) (*syncer.SyncResult, error)
	RemoveRepository(ctx context.Context, ref models.RepoRef) error
	SyncRepository(ctx context.Context, ref models.RepoRef) (*syncer.SyncResult, error)
	SyncAll(ctx context.Context) (*syncer.BatchResult, error)
	GetSyncStatus(ctx context.Context, ref models.RepoRef) (*models.SyncStatus, error)

	IssueMetrics(ctx context.Context, ref models.RepoRef, opts service.ReportOptions) (*service.Report[*metrics.IssueMetrics], error)
	PullMetrics(ctx context.Context, ref models.RepoRef, opts service.ReportOptions) (*service.Report[*metrics.PullMetrics], error)
	Velocity(ctx context.Context, ref models.RepoRef, period metrics.Period, count int, opts service.ReportOptions) (*service.Report[*metrics.Velocity], error)
	SLA(ctx context.Context, ref models.RepoRef, opts service.ReportOptions) (*service.Report[*metrics.SLAReport], error)
	Burndown(ctx context.Context, ref models.RepoRef, number int, opts service.ReportOptions) (*service.Report[*metrics.Burndown], error)
	Burnup(ctx context.Context, ref models.RepoRef, number int, opts service.ReportOptions) (*service.Report[*metrics.Burnup], error)
	ReleaseNotes(ctx context.Context, ref models.RepoRef, version string, opts service.ReportOptions) (*service.Report[*metrics.ReleaseNotes], error)
}

// Pinger reports store connectivity for the health check
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	service InsightsService
	db      Pinger
	logger  *logrus.Logger
}

func NewHandler(svc InsightsService, db Pinger, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		service: svc,
		db:      db,
		logger:  logger,
	}
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "ok"}
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			h.logger.WithError(err).Warn("Health check failed to reach database")
			resp.Status, resp.Database = "degraded", "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListRepositories godoc
// @Summary List tracked repositories
// @Tags repositories
// @Produce json
// @Success 200 {array} models.Repository
// @Failure 500 {object} ErrorResponse
// @Router /repositories [get]
func (h *Handler) ListRepositories(c *gin.Context) {
	repos, err := h.service.ListRepositories(c.Request.Context())
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, repos)
}

// TrackRepository godoc
// @Summary Track a repository
// @Description Starts tracking a repository and syncs it immediately
// @Tags repositories
// @Accept json
// @Produce json
// @Param request body TrackRepositoryRequest true "Repository to track"
// @Success 201 {object} syncer.SyncResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /repositories [post]
func (h *Handler) TrackRepository(c *gin.Context) {
	var req TrackRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Type: string(apperrors.ErrInvalidFormat)})
		return
	}
	ref, err := utils.ParseRepoRef(req.Repository)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	result, err := h.service.TrackRepository(c.Request.Context(), ref)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// RemoveRepository godoc
// @Summary Stop tracking a repository
// @Tags repositories
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /repositories/{owner}/{repo} [delete]
func (h *Handler) RemoveRepository(c *gin.Context) {
	ref, ok := h.repoRef(c)
	if !ok {
		return
	}
	if err := h.service.RemoveRepository(c.Request.Context(), ref); err != nil {
		h.respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SyncRepository godoc
// @Summary Sync a tracked repository
// @Tags sync
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Success 200 {object} syncer.SyncResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/sync [post]
func (h *Handler) SyncRepository(c *gin.Context) {
	ref, ok := h.repoRef(c)
	if !ok {
		return
	}
	result, err := h.service.SyncRepository(c.Request.Context(), ref)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSyncStatus godoc
// @Summary Get the sync status of a repository
// @Tags sync
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Success 200 {object} models.SyncStatus
// @Failure 404 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/sync-status [get]
func (h *Handler) GetSyncStatus(c *gin.Context) {
	ref, ok := h.repoRef(c)
	if !ok {
		return
	}
	status, err := h.service.GetSyncStatus(c.Request.Context(), ref)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// SyncAll godoc
// @Summary Sync every tracked repository
// @Description Runs one batch over all tracked repositories; per-repository failures are reported, not returned
// @Tags sync
// @Produce json
// @Success 200 {object} syncer.BatchResult
// @Failure 500 {object} ErrorResponse
// @Router /sync [post]
func (h *Handler) SyncAll(c *gin.Context) {
	result, err := h.service.SyncAll(c.Request.Context())
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// IssueMetrics godoc
// @Summary Issue metrics
// @Tags metrics
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Param source query string false "auto, cache or live" default(auto)
// @Param since query string false "Only issues updated since (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/metrics/issues [get]
func (h *Handler) IssueMetrics(c *gin.Context) {
	ref, opts, ok := h.reportRequest(c)
	if !ok {
		return
	}
	report, err := h.service.IssueMetrics(c.Request.Context(), ref, opts)
	h.respond(c, report, err)
}

// PullMetrics godoc
// @Summary Pull request metrics
// @Tags metrics
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Param source query string false "auto, cache or live" default(auto)
// @Param since query string false "Only pull requests updated since (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/metrics/pulls [get]
func (h *Handler) PullMetrics(c *gin.Context) {
	ref, opts, ok := h.reportRequest(c)
	if !ok {
		return
	}
	report, err := h.service.PullMetrics(c.Request.Context(), ref, opts)
	h.respond(c, report, err)
}

// Velocity godoc
// @Summary Issue velocity
// @Tags metrics
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Param period query string false "day, week or month" default(week)
// @Param windows query int false "Number of windows" default(4)
// @Param source query string false "auto, cache or live" default(auto)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/metrics/velocity [get]
func (h *Handler) Velocity(c *gin.Context) {
	ref, opts, ok := h.reportRequest(c)
	if !ok {
		return
	}
	period, err := metrics.ParsePeriod(c.DefaultQuery("period", string(metrics.PeriodWeek)))
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	windows, err := getIntQueryParam(c, "windows", defaultVelocityWindows)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	report, err := h.service.Velocity(c.Request.Context(), ref, period, windows, opts)
	h.respond(c, report, err)
}

// SLA godoc
// @Summary SLA compliance
// @Tags metrics
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Param source query string false "auto, cache or live" default(auto)
// @Param since query string false "Only issues updated since (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/metrics/sla [get]
func (h *Handler) SLA(c *gin.Context) {
	ref, opts, ok := h.reportRequest(c)
	if !ok {
		return
	}
	report, err := h.service.SLA(c.Request.Context(), ref, opts)
	h.respond(c, report, err)
}

// Burndown godoc
// @Summary Milestone burndown
// @Tags milestones
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Param number path int true "Milestone number"
// @Param source query string false "auto, cache or live" default(auto)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/milestones/{number}/burndown [get]
func (h *Handler) Burndown(c *gin.Context) {
	ref, opts, ok := h.reportRequest(c)
	if !ok {
		return
	}
	number, ok := h.milestoneNumber(c)
	if !ok {
		return
	}
	report, err := h.service.Burndown(c.Request.Context(), ref, number, opts)
	h.respond(c, report, err)
}

// Burnup godoc
// @Summary Milestone burnup
// @Tags milestones
// @Produce json
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Param number path int true "Milestone number"
// @Param source query string false "auto, cache or live" default(auto)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/milestones/{number}/burnup [get]
func (h *Handler) Burnup(c *gin.Context) {
	ref, opts, ok := h.reportRequest(c)
	if !ok {
		return
	}
	number, ok := h.milestoneNumber(c)
	if !ok {
		return
	}
	report, err := h.service.Burnup(c.Request.Context(), ref, number, opts)
	h.respond(c, report, err)
}

// ReleaseNotes godoc
// @Summary Generate release notes
// @Description Groups issues closed since the last stable release (or since) into sections. format=markdown returns the rendered changelog.
// @Tags releases
// @Produce json
// @Produce text/markdown
// @Param owner path string true "Repository owner"
// @Param repo path string true "Repository name"
// @Param version query string true "Version being released"
// @Param since query string false "Override the start date (RFC3339)"
// @Param format query string false "json or markdown" default(json)
// @Param source query string false "auto, cache or live" default(auto)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /repos/{owner}/{repo}/release-notes [get]
func (h *Handler) ReleaseNotes(c *gin.Context) {
	ref, opts, ok := h.reportRequest(c)
	if !ok {
		return
	}
	report, err := h.service.ReleaseNotes(c.Request.Context(), ref, c.Query("version"), opts)
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Data.Markdown()))
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) repoRef(c *gin.Context) (models.RepoRef, bool) {
	ref, err := utils.ParseRepoRef(c.Param("owner") + "/" + c.Param("repo"))
	if err != nil {
		h.respondWithError(c, err)
		return models.RepoRef{}, false
	}
	return ref, true
}

func (h *Handler) reportRequest(c *gin.Context) (models.RepoRef, service.ReportOptions, bool) {
	ref, ok := h.repoRef(c)
	if !ok {
		return ref, service.ReportOptions{}, false
	}

	src, err := service.ParseSource(c.Query("source"))
	if err != nil {
		h.respondWithError(c, err)
		return ref, service.ReportOptions{}, false
	}
	opts := service.ReportOptions{Source: src}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondWithError(c, apperrors.NewInvalidFormatError("invalid since parameter (use RFC3339 format)", err))
			return ref, service.ReportOptions{}, false
		}
		opts.Since = &since
	}
	return ref, opts, true
}

func (h *Handler) milestoneNumber(c *gin.Context) (int, bool) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		h.respondWithError(c, apperrors.NewInvalidFormatError(fmt.Sprintf("invalid milestone number %q", c.Param("number")), err))
		return 0, false
	}
	return number, true
}

func (h *Handler) respond(c *gin.Context, payload any, err error) {
	if err != nil {
		h.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// respondWithError maps the application error type to a status code
func (h *Handler) respondWithError(c *gin.Context, err error) {
	errType := apperrors.TypeOf(err)
	code := statusFor(errType)

	if reset, ok := apperrors.RateLimitReset(err); ok {
		if wait := time.Until(reset); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
		}
	}

	entry := h.logger.WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": code,
		"error":  err.Error(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if code == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(code, ErrorResponse{Error: message, Type: string(errType)})
}

func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrInvalidFormat:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrMissingScope:
		return http.StatusForbidden
	case apperrors.ErrRateLimit:
		return http.StatusTooManyRequests
	case apperrors.ErrSyncInProgress:
		return http.StatusConflict
	case apperrors.ErrNetwork:
		return http.StatusServiceUnavailable
	case apperrors.ErrAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func getIntQueryParam(c *gin.Context, param string, defaultValue int) (int, error) {
	value := c.Query(param)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.NewInvalidFormatError(fmt.Sprintf("invalid %s parameter %q", param, value), err)
	}
	return n, nil
}
