package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title GitHub Insights API
// @version 1.0
// @description Syncs GitHub issues, pull requests, releases and milestones and reports project metrics
// @contact.name API Support
// @contact.url http://github.com/Kamar-Folarin
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// SetupRouter configures the API routes, instrumented with the default prometheus registry
func SetupRouter(h *Handler) *gin.Engine {
	return setupRouter(h, getDefaultHTTPMetrics(), prometheus.DefaultGatherer)
}

func setupRouter(h *Handler, metrics *httpMetrics, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger), requestMetricsMiddleware(metrics), requestTracingMiddleware())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(metricsHandler(gatherer)))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		repositories := v1.Group("/repositories")
		{
			repositories.GET("", h.ListRepositories)
			repositories.POST("", h.TrackRepository)
			repositories.DELETE("/:owner/:repo", h.RemoveRepository)
		}

		v1.POST("/sync", h.SyncAll)

		repos := v1.Group("/repos/:owner/:repo")
		{
			repos.POST("/sync", h.SyncRepository)
			repos.GET("/sync-status", h.GetSyncStatus)

			repos.GET("/metrics/issues", h.IssueMetrics)
			repos.GET("/metrics/pulls", h.PullMetrics)
			repos.GET("/metrics/velocity", h.Velocity)
			repos.GET("/metrics/sla", h.SLA)

			repos.GET("/milestones/:number/burndown", h.Burndown)
			repos.GET("/milestones/:number/burnup", h.Burnup)

			repos.GET("/release-notes", h.ReleaseNotes)
		}
	}

	return r
}

// requestLogger logs one structured line per request
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"route":    routeLabel(c),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}).Info("Request handled")
	}
}
