package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-insights/internal/api"
	"github.com/Kamar-Folarin/github-insights/internal/config"
	"github.com/Kamar-Folarin/github-insights/internal/db"
	"github.com/Kamar-Folarin/github-insights/internal/github"
	"github.com/Kamar-Folarin/github-insights/internal/ratelimit"
	"github.com/Kamar-Folarin/github-insights/internal/service"
	"github.com/Kamar-Folarin/github-insights/internal/syncer"
	"github.com/Kamar-Folarin/github-insights/internal/utils"

	_ "github.com/Kamar-Folarin/github-insights/docs"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.RequireToken(); err != nil {
		logger.Warnf("%v; requests will be unauthenticated", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := initTracing(ctx, cfg.TracingEndpoint)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}

	store, err := db.Connect(ctx, cfg.DBDriver, cfg.DBConnectionString, logger, db.DefaultConnectConfig())
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	factory := github.NewTokenFactory(cfg.GitHub, logger)
	limiter := factory.Limiter("")
	engine := syncer.NewEngine(store, logger)
	svc := service.New(store, engine, factory, limiter, logger, service.OptionsFromConfig(cfg))

	schedulerDone := startSync(ctx, svc, engine, cfg.TrackedRepos, cfg.Sync.Interval, factory, limiter, logger)

	router := api.SetupRouter(api.NewHandler(svc, store, logger))
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	cancel()
	<-schedulerDone
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Errorf("Tracing shutdown failed: %v", err)
	}
	logger.Info("Server exited properly")
}

func newLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// startSync tracks the configured repositories and then starts the batch
// scheduler, so the first batch never races the initial syncs. The returned
// channel is closed once the scheduler exits.
func startSync(ctx context.Context, svc *service.Service, engine *syncer.Engine, repos []string, interval time.Duration,
	factory github.ClientFactory, limiter ratelimit.Limiter, logger *logrus.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		trackConfigured(ctx, svc, repos, logger)
		if ctx.Err() != nil {
			return
		}
		<-engine.StartScheduler(ctx, interval, factory, limiter)
	}()
	return done
}

// trackConfigured starts tracking the repositories listed in configuration that are not tracked yet
func trackConfigured(ctx context.Context, svc *service.Service, repos []string, logger *logrus.Logger) {
	for _, raw := range repos {
		ref, err := utils.ParseRepoRef(raw)
		if err != nil {
			logger.WithError(err).Warnf("Skipping configured repository %q", raw)
			continue
		}
		if _, err := svc.GetSyncStatus(ctx, ref); err == nil {
			continue
		}
		if _, err := svc.TrackRepository(ctx, ref); err != nil {
			logger.WithFields(logrus.Fields{
				"repository": ref.FullName(),
				"error":      err.Error(),
			}).Error("Failed to track configured repository")
		}
	}
}
