package db

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/sirupsen/logrus"
)

// ConnectConfig bounds how long Connect waits for the database to come up
type ConnectConfig struct {
	Attempts     int
	InitialDelay time.Duration
}

// DefaultConnectConfig returns the retry settings used by the server
func DefaultConnectConfig() ConnectConfig {
	return ConnectConfig{Attempts: 5, InitialDelay: 2 * time.Second}
}

// Connect opens the store and applies migrations, retrying with exponential backoff
func Connect(ctx context.Context, driver, dsn string, logger *logrus.Logger, cfg ConnectConfig) (*SQLStore, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}

	attempt := 0
	r := retry.New[*SQLStore](retry.Config{
		MaxAttempts:   cfg.Attempts,
		InitialDelay:  cfg.InitialDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	return r.Do(ctx, func(ctx context.Context) (*SQLStore, error) {
		attempt++
		entry := logger.WithFields(logrus.Fields{
			"driver":  driver,
			"attempt": attempt,
		})

		store, err := Open(driver, dsn, logger)
		if err != nil {
			entry.WithError(err).Warn("Database not ready")
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			entry.WithError(err).Warn("Failed to run migrations")
			return nil, err
		}
		entry.Info("Database ready")
		return store, nil
	})
}
