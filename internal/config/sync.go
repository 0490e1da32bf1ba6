package config

import "time"

// SyncConfig holds synchronization configuration
type SyncConfig struct {
	Interval time.Duration
	// CacheMaxAge is how old a sync may be before reports read live data instead
	CacheMaxAge time.Duration
	BatchConfig BatchConfig
}

// BatchConfig holds batch processing configuration
type BatchConfig struct {
	Size       int
	Workers    int
	MaxRetries int
	BatchDelay time.Duration
}

// DefaultSyncConfig returns the default sync configuration
func DefaultSyncConfig() *SyncConfig {
	return &SyncConfig{
		Interval:    time.Hour,
		CacheMaxAge: 6 * time.Hour,
		BatchConfig: BatchConfig{
			Size:       25,
			Workers:    3,
			MaxRetries: 3,
			BatchDelay: time.Second,
		},
	}
}
