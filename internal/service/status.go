package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kamar-Folarin/github-insights/internal/db"
	"github.com/Kamar-Folarin/github-insights/internal/models"
)

const defaultStatusTTL = time.Minute

type cachedStatus struct {
	status    *models.SyncStatus
	fetchedAt time.Time
}

// StatusCache keeps recently read sync statuses in memory. Entries expire after
// ttl so syncs run outside this process are observed.
type StatusCache struct {
	store db.Store
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	cache map[int64]cachedStatus
}

func NewStatusCache(store db.Store, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = defaultStatusTTL
	}
	return &StatusCache{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[int64]cachedStatus),
	}
}

// Get returns the sync status of a repository, or nil if it was never synced
func (c *StatusCache) Get(ctx context.Context, repoID int64) (*models.SyncStatus, error) {
	c.mu.RLock()
	entry, ok := c.cache[repoID]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.status, nil
	}

	status, err := c.store.GetSyncStatus(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	c.mu.Lock()
	c.cache[repoID] = cachedStatus{status: status, fetchedAt: c.now()}
	c.mu.Unlock()

	return status, nil
}

// Invalidate drops the cached status of a repository
func (c *StatusCache) Invalidate(repoID int64) {
	c.mu.Lock()
	delete(c.cache, repoID)
	c.mu.Unlock()
}

// Clear drops every cached status
func (c *StatusCache) Clear() {
	c.mu.Lock()
	c.cache = make(map[int64]cachedStatus)
	c.mu.Unlock()
}
