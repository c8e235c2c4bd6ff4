package cache

import (
	"context"
	"sync"
	"time"

	"LiqPull/internal/domain/models"
	drepo "LiqPull/internal/domain/repository"
)

// MemoryResultCache keeps the latest aggregate result in process memory.
// Freshness is decided by the caller from the returned computation time.
type MemoryResultCache struct {
	mu  sync.RWMutex
	res *models.AggregateResult
	at  time.Time
}

func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{}
}

func (c *MemoryResultCache) Get(_ context.Context) (*models.AggregateResult, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.res == nil {
		return nil, time.Time{}, false
	}
	return c.res, c.at, true
}

// Set replaces the entry unless it already holds a newer result.
func (c *MemoryResultCache) Set(_ context.Context, res *models.AggregateResult, at time.Time) {
	if res == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.res != nil && at.Before(c.at) {
		return
	}
	c.res, c.at = res, at
}

var _ drepo.ResultCache = (*MemoryResultCache)(nil)
