package repository

import (
	"context"
	"errors"
	"time"

	"LiqPull/internal/domain/models"
	domrepo "LiqPull/internal/domain/repository"
	pkgcache "LiqPull/pkg/cache"
	applogger "LiqPull/pkg/logger"
)

var snapshotKey = pkgcache.GenerateKey("liquidity", "snapshot")

type cachedSnapshot struct {
	Result     *models.AggregateResult `json:"result"`
	ComputedAt time.Time               `json:"computedAt"`
}

// SharedResultCache stores the aggregate result in a key-value cache so
// several replicas can share one snapshot. Cache errors degrade to a miss.
type SharedResultCache struct {
	svc pkgcache.Service
	ttl time.Duration
	l   *applogger.Logger
}

// NewSharedResultCache keeps entries for ttl. Freshness is still judged by
// the engine from the stored computation time.
func NewSharedResultCache(svc pkgcache.Service, ttl time.Duration, l *applogger.Logger) *SharedResultCache {
	return &SharedResultCache{svc: svc, ttl: ttl, l: l}
}

func (c *SharedResultCache) Get(ctx context.Context) (*models.AggregateResult, time.Time, bool) {
	var snap cachedSnapshot
	if err := c.svc.Get(ctx, snapshotKey, &snap); err != nil {
		if !errors.Is(err, pkgcache.ErrCacheMiss) {
			c.l.Warn("result cache read failed", applogger.Error(err))
		}
		return nil, time.Time{}, false
	}
	if snap.Result == nil {
		return nil, time.Time{}, false
	}
	return snap.Result, snap.ComputedAt, true
}

func (c *SharedResultCache) Set(ctx context.Context, res *models.AggregateResult, at time.Time) {
	if res == nil {
		return
	}
	if err := c.svc.Set(ctx, snapshotKey, cachedSnapshot{Result: res, ComputedAt: at}, c.ttl); err != nil {
		c.l.Warn("result cache write failed", applogger.Error(err))
	}
}

var _ domrepo.ResultCache = (*SharedResultCache)(nil)
