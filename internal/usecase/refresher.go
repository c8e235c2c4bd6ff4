package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"LiqPull/internal/domain/models"
	pkgcache "LiqPull/pkg/cache"
	applogger "LiqPull/pkg/logger"
)

var refreshLockKey = pkgcache.GenerateKey("liquidity", "refresh-lock")

// Refreshing is the engine capability the scheduler drives.
type Refreshing interface {
	Refresh(ctx context.Context) (*models.AggregateResult, error)
}

// Locker serializes scheduled refreshes across replicas. Unlock must only
// release a lock still held under the same token.
type Locker interface {
	TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
}

// Refresher warms the result cache on a cron schedule.
type Refresher struct {
	engine  Refreshing
	cron    *cron.Cron
	lock    Locker
	timeout time.Duration
	running atomic.Bool
	l       *applogger.Logger
}

func NewRefresher(engine Refreshing, timeout time.Duration, l *applogger.Logger) *Refresher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Refresher{
		engine:  engine,
		cron:    cron.New(cron.WithSeconds()),
		timeout: timeout,
		l:       l,
	}
}

// SetLocker makes each run acquire a shared lock first.
func (r *Refresher) SetLocker(lk Locker) { r.lock = lk }

// Start schedules refreshes using a six-field cron spec.
func (r *Refresher) Start(spec string) error {
	if _, err := r.cron.AddFunc(spec, func() { r.RunNow(context.Background()) }); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", spec, err)
	}
	r.cron.Start()
	r.l.Info("liquidity refresher started", applogger.String("spec", spec))
	return nil
}

// Stop halts the schedule and waits for a running refresh up to ctx.
func (r *Refresher) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.l.Warn("liquidity refresher stop timed out")
	}
}

// RunNow performs one refresh. Overlapping runs are skipped.
func (r *Refresher) RunNow(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.l.Debug("refresh already running, skipping")
		return false
	}
	defer r.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.lock != nil {
		token := uuid.NewString()
		ok, err := r.lock.TryLock(ctx, refreshLockKey, token, r.timeout)
		if err != nil {
			r.l.Warn("refresh lock failed", applogger.Error(err))
			return false
		}
		if !ok {
			r.l.Debug("refresh held by another replica")
			return false
		}
		defer func() {
			if err := r.lock.Unlock(context.Background(), refreshLockKey, token); err != nil {
				r.l.Warn("refresh unlock failed", applogger.Error(err))
			}
		}()
	}

	start := time.Now()
	res, err := r.engine.Refresh(ctx)
	if err != nil {
		r.l.Error("scheduled refresh failed", applogger.Error(err))
		return false
	}
	r.l.Info("scheduled refresh done",
		applogger.String("signal", string(res.Summary.OverallSignal)),
		applogger.Duration("took", time.Since(start)),
	)
	return true
}
