package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LiqPull/internal/domain/models"
	pkgcache "LiqPull/pkg/cache"
	applogger "LiqPull/pkg/logger"
)

type countingEngine struct {
	calls atomic.Int32
	err   error
	gate  chan struct{}
}

func (c *countingEngine) Refresh(ctx context.Context) (*models.AggregateResult, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	if c.err != nil {
		return nil, c.err
	}
	return &models.AggregateResult{Summary: models.Summary{OverallSignal: models.SignalNeutral}}, nil
}

func TestRefresherRunNow(t *testing.T) {
	eng := &countingEngine{}
	r := NewRefresher(eng, time.Second, applogger.NewNop())

	assert.True(t, r.RunNow(context.Background()))
	assert.Equal(t, int32(1), eng.calls.Load())

	eng.err = errors.New("boom")
	assert.False(t, r.RunNow(context.Background()))
}

func TestRefresherSkipsOverlap(t *testing.T) {
	eng := &countingEngine{gate: make(chan struct{})}
	r := NewRefresher(eng, time.Second, applogger.NewNop())

	done := make(chan bool)
	go func() { done <- r.RunNow(context.Background()) }()
	require.Eventually(t, func() bool { return eng.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	assert.False(t, r.RunNow(context.Background()))
	close(eng.gate)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), eng.calls.Load())
}

func TestRefresherRespectsSharedLock(t *testing.T) {
	mc := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer mc.Close()

	ok, err := mc.TryLock(context.Background(), refreshLockKey, "other-replica", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	eng := &countingEngine{}
	r := NewRefresher(eng, time.Second, applogger.NewNop())
	r.SetLocker(mc)

	assert.False(t, r.RunNow(context.Background()))
	assert.Zero(t, eng.calls.Load())

	require.NoError(t, mc.Unlock(context.Background(), refreshLockKey, "other-replica"))
	assert.True(t, r.RunNow(context.Background()))
	held, _ := mc.Exists(context.Background(), refreshLockKey)
	assert.False(t, held, "lock released after the run")
}

func TestRefresherRejectsBadSpec(t *testing.T) {
	r := NewRefresher(&countingEngine{}, time.Second, applogger.NewNop())
	assert.Error(t, r.Start("every tuesday"))
}

func TestRefresherSchedules(t *testing.T) {
	eng := &countingEngine{}
	r := NewRefresher(eng, time.Second, applogger.NewNop())
	require.NoError(t, r.Start("* * * * * *"))
	defer r.Stop(context.Background())

	assert.Eventually(t, func() bool { return eng.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

type recordingLocker struct {
	locked, unlocked []string
}

func (l *recordingLocker) TryLock(_ context.Context, _, token string, _ time.Duration) (bool, error) {
	l.locked = append(l.locked, token)
	return true, nil
}

func (l *recordingLocker) Unlock(_ context.Context, _, token string) error {
	l.unlocked = append(l.unlocked, token)
	return nil
}

func TestRefresherReleasesOnlyItsOwnLock(t *testing.T) {
	lk := &recordingLocker{}
	r := NewRefresher(&countingEngine{}, time.Second, applogger.NewNop())
	r.SetLocker(lk)

	require.True(t, r.RunNow(context.Background()))
	require.True(t, r.RunNow(context.Background()))

	require.Len(t, lk.locked, 2)
	assert.Equal(t, lk.locked, lk.unlocked)
	assert.NotEqual(t, lk.locked[0], lk.locked[1], "each run holds a distinct token")
	assert.NotEmpty(t, lk.locked[0])
}

func TestRefresherLeaseExpiryKeepsSuccessorLock(t *testing.T) {
	mc := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer mc.Close()

	eng := &countingEngine{gate: make(chan struct{})}
	r := NewRefresher(eng, time.Second, applogger.NewNop())
	r.SetLocker(mc)

	done := make(chan bool)
	go func() { done <- r.RunNow(context.Background()) }()
	require.Eventually(t, func() bool { return eng.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// simulate the lease lapsing and another replica taking over
	require.NoError(t, mc.Delete(context.Background(), refreshLockKey))
	ok, err := mc.TryLock(context.Background(), refreshLockKey, "successor", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	close(eng.gate)
	<-done

	held, _ := mc.Exists(context.Background(), refreshLockKey)
	assert.True(t, held, "finishing run must not release the successor's lock")
}
