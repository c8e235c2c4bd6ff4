package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter is a keyed token bucket, typically keyed by remote address and route.
type Limiter struct {
	mu   sync.Mutex
	m    map[string]*entry
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter, *janitor)

type janitor struct {
	interval time.Duration
	maxIdle  time.Duration
}

// WithClock uses now as the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter, _ *janitor) { l.now = now }
}

// WithJanitor prunes buckets idle for maxIdle every interval until Close.
func WithJanitor(interval, maxIdle time.Duration) Option {
	return func(_ *Limiter, j *janitor) {
		j.interval = interval
		j.maxIdle = maxIdle
	}
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		m:    make(map[string]*entry),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	j := &janitor{}
	for _, opt := range opts {
		opt(l, j)
	}
	if j.interval > 0 && j.maxIdle > 0 {
		go l.prune(j.interval, j.maxIdle)
	}
	return l
}

// Allow reports whether one event for key fits a bucket of burst tokens
// refilled at perSec. The first call for a key fixes its parameters.
func (l *Limiter) Allow(key string, burst int, perSec float64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(rate.Limit(perSec), burst)}
		l.m[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// Prune drops buckets idle for longer than maxIdle and returns how many were removed.
func (l *Limiter) Prune(maxIdle time.Duration) int {
	cutoff := l.now().Add(-maxIdle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.m {
		if e.seen.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// Close stops the janitor.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) prune(interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Prune(maxIdle)
		case <-l.stop:
			return
		}
	}
}
