package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestAllowConsumesAndRefills(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(WithClock(clk.now))

	assert.True(t, l.Allow("1.2.3.4:refresh", 2, 0.5))
	assert.True(t, l.Allow("1.2.3.4:refresh", 2, 0.5))
	assert.False(t, l.Allow("1.2.3.4:refresh", 2, 0.5))
	assert.True(t, l.Allow("5.6.7.8:refresh", 2, 0.5), "keys are independent")

	clk.advance(2 * time.Second)
	assert.True(t, l.Allow("1.2.3.4:refresh", 2, 0.5))
	assert.False(t, l.Allow("1.2.3.4:refresh", 2, 0.5))
}

func TestPruneIdleBuckets(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(WithClock(clk.now))
	l.Allow("a", 1, 1)
	clk.advance(time.Hour)
	l.Allow("b", 1, 1)

	assert.Equal(t, 1, l.Prune(30*time.Minute))
	assert.Equal(t, 1, l.Len())
}

func TestJanitorBoundsDistinctRemotes(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(WithClock(clk.now), WithJanitor(5*time.Millisecond, time.Minute))
	defer l.Close()

	for i := 0; i < 10000; i++ {
		l.Allow(fmt.Sprintf("10.0.%d.%d:refresh", i/256, i%256), 2, 1.0/30)
	}
	assert.Equal(t, 10000, l.Len())

	clk.advance(2 * time.Minute)
	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	l := New(WithJanitor(time.Millisecond, time.Second))
	l.Close()
	l.Close()
}
