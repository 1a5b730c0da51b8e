package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/garyellow/aulabot-go/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiter_BurstThenRefill(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := newWithClock(3, 1, clock.Now)

	for i := range 3 {
		assert.True(t, l.Allow(), "request %d", i)
	}
	assert.False(t, l.Allow())
	assert.False(t, l.Check())

	clock.Advance(1500 * time.Millisecond)
	assert.InDelta(t, 1.5, l.Available(), 0.001)
	assert.True(t, l.Check())
	l.Consume()
	assert.InDelta(t, 0.5, l.Available(), 0.001)

	clock.Advance(time.Hour)
	assert.True(t, l.IsFull())
	assert.InDelta(t, 3, l.Available(), 0.001)
}

func TestLimiter_Wait(t *testing.T) {
	t.Parallel()
	l := New(1, 100)
	assert.True(t, l.Allow())

	start := time.Now()
	assert.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)

	slow := New(1, 0.001)
	assert.True(t, slow.Allow())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, slow.Wait(ctx), context.DeadlineExceeded)
}

func TestLimiter_Concurrent(t *testing.T) {
	t.Parallel()
	l := New(50, 0)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Go(func() {
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestSlidingWindowCounter(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	swc := newSlidingWindowWithClock(4, time.Hour, clock.Now)

	for range 4 {
		assert.True(t, swc.Check())
		swc.Consume()
	}
	assert.False(t, swc.Check())
	assert.Zero(t, swc.GetRemaining())

	// Half way into the next window half of the previous count still weighs.
	clock.Advance(90 * time.Minute)
	assert.InDelta(t, 2, swc.GetEffectiveCount(), 0.001)
	assert.Equal(t, 2, swc.GetRemaining())

	// Two windows later nothing is left.
	clock.Advance(3 * time.Hour)
	assert.Zero(t, swc.GetEffectiveCount())
}

func TestSlidingWindowCounter_Disabled(t *testing.T) {
	t.Parallel()
	swc := NewSlidingWindowCounter(0, time.Hour)
	assert.Nil(t, swc)
	assert.True(t, swc.Check())
	swc.Consume()
	assert.Equal(t, -1, swc.GetRemaining())
	assert.Zero(t, swc.GetEffectiveCount())
}

func TestKeyedLimiter_PerKey(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	kl := NewKeyedLimiter(KeyedConfig{Name: NameUser, Burst: 1, RefillRate: 0.001, CleanupPeriod: time.Hour, Metrics: m})
	defer kl.Stop()

	assert.True(t, kl.Allow("u1"))
	assert.False(t, kl.Allow("u1"))
	assert.True(t, kl.Allow("u2"))
	assert.True(t, kl.Allow(""), "empty key is never limited")
	assert.Equal(t, 2, kl.GetActiveCount())
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimiterDropped.WithLabelValues(NameUser)), 0)

	assert.InDelta(t, 1, kl.GetAvailable("unknown"), 0)
	assert.Equal(t, -1, kl.GetDailyRemaining("u1"))
}

func TestKeyedLimiter_DailyLimit(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: NameLLM, Burst: 10, RefillRate: 10, DailyLimit: 2})
	defer kl.Stop()

	assert.Equal(t, 2, kl.GetDailyRemaining("u1"))
	assert.True(t, kl.Allow("u1"))
	assert.True(t, kl.Allow("u1"))
	assert.False(t, kl.Allow("u1"), "daily cap reached while the bucket still has tokens")
	assert.Zero(t, kl.GetDailyRemaining("u1"))
}

func TestKeyedLimiter_Cleanup(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: NameUser, Burst: 2, RefillRate: 1000, CleanupPeriod: 10 * time.Millisecond})
	defer kl.Stop()

	kl.Allow("u1")
	assert.Eventually(t, func() bool { return kl.GetActiveCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestKeyedLimiter_CleanupKeepsDailyUsage(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: NameLLM, Burst: 2, RefillRate: 1000, DailyLimit: 5, CleanupPeriod: time.Hour})
	defer kl.Stop()

	kl.Allow("u1")
	time.Sleep(5 * time.Millisecond)
	kl.cleanup()
	assert.Equal(t, 1, kl.GetActiveCount())
}

func TestKeyedLimiter_StopTwice(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: NameUser, Burst: 1, RefillRate: 1})
	kl.Stop()
	kl.Stop()
}

func TestPerHour(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.01, PerHour(36), 1e-9)
}
