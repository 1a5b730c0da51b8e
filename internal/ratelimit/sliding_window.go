package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter approximates a rolling window with two fixed
// windows: effective = current + previous × (unelapsed share of the current
// window). A nil counter is unlimited.
type SlidingWindowCounter struct {
	mu              sync.Mutex
	currCount       int
	prevCount       int
	currWindowStart time.Time
	windowDuration  time.Duration
	maxRequests     int
	now             func() time.Time
}

// NewSlidingWindowCounter returns nil when maxRequests <= 0.
func NewSlidingWindowCounter(maxRequests int, windowDuration time.Duration) *SlidingWindowCounter {
	return newSlidingWindowWithClock(maxRequests, windowDuration, time.Now)
}

func newSlidingWindowWithClock(maxRequests int, windowDuration time.Duration, now func() time.Time) *SlidingWindowCounter {
	if maxRequests <= 0 {
		return nil
	}
	return &SlidingWindowCounter{
		currWindowStart: now(),
		windowDuration:  windowDuration,
		maxRequests:     maxRequests,
		now:             now,
	}
}

// Check reports whether one more request fits.
func (swc *SlidingWindowCounter) Check() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return swc.weighted() < float64(swc.maxRequests)
}

// Consume counts one request if it still fits.
func (swc *SlidingWindowCounter) Consume() {
	if swc == nil {
		return
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	if swc.weighted() < float64(swc.maxRequests) {
		swc.currCount++
	}
}

// rotate must be called with mu held.
func (swc *SlidingWindowCounter) rotate() {
	elapsed := swc.now().Sub(swc.currWindowStart)
	if elapsed < swc.windowDuration {
		return
	}

	windowsPassed := int(elapsed / swc.windowDuration)
	if windowsPassed == 1 {
		swc.prevCount = swc.currCount
	} else {
		swc.prevCount = 0
	}
	swc.currCount = 0
	swc.currWindowStart = swc.currWindowStart.Add(time.Duration(windowsPassed) * swc.windowDuration)
}

// weighted must be called with mu held.
func (swc *SlidingWindowCounter) weighted() float64 {
	elapsed := swc.now().Sub(swc.currWindowStart)
	overlap := float64(swc.windowDuration-elapsed) / float64(swc.windowDuration)
	overlap = min(max(overlap, 0), 1)
	return float64(swc.currCount) + float64(swc.prevCount)*overlap
}

// GetEffectiveCount returns the weighted count.
func (swc *SlidingWindowCounter) GetEffectiveCount() float64 {
	if swc == nil {
		return 0
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return swc.weighted()
}

// GetRemaining returns the approximate remaining quota, or -1 when
// unlimited.
func (swc *SlidingWindowCounter) GetRemaining() int {
	if swc == nil {
		return -1
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return max(int(float64(swc.maxRequests)-swc.weighted()), 0)
}
