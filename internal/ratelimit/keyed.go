package ratelimit

import (
	"sync"
	"time"

	"github.com/garyellow/aulabot-go/internal/metrics"
)

// Limiter names, also used as metric labels.
const (
	NameUser = "user"
	NameLLM  = "llm"
)

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name labels drops in metrics (NameUser, NameLLM).
	Name string

	Burst      float64 // bucket capacity
	RefillRate float64 // tokens per second

	// DailyLimit caps requests per rolling 24h window; 0 disables it.
	DailyLimit int

	CleanupPeriod time.Duration // default 5m
	Metrics       *metrics.Metrics
}

// KeyedLimiter keeps one bucket per user id and drops buckets that have
// refilled completely.
type KeyedLimiter struct {
	mu       sync.RWMutex
	entries  map[string]*keyedEntry
	config   KeyedConfig
	onDrop   func()
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// keyedEntry pairs the bucket with the daily window. mu makes the
// check-then-consume across both atomic.
type keyedEntry struct {
	mu      sync.Mutex
	limiter *Limiter
	daily   *SlidingWindowCounter
}

// NewKeyedLimiter starts a limiter and its cleanup goroutine. Call Stop
// when done.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		config:  cfg,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cfg.Metrics != nil {
		kl.onDrop = func() { cfg.Metrics.RecordRateLimiterDrop(cfg.Name) }
	}

	go kl.cleanupLoop()

	return kl
}

// Allow consumes a token for key when both the bucket and the daily window
// have room. An empty key is always allowed.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	entry := kl.getOrCreateEntry(key)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.daily.Check() || !entry.limiter.Check() {
		if kl.onDrop != nil {
			kl.onDrop()
		}
		return false
	}

	entry.daily.Consume()
	entry.limiter.Consume()
	return true
}

// PerHour converts an hourly refill to the per-second rate KeyedConfig
// expects.
func PerHour(n float64) float64 {
	return n / 3600
}

// getOrCreateEntry returns the entry for a key, creating it if needed.
func (kl *KeyedLimiter) getOrCreateEntry(key string) *keyedEntry {
	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if exists {
		return entry
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	entry, exists = kl.entries[key]
	if exists {
		return entry
	}

	entry = &keyedEntry{
		limiter: New(kl.config.Burst, kl.config.RefillRate),
		daily:   NewSlidingWindowCounter(kl.config.DailyLimit, 24*time.Hour),
	}
	kl.entries[key] = entry
	return entry
}

// GetAvailable returns the number of available tokens for a key.
// Returns Burst if the key has no limiter yet.
func (kl *KeyedLimiter) GetAvailable(key string) float64 {
	if key == "" {
		return kl.config.Burst
	}

	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if !exists {
		return kl.config.Burst
	}

	return entry.limiter.Available()
}

// GetDailyRemaining returns the remaining daily quota for a key, or -1
// when the daily limit is disabled.
func (kl *KeyedLimiter) GetDailyRemaining(key string) int {
	if kl.config.DailyLimit <= 0 {
		return -1
	}

	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if !exists {
		return kl.config.DailyLimit
	}

	return entry.daily.GetRemaining()
}

// GetActiveCount returns the number of active limiters.
func (kl *KeyedLimiter) GetActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

// cleanupLoop drops idle entries every CleanupPeriod.
func (kl *KeyedLimiter) cleanupLoop() {
	defer close(kl.done)
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.cleanup()
		}
	}
}

func (kl *KeyedLimiter) cleanup() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, entry := range kl.entries {
		if entry.limiter.IsFull() && (entry.daily == nil || entry.daily.GetEffectiveCount() == 0) {
			delete(kl.entries, key)
		}
	}
}

// Stop ends the cleanup goroutine and waits for it. Safe to call more than
// once.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() { close(kl.stopCh) })
	<-kl.done
}
