package config

import "time"

// HTTP server
const (
	// HTTPRead covers small JSON request bodies.
	HTTPRead = 10 * time.Second

	// HTTPWrite must outlast a turn that ends in a model call with retries.
	HTTPWrite = 45 * time.Second

	// HTTPIdle is the keep-alive timeout.
	HTTPIdle = 120 * time.Second

	// ChatTurn bounds one /chat turn end to end.
	ChatTurn = 40 * time.Second

	// ReadinessCheck bounds the /readyz dependency probes.
	ReadinessCheck = 3 * time.Second
)

// Webhook
const (
	// WebhookProcessing bounds one LINE event. LINE shows the loading
	// animation for up to 60s.
	WebhookProcessing = 60 * time.Second
)

// External model
const (
	// LLMRequest is the default budget for one fallback answer, retries
	// included.
	LLMRequest = 15 * time.Second

	// LLMRetryInitial is the first backoff delay; later ones double.
	LLMRetryInitial = 500 * time.Millisecond

	// LLMRetryMax caps a single backoff delay.
	LLMRetryMax = 4 * time.Second
)

// Storage
const (
	// DatabaseConnMaxLifetime recycles SQLite connections.
	DatabaseConnMaxLifetime = time.Hour

	// SnapshotRestore bounds the startup restore from R2.
	SnapshotRestore = 30 * time.Second
)

// Background jobs
const (
	// MetricsUpdateInterval is how often gauge metrics are refreshed.
	MetricsUpdateInterval = time.Minute

	// RateLimiterCleanupInterval is how often idle per-user limiters are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute

	// DataReloadDebounce coalesces bursts of file events.
	DataReloadDebounce = 300 * time.Millisecond
)

// GracefulShutdown is the default time allowed for in-flight requests.
const GracefulShutdown = 30 * time.Second
