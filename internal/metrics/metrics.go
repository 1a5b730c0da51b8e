// Package metrics defines the Prometheus metrics of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Conversation metrics
	TurnsTotal          *prometheus.CounterVec
	TurnDurationSeconds *prometheus.HistogramVec
	IntentMatchesTotal  *prometheus.CounterVec
	IgnoredTotal        prometheus.Counter
	SessionsActive      prometheus.Gauge

	// External model metrics
	LLMRequestsTotal       *prometheus.CounterVec
	LLMDurationSeconds     *prometheus.HistogramVec
	LLMFallbackTotal       *prometheus.CounterVec
	SingleflightDedupTotal *prometheus.CounterVec

	// Data metrics
	RecordsLoaded    *prometheus.GaugeVec
	RowsSkippedTotal *prometheus.CounterVec
	DataReloadsTotal *prometheus.CounterVec
	LearnedEntries   prometheus.Gauge
	IndexSize        *prometheus.GaugeVec

	// Surface metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec
	HTTPErrorsTotal        *prometheus.CounterVec
	RateLimiterDropped     *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	f := promauto.With(registry)
	return &Metrics{
		TurnsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_turns_total",
				Help: "Conversation turns by channel and the step that answered",
			},
			[]string{"channel", "route"}, // route: reset, subflow, learned, intent, major, courses, general, llm, fallback
		),
		TurnDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aulabot_turn_duration_seconds",
				Help:    "Turn processing duration in seconds by channel",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 15},
			},
			[]string{"channel"},
		),
		IntentMatchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_intent_matches_total",
				Help: "Accepted intent classifications by label",
			},
			[]string{"label"},
		),
		IgnoredTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aulabot_ignored_questions_total",
			Help: "Questions no step could answer",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "aulabot_sessions_active",
			Help: "Session records currently held in memory",
		}),

		LLMRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_llm_requests_total",
				Help: "External model requests by provider and outcome",
			},
			[]string{"provider", "status"}, // status: success, timeout, auth, malformed, rate_limited, error
		),
		LLMDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aulabot_llm_duration_seconds",
				Help:    "External model request duration in seconds by provider",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
			},
			[]string{"provider"},
		),
		LLMFallbackTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_llm_fallback_total",
				Help: "Switches from one provider to the next",
			},
			[]string{"from", "to"},
		),
		SingleflightDedupTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_singleflight_dedup_total",
				Help: "Requests that shared an in-flight call instead of making their own",
			},
			[]string{"module"},
		),

		RecordsLoaded: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aulabot_records_loaded",
				Help: "Records in the current reference table snapshot",
			},
			[]string{"table"}, // table: majors, courses, qa
		),
		RowsSkippedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_rows_skipped_total",
				Help: "Table rows dropped by validation",
			},
			[]string{"file"},
		),
		DataReloadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_data_reloads_total",
				Help: "Reference table reloads by status",
			},
			[]string{"status"}, // status: success, error
		),
		LearnedEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "aulabot_learned_entries",
			Help: "Question and answer pairs in the learned store",
		}),
		IndexSize: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aulabot_index_size",
				Help: "Documents per retrieval index",
			},
			[]string{"index"},
		),

		WebhookDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aulabot_webhook_duration_seconds",
				Help:    "Webhook processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 15},
			},
			[]string{"event_type"},
		),
		WebhookRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_webhook_requests_total",
				Help: "Webhook events by type and status",
			},
			[]string{"event_type", "status"},
		),
		HTTPErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_http_errors_total",
				Help: "HTTP errors by type and module",
			},
			[]string{"error_type", "module"}, // error_type: bad_request, validation, internal, invalid_signature, rate_limit
		),
		RateLimiterDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aulabot_rate_limiter_dropped_total",
				Help: "Requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: global, user, llm
		),
	}
}

// RecordTurn records a finished turn.
func (m *Metrics) RecordTurn(channel, route string, duration float64) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(channel, route).Inc()
	m.TurnDurationSeconds.WithLabelValues(channel).Observe(duration)
}

// RecordIntent records an accepted classification.
func (m *Metrics) RecordIntent(label string) {
	if m == nil {
		return
	}
	m.IntentMatchesTotal.WithLabelValues(label).Inc()
}

// RecordIgnored records an unanswered question.
func (m *Metrics) RecordIgnored() {
	if m == nil {
		return
	}
	m.IgnoredTotal.Inc()
}

// SetSessions sets the active session gauge.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// RecordLLMRequest records one provider call.
func (m *Metrics) RecordLLMRequest(provider, status string, duration float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordLLMFallback records a switch between providers.
func (m *Metrics) RecordLLMFallback(from, to string) {
	if m == nil {
		return
	}
	m.LLMFallbackTotal.WithLabelValues(from, to).Inc()
}

// RecordSingleflightDedup records a deduplicated request
func (m *Metrics) RecordSingleflightDedup(module string) {
	if m == nil {
		return
	}
	m.SingleflightDedupTotal.WithLabelValues(module).Inc()
}

// SetRecords sets the loaded record gauges.
func (m *Metrics) SetRecords(majors, courses, qa int) {
	if m == nil {
		return
	}
	m.RecordsLoaded.WithLabelValues("majors").Set(float64(majors))
	m.RecordsLoaded.WithLabelValues("courses").Set(float64(courses))
	m.RecordsLoaded.WithLabelValues("qa").Set(float64(qa))
}

// RecordRowsSkipped adds skipped rows for a file.
func (m *Metrics) RecordRowsSkipped(file string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsSkippedTotal.WithLabelValues(file).Add(float64(n))
}

// RecordDataReload records a reload attempt.
func (m *Metrics) RecordDataReload(status string) {
	if m == nil {
		return
	}
	m.DataReloadsTotal.WithLabelValues(status).Inc()
}

// SetLearnedEntries sets the learned store gauge.
func (m *Metrics) SetLearnedEntries(n int) {
	if m == nil {
		return
	}
	m.LearnedEntries.Set(float64(n))
}

// SetIndexSize sets the document count of a retrieval index.
func (m *Metrics) SetIndexSize(index string, n int) {
	if m == nil {
		return
	}
	m.IndexSize.WithLabelValues(index).Set(float64(n))
}

// RecordWebhook records a webhook request
func (m *Metrics) RecordWebhook(eventType, status string, duration float64) {
	if m == nil {
		return
	}
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration)
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, module string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, module).Inc()
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}
