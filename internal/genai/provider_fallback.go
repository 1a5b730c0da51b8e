package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garyellow/aulabot-go/internal/metrics"
)

// FallbackResponder tries an ordered chain of responders:
//  1. each responder is retried with backoff on transient errors
//  2. on failure the next responder in the chain is tried
//  3. ActionFail errors (auth, bad request, canceled) stop the chain
type FallbackResponder struct {
	chain       []Responder
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

// NewFallbackResponder builds a chain. Nil members are dropped.
func NewFallbackResponder(cfg RetryConfig, m *metrics.Metrics, chain ...Responder) *FallbackResponder {
	f := &FallbackResponder{retryConfig: cfg, metrics: m}
	for _, r := range chain {
		if r != nil {
			f.chain = append(f.chain, r)
		}
	}
	return f
}

// Answer returns the first successful answer along the chain.
func (f *FallbackResponder) Answer(ctx context.Context, req Request) (string, error) {
	if f == nil || len(f.chain) == 0 {
		return "", ErrDisabled
	}

	var errs []error
	for i, r := range f.chain {
		provider := r.Provider()
		start := time.Now()

		var answer string
		err := WithRetry(ctx, f.retryConfig, func(attempt int, err error) {
			slog.DebugContext(ctx, "retrying answer",
				"provider", provider,
				"attempt", attempt,
				"error", err)
		}, func(ctx context.Context) error {
			var err error
			answer, err = r.Answer(ctx, req)
			return err
		})
		f.metrics.RecordLLMRequest(provider.String(), StatusLabel(err), time.Since(start).Seconds())

		if err == nil {
			if i > 0 {
				f.metrics.RecordLLMFallback(f.chain[0].Provider().String(), provider.String())
			}
			return answer, nil
		}
		errs = append(errs, err)

		action := ClassifyError(err)
		slog.WarnContext(ctx, "responder failed",
			"provider", provider,
			"position", i,
			"status", StatusLabel(err),
			"action", action,
			"error", err)

		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			break
		}
		if action == ActionFail && !errors.Is(err, ErrAuth) {
			// A bad request fails the same way on every model.
			break
		}
	}

	if len(errs) == 1 {
		return "", errs[0]
	}
	return "", fmt.Errorf("all responders failed: %w", errors.Join(errs...))
}

// Len returns the number of responders in the chain.
func (f *FallbackResponder) Len() int {
	if f == nil {
		return 0
	}
	return len(f.chain)
}

// Provider returns the primary provider type.
func (f *FallbackResponder) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Close closes every responder in the chain.
func (f *FallbackResponder) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, r := range f.chain {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
