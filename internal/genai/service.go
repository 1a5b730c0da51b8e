package genai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/garyellow/aulabot-go/internal/metrics"
	"github.com/garyellow/aulabot-go/internal/stringutil"
)

// Service wraps a Responder with a per-call timeout and merges identical
// concurrent questions into one model call.
type Service struct {
	responder Responder
	timeout   time.Duration
	metrics   *metrics.Metrics
	group     singleflight.Group
}

// NewService returns a service over responder. A nil responder yields a
// disabled service whose Ask always fails with ErrDisabled.
func NewService(responder Responder, timeout time.Duration, m *metrics.Metrics) *Service {
	return &Service{responder: responder, timeout: timeout, metrics: m}
}

// Enabled reports whether a model is configured.
func (s *Service) Enabled() bool {
	if s == nil || s.responder == nil {
		return false
	}
	if f, ok := s.responder.(*FallbackResponder); ok {
		return f.Len() > 0
	}
	return true
}

// flightKey groups requests that would get the same answer. History is
// left out so two users asking the same thing at once share a call.
func flightKey(req Request) string {
	return stringutil.FullProcess(req.Question) + "\x00" + req.Context
}

// Ask returns the model's answer. Errors are classified with Kind and
// logged once here; callers only need to treat them as "no answer".
func (s *Service) Ask(ctx context.Context, req Request) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}

	leader := false
	ch := s.group.DoChan(flightKey(req), func() (any, error) {
		leader = true
		// The shared call must not die with the first caller's context.
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.responder.Answer(callCtx, req)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	case res := <-ch:
		if res.Shared && !leader {
			s.metrics.RecordSingleflightDedup("llm")
		}
		if res.Err != nil {
			slog.WarnContext(ctx, "model gave no answer",
				"provider", s.responder.Provider(),
				"status", StatusLabel(res.Err),
				"error", res.Err)
			if kind := Kind(res.Err); kind != nil {
				return "", fmt.Errorf("%w: %w", kind, res.Err)
			}
			return "", res.Err
		}
		answer, _ := res.Val.(string)
		return answer, nil
	}
}

// Close releases the underlying responder.
func (s *Service) Close() error {
	if s == nil || s.responder == nil {
		return nil
	}
	return s.responder.Close()
}
