package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/aulabot-go/internal/ctxutil"
)

// ContextHandler wraps a handler and adds user_id, channel and request_id
// from the record's context.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx != nil {
		if userID := ctxutil.GetUserID(ctx); userID != "" {
			r.AddAttrs(slog.String("user_id", userID))
		}
		if channel := ctxutil.GetChannel(ctx); channel != "" {
			r.AddAttrs(slog.String("channel", channel))
		}
		if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
			r.AddAttrs(slog.String("request_id", requestID))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
