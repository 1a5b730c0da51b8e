package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/garyellow/aulabot-go/internal/logger"
	"github.com/garyellow/aulabot-go/internal/sentry"
)

// ReplyFunc answers one message. Dispatcher.Reply is the innermost one.
type ReplyFunc func(ctx context.Context, channel, userID, text string) (string, error)

// Middleware wraps a ReplyFunc.
type Middleware func(next ReplyFunc) ReplyFunc

// Chain applies middlewares so the first one listed runs outermost.
func Chain(h ReplyFunc, mws ...Middleware) ReplyFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RecoveryMiddleware turns a panic inside a turn into an error and reports
// it to Sentry when enabled.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next ReplyFunc) ReplyFunc {
		return func(ctx context.Context, channel, userID, text string) (reply string, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("bot: panic in turn: %v", r)
					log.WithField("panic", r).
						WithField("channel", channel).
						WithField("stack", string(debug.Stack())).
						Error("Turn panicked")
					sentry.CaptureException(ctx, err, map[string]string{"module": "bot", "channel": channel})
					reply = ""
				}
			}()
			return next(ctx, channel, userID, text)
		}
	}
}

// TimeoutMiddleware bounds a whole turn.
func TimeoutMiddleware(d time.Duration) Middleware {
	return func(next ReplyFunc) ReplyFunc {
		return func(ctx context.Context, channel, userID, text string) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, channel, userID, text)
		}
	}
}

// LoggingMiddleware logs each turn at debug level with its timing.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next ReplyFunc) ReplyFunc {
		return func(ctx context.Context, channel, userID, text string) (string, error) {
			start := time.Now()
			reply, err := next(ctx, channel, userID, text)
			entry := log.WithFields(map[string]any{
				"channel":      channel,
				"text_length":  len(text),
				"reply_length": len(reply),
				"duration_ms":  time.Since(start).Milliseconds(),
			})
			if err != nil {
				entry.WithError(err).Warn("Turn failed")
			} else {
				entry.Debug("Turn completed")
			}
			return reply, err
		}
	}
}

// Handler returns the dispatcher wrapped with the standard middlewares.
func (d *Dispatcher) Handler(turnTimeout time.Duration) ReplyFunc {
	return Chain(d.Reply,
		RecoveryMiddleware(d.logger),
		LoggingMiddleware(d.logger),
		TimeoutMiddleware(turnTimeout),
	)
}
