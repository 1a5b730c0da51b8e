// Package ctxutil carries per-turn tracing values through context.Context.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	channelKey   contextKey = "ctxutil.channel"
	requestIDKey contextKey = "ctxutil.requestID"
)

// Channels a turn can arrive on.
const (
	ChannelHTTP    = "http"
	ChannelLINE    = "line"
	ChannelConsole = "console"
)

// WithUserID adds the chatting user's id to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the user id, or "" when absent.
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}
	return ""
}

// WithChannel records which surface the turn came from.
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey, channel)
}

// GetChannel returns the channel, or "" when absent.
func GetChannel(ctx context.Context) string {
	if channel, ok := ctx.Value(channelKey).(string); ok {
		return channel
	}
	return ""
}

// WithRequestID adds a request id for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request id and whether one was set.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// PreserveTracing returns a context detached from ctx's cancellation that
// still carries its tracing values. LINE events are processed after the
// webhook response is written, so they need a context that outlives the
// request.
func PreserveTracing(ctx context.Context) context.Context {
	out := context.Background()
	if userID := GetUserID(ctx); userID != "" {
		out = WithUserID(out, userID)
	}
	if channel := GetChannel(ctx); channel != "" {
		out = WithChannel(out, channel)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		out = WithRequestID(out, requestID)
	}
	return out
}
