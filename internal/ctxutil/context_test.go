package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestUserID(t *testing.T) {
	t.Parallel()

	if got := GetUserID(context.Background()); got != "" {
		t.Errorf("GetUserID(empty) = %q, want empty", got)
	}
	ctx := WithUserID(context.Background(), "web-123")
	if got := GetUserID(ctx); got != "web-123" {
		t.Errorf("GetUserID() = %q, want web-123", got)
	}
}

func TestChannel(t *testing.T) {
	t.Parallel()

	if got := GetChannel(context.Background()); got != "" {
		t.Errorf("GetChannel(empty) = %q, want empty", got)
	}
	ctx := WithChannel(context.Background(), ChannelLINE)
	if got := GetChannel(ctx); got != ChannelLINE {
		t.Errorf("GetChannel() = %q, want %q", got, ChannelLINE)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	if _, ok := GetRequestID(context.Background()); ok {
		t.Error("GetRequestID(empty) reported ok")
	}
	ctx := WithRequestID(context.Background(), "req-1")
	got, ok := GetRequestID(ctx)
	if !ok || got != "req-1" {
		t.Errorf("GetRequestID() = (%q, %v), want (req-1, true)", got, ok)
	}
}

func TestPreserveTracing(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	parent = WithUserID(parent, "U1")
	parent = WithChannel(parent, ChannelHTTP)
	parent = WithRequestID(parent, "req-9")
	cancel()

	detached := PreserveTracing(parent)
	if detached.Err() != nil {
		t.Fatalf("detached context inherited cancellation: %v", detached.Err())
	}
	if _, ok := detached.Deadline(); ok {
		t.Error("detached context inherited deadline")
	}
	if GetUserID(detached) != "U1" || GetChannel(detached) != ChannelHTTP {
		t.Error("detached context lost user or channel")
	}
	if id, _ := GetRequestID(detached); id != "req-9" {
		t.Errorf("request id = %q, want req-9", id)
	}
}

func TestPreserveTracing_Empty(t *testing.T) {
	t.Parallel()
	ctx := PreserveTracing(context.Background())
	if _, ok := GetRequestID(ctx); ok {
		t.Error("empty parent produced a request id")
	}
}
