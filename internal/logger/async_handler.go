package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultQueueSize     = 1024
	defaultFlushDeadline = 5 * time.Second
)

// AsyncOptions sizes the background queue.
type AsyncOptions struct {
	QueueSize     int
	FlushDeadline time.Duration
}

type queued struct {
	ctx    context.Context
	record slog.Record
	dest   slog.Handler
}

// queue is shared by an AsyncHandler and every handler derived from it.
type queue struct {
	items    chan queued
	deadline time.Duration
	mu       sync.RWMutex
	closed   bool
	dropped  atomic.Uint64
	done     sync.WaitGroup
}

func startQueue(opts AsyncOptions) *queue {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	deadline := opts.FlushDeadline
	if deadline <= 0 {
		deadline = defaultFlushDeadline
	}
	q := &queue{items: make(chan queued, size), deadline: deadline}
	q.done.Go(func() {
		for it := range q.items {
			_ = it.dest.Handle(it.ctx, it.record)
		}
	})
	return q
}

func (q *queue) push(it queued) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return
	}
	select {
	case q.items <- it:
	default:
		// Full queue: drop rather than block the turn.
		q.dropped.Add(1)
	}
}

func (q *queue) close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.deadline)
		defer cancel()
	}

	drained := make(chan struct{})
	go func() {
		q.done.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncHandler hands records to a background goroutine so a slow remote
// sink never delays a reply.
type AsyncHandler struct {
	q    *queue
	dest slog.Handler
}

// NewAsyncHandler starts the background worker for dest.
func NewAsyncHandler(dest slog.Handler, opts AsyncOptions) *AsyncHandler {
	return &AsyncHandler{q: startQueue(opts), dest: dest}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.dest.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.dest.Enabled(ctx, r.Level) {
		h.q.push(queued{ctx: context.WithoutCancel(ctx), record: r.Clone(), dest: h.dest})
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{q: h.q, dest: h.dest.WithAttrs(attrs)}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{q: h.q, dest: h.dest.WithGroup(name)}
}

// Dropped returns how many records were discarded.
func (h *AsyncHandler) Dropped() uint64 {
	return h.q.dropped.Load()
}

// Shutdown stops accepting records and waits for the queue to drain.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.q == nil {
		return nil
	}
	return h.q.close(ctx)
}
