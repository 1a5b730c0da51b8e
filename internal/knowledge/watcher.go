package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/garyellow/aulabot-go/internal/logger"
)

// Source yields the catalog to use for the current turn.
type Source interface {
	Catalog() *Catalog
}

// Holder is a Source whose catalog can be swapped atomically.
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder starts with c, or an empty catalog when c is nil.
func NewHolder(c *Catalog) *Holder {
	if c == nil {
		c = Empty()
	}
	h := &Holder{}
	h.current.Store(c)
	return h
}

// Catalog returns the current snapshot.
func (h *Holder) Catalog() *Catalog {
	return h.current.Load()
}

// Swap replaces the snapshot. Turns already running keep the old one.
func (h *Holder) Swap(c *Catalog) {
	if c != nil {
		h.current.Store(c)
	}
}

const defaultDebounce = 300 * time.Millisecond

// Watcher reloads the tables when files in the data directory change.
// A failed reload keeps the previous snapshot.
type Watcher struct {
	dir      string
	holder   *Holder
	log      *logger.Logger
	debounce time.Duration

	// OnReload, if set, is called after every reload attempt.
	OnReload func(c *Catalog, report Report, err error)

	fsw  *fsnotify.Watcher
	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

// NewWatcher creates a watcher that swaps snapshots into holder.
func NewWatcher(dir string, holder *Holder, log *logger.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		holder:   holder,
		log:      log.WithModule("knowledge_watcher"),
		debounce: defaultDebounce,
		stop:     make(chan struct{}),
	}
}

// Start begins watching. It returns once the directory is registered.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("knowledge: create watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("knowledge: watch %s: %w", w.dir, err)
	}
	w.fsw = fsw
	w.wg.Go(func() { w.run(ctx) })
	w.log.WithField("dir", w.dir).Info("Watching reference tables")
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		if w.fsw != nil {
			_ = w.fsw.Close()
		}
	})
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context) {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("Watcher error")
		case <-pending:
			pending = nil
			w.Reload(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !slices.Contains(Files, filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}

// Reload loads the tables now and swaps them in on success.
func (w *Watcher) Reload(ctx context.Context) {
	c, report, err := Load(ctx, w.dir)
	if err != nil {
		w.log.WithError(err).Warn("Reload failed, keeping previous tables")
	} else {
		w.holder.Swap(c)
		counts := c.Counts()
		w.log.WithFields(map[string]any{
			"majors":  counts.Majors,
			"courses": counts.Courses,
			"qa":      counts.QA,
			"missing": report.Missing,
		}).Info("Reference tables reloaded")
	}
	if w.OnReload != nil {
		w.OnReload(c, report, err)
	}
}
