package app

import (
	"context"
	"time"

	"github.com/garyellow/aulabot-go/internal/config"
)

// startBackgroundJobs starts goroutines tracked by the WaitGroup. The data
// watcher is stopped with the components.
func (a *Application) startBackgroundJobs(ctx context.Context) error {
	if a.cfg.WatchData {
		if _, err := a.comps.StartWatcher(ctx); err != nil {
			return err
		}
	}
	a.wg.Go(func() {
		a.updateGaugeMetrics(ctx, config.MetricsUpdateInterval)
	})
	return nil
}

func (a *Application) updateGaugeMetrics(ctx context.Context, interval time.Duration) {
	a.logger.Debug("Gauge metrics job started")
	defer a.logger.Debug("Gauge metrics job stopped")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordGaugeMetrics(ctx)
		}
	}
}

func (a *Application) recordGaugeMetrics(ctx context.Context) {
	a.metrics.SetSessions(a.comps.Sessions.Len())
	a.comps.RecordLearned(ctx)
	a.metrics.SetIndexSize("bm25", a.comps.Index.Count())
}
