package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/garyellow/aulabot-go/internal/bot"
	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/genai"
	"github.com/garyellow/aulabot-go/internal/intent"
	"github.com/garyellow/aulabot-go/internal/knowledge"
	"github.com/garyellow/aulabot-go/internal/learned"
	"github.com/garyellow/aulabot-go/internal/logger"
	"github.com/garyellow/aulabot-go/internal/metrics"
	"github.com/garyellow/aulabot-go/internal/r2client"
	"github.com/garyellow/aulabot-go/internal/rag"
	"github.com/garyellow/aulabot-go/internal/ratelimit"
	"github.com/garyellow/aulabot-go/internal/session"
	"github.com/garyellow/aulabot-go/internal/storage"
)

// Components is everything a conversation surface needs. Console and HTTP
// modes build the same set.
type Components struct {
	Config      *config.Config
	Logger      *logger.Logger
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Holder      *knowledge.Holder
	Index       *rag.BM25Index
	Sessions    *session.MemoryStore
	DB          *storage.DB // nil with the file backend
	Learned     learned.Store
	Ignored     learned.IgnoredLog
	Model       *genai.Service
	LLMLimiter  *ratelimit.KeyedLimiter
	UserLimiter *ratelimit.KeyedLimiter
	Dispatcher  *bot.Dispatcher

	closers []func() error
}

// Build loads the reference tables and wires the dispatcher. Malformed
// tables or an unreadable intents file are fatal.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Components, error) {
	c := &Components{Config: cfg, Logger: log}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	c.Metrics = metrics.New(c.Registry)

	cat, err := c.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	c.Holder = knowledge.NewHolder(cat)

	c.Index = rag.NewBM25Index(log)
	c.RebuildIndex(cat)

	tables, err := intent.LoadTables(cfg.IntentsFile)
	if err != nil {
		return nil, fmt.Errorf("intents: %w", err)
	}

	c.Sessions = session.NewMemoryStore(cfg.SessionTTL)

	if err := c.openLearned(ctx); err != nil {
		return nil, err
	}

	responder, err := genai.CreateResponder(ctx, cfg.LLM, c.Metrics)
	if err != nil {
		log.WithError(err).Warn("LLM initialization failed")
	}
	c.Model = genai.NewService(responder, cfg.LLM.Timeout, c.Metrics)
	c.closers = append(c.closers, c.Model.Close)
	if c.Model.Enabled() {
		log.WithField("providers", cfg.LLM.Providers).Info("LLM fallback enabled")
	} else {
		log.Info("LLM fallback disabled")
	}

	c.LLMLimiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          ratelimit.NameLLM,
		Burst:         cfg.RateLimit.LLMBurst,
		RefillRate:    ratelimit.PerHour(cfg.RateLimit.LLMRefillPerHour),
		DailyLimit:    cfg.RateLimit.LLMDailyLimit,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       c.Metrics,
	})
	c.UserLimiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          ratelimit.NameUser,
		Burst:         cfg.RateLimit.UserBurst,
		RefillRate:    cfg.RateLimit.UserRefillPerSec,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       c.Metrics,
	})
	c.closers = append(c.closers,
		func() error { c.LLMLimiter.Stop(); return nil },
		func() error { c.UserLimiter.Stop(); return nil },
	)

	c.Dispatcher = bot.NewDispatcher(bot.Config{
		Sessions:    c.Sessions,
		Catalog:     c.Holder,
		Intents:     tables.Intents.Build(cfg.Thresholds.Intent),
		Majors:      tables.Majors.Build(cfg.Thresholds.Intent),
		Learned:     c.Learned,
		Ignored:     c.Ignored,
		Index:       c.Index,
		Model:       c.Model,
		LLMLimiter:  c.LLMLimiter,
		Thresholds:  cfg.Thresholds,
		Rephrase:    cfg.LLM.Rephrase,
		ContextDocs: cfg.LLM.ContextDocs,
		Logger:      log,
		Metrics:     c.Metrics,
	})

	ok = true
	return c, nil
}

func (c *Components) loadCatalog(ctx context.Context) (*knowledge.Catalog, error) {
	cat, report, err := knowledge.Load(ctx, c.Config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("reference tables: %w", err)
	}
	c.RecordCatalog(cat, report)
	counts := cat.Counts()
	c.Logger.WithFields(map[string]any{
		"dir":     c.Config.DataDir,
		"majors":  counts.Majors,
		"courses": counts.Courses,
		"qa":      counts.QA,
	}).Info("Reference tables loaded")
	return cat, nil
}

// RecordCatalog logs what a load tolerated and updates the record gauges.
func (c *Components) RecordCatalog(cat *knowledge.Catalog, report knowledge.Report) {
	for _, f := range report.Missing {
		c.Logger.WithField("file", f).Warn("Reference table missing, using an empty table")
	}
	for f, n := range report.Skipped {
		c.Logger.WithField("file", f).WithField("rows", n).Warn("Skipped invalid rows")
		c.Metrics.RecordRowsSkipped(f, n)
	}
	counts := cat.Counts()
	c.Metrics.SetRecords(counts.Majors, counts.Courses, counts.QA)
}

// RebuildIndex reindexes cat for retrieval. A failure leaves the index
// empty and disables retrieved context.
func (c *Components) RebuildIndex(cat *knowledge.Catalog) {
	if err := c.Index.Rebuild(cat); err != nil {
		c.Logger.WithError(err).Warn("BM25 index build failed")
	}
	c.Metrics.SetIndexSize("bm25", c.Index.Count())
}

func (c *Components) openLearned(ctx context.Context) error {
	cfg := c.Config

	switch cfg.LearnedBackend {
	case learned.BackendSQLite:
		db, err := storage.New(ctx, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		c.DB = db
		c.closers = append(c.closers, db.Close)
		c.Learned = learned.NewSQLStore(db)
		c.Ignored = learned.NewSQLLog(db)
		c.Logger.WithField("path", cfg.SQLitePath).Info("Learned store: sqlite")
	default:
		c.Learned = learned.NewFileStore(cfg.LearnedFile, c.Logger)
		fl := learned.NewFileLog(cfg.IgnoredFile, cfg.IgnoredMaxSizeMB, cfg.IgnoredBackups)
		c.closers = append(c.closers, fl.Close)
		c.Ignored = fl
		c.Logger.WithField("path", cfg.LearnedFile).Info("Learned store: file")
	}

	if cfg.R2.Enabled() {
		objects, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2.Endpoint(),
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretAccessKey,
			BucketName:  cfg.R2.BucketName,
		})
		if err != nil {
			return fmt.Errorf("r2: %w", err)
		}
		rep := learned.NewReplicator(objects, cfg.R2.SnapshotKey, c.Logger)
		restoreCtx, cancel := context.WithTimeout(ctx, config.SnapshotRestore)
		n, err := rep.Restore(restoreCtx, c.Learned)
		cancel()
		if err != nil {
			c.Logger.WithError(err).Warn("Learned snapshot restore failed")
		} else {
			c.Logger.WithField("entries", n).Info("Learned snapshot restored")
		}
		replicated := learned.NewReplicatedStore(c.Learned, rep)
		c.closers = append(c.closers, replicated.Close)
		c.Learned = replicated
	}

	c.RecordLearned(ctx)
	return nil
}

// RecordLearned updates the learned-entries gauge.
func (c *Components) RecordLearned(ctx context.Context) {
	m, err := c.Learned.Load(ctx)
	if err != nil {
		c.Logger.WithError(err).Warn("Failed to count learned entries")
		return
	}
	c.Metrics.SetLearnedEntries(len(m))
}

// Close releases everything Build opened, in reverse order.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// StartWatcher hot-reloads the reference tables from DataDir, rebuilding the
// retrieval index after each successful swap.
func (c *Components) StartWatcher(ctx context.Context) (*knowledge.Watcher, error) {
	w := knowledge.NewWatcher(c.Config.DataDir, c.Holder, c.Logger)
	w.OnReload = func(cat *knowledge.Catalog, report knowledge.Report, err error) {
		if err != nil {
			c.Metrics.RecordDataReload("error")
			return
		}
		c.RecordCatalog(cat, report)
		c.RebuildIndex(cat)
		c.Metrics.RecordDataReload("success")
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() error { w.Stop(); return nil })
	return w, nil
}
