// Package app provides the HTTP service: the chat API, the LINE webhook,
// probes and metrics, plus lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/aulabot-go/internal/bot"
	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/logger"
	"github.com/garyellow/aulabot-go/internal/metrics"
	"github.com/garyellow/aulabot-go/internal/ratelimit"
	"github.com/garyellow/aulabot-go/internal/sentry"
	"github.com/garyellow/aulabot-go/internal/webhook"
)

// Application manages the HTTP service lifecycle.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	metrics        *metrics.Metrics
	comps          *Components
	reply          bot.ReplyFunc
	userLimiter    *ratelimit.KeyedLimiter
	webhookHandler *webhook.Handler // nil without LINE credentials
	router         *gin.Engine
	server         *http.Server
	wg             sync.WaitGroup // background jobs
}

// Option customizes New.
type Option func(*options)

type options struct {
	lineClient webhook.Client
}

// WithLineClient replaces the LINE Messaging API client.
func WithLineClient(c webhook.Client) Option {
	return func(o *options) { o.lineClient = c }
}

// New builds the router over comps. Components stay owned by the
// application and are closed on shutdown.
func New(comps *Components, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := comps.Config
	log := comps.Logger
	slog.SetDefault(log.Logger)

	a := &Application{
		cfg:         cfg,
		logger:      log,
		metrics:     comps.Metrics,
		comps:       comps,
		reply:       comps.Dispatcher.Handler(config.ChatTurn),
		userLimiter: comps.UserLimiter,
	}

	if cfg.LINEEnabled() {
		h, err := webhook.NewHandler(webhook.HandlerConfig{
			ChannelSecret: cfg.LineChannelSecret,
			ChannelToken:  cfg.LineChannelToken,
			Client:        o.lineClient,
			Reply:         a.reply,
			Welcome:       bot.WelcomeText,
			Timeout:       cfg.WebhookTimeout,
			GlobalRPS:     cfg.RateLimit.GlobalRPS,
			UserLimiter:   comps.UserLimiter,
			Metrics:       comps.Metrics,
			Logger:        log,
		})
		if err != nil {
			return nil, fmt.Errorf("webhook: %w", err)
		}
		a.webhookHandler = h
	}

	a.router = a.routes()
	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return a, nil
}

func (a *Application) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(requestIDMiddleware())
	router.Use(corsMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	var global gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if rps := a.cfg.RateLimit.GlobalRPS; rps > 0 {
		global = rateLimitMiddleware(ratelimit.New(rps, rps), a.metrics)
	}

	router.GET("/", a.index)
	router.POST("/chat", global, a.chat)
	router.GET("/chat", global, a.chatLegacy)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	if a.webhookHandler != nil {
		router.POST("/webhook", a.webhookHandler.Handle)
	}
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.comps.Registry, promhttp.HandlerOpts{})))
	return router
}

// Handler returns the HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.router
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives.
//
// Shutdown order:
//  1. Cancel context so background jobs stop
//  2. Wait for background jobs
//  3. Stop the HTTP server, drain webhook events, close components
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.startBackgroundJobs(ctx); err != nil {
		a.shutdown()
		return err
	}
	serverErr := a.startHTTPServer()

	var runErr error
	select {
	case sig := <-waitForShutdownSignal(ctx):
		if sig != nil {
			a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
		}
	case err := <-serverErr:
		runErr = err
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	a.shutdown()
	return runErr
}

func (a *Application) startHTTPServer() <-chan error {
	errc := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()
	return errc
}

// waitForShutdownSignal delivers the signal received, or nil when ctx ends
// first.
func waitForShutdownSignal(ctx context.Context) <-chan os.Signal {
	out := make(chan os.Signal, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		select {
		case sig := <-quit:
			out <- sig
		case <-ctx.Done():
			out <- nil
		}
	}()
	return out
}

// shutdown runs after background jobs have exited.
func (a *Application) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	if a.webhookHandler != nil {
		a.logger.Info("Waiting for webhook events to complete...")
		if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
		}
	}

	a.logger.Info("Closing resources...")
	if err := a.comps.Close(); err != nil {
		a.logger.WithError(err).Error("Component close error")
	}

	sentry.Flush(2 * time.Second)
	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", err)
	}
}
