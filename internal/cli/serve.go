package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/garyellow/aulabot-go/internal/app"
	"github.com/garyellow/aulabot-go/internal/buildinfo"
	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/logger"
	"github.com/garyellow/aulabot-go/internal/sentry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long:  "Serve the chat API, the LINE webhook when credentials are set, probes and metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadForMode(config.ServerMode)
			if err != nil {
				return err
			}

			log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
				BetterStackToken:    cfg.BetterStackToken,
				BetterStackEndpoint: cfg.BetterStackEndpoint,
			})
			log.WithField("version", buildinfo.Release()).Info("Starting AulaBot")

			release := cfg.Sentry.Release
			if release == "" {
				release = buildinfo.Release()
			}
			if err := sentry.Initialize(sentry.Config{
				DSN:              cfg.Sentry.DSN,
				Environment:      cfg.Sentry.Environment,
				Release:          release,
				SampleRate:       cfg.Sentry.SampleRate,
				TracesSampleRate: cfg.Sentry.TracesSampleRate,
			}); err != nil {
				log.WithError(err).Warn("Sentry disabled")
			}

			comps, err := app.Build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			a, err := app.New(comps)
			if err != nil {
				_ = comps.Close()
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
