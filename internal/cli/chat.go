package cli

import (
	"github.com/spf13/cobra"

	"github.com/garyellow/aulabot-go/internal/app"
	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/console"
)

func newChatCmd() *cobra.Command {
	var (
		userID  string
		noColor bool
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with AulaBot in the terminal",
		Long:  "Start an interactive conversation. Type 'salir' to leave.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadForMode(config.ConsoleMode)
			if err != nil {
				return err
			}
			log := quietLogger(cmd, cfg, cmd.ErrOrStderr())

			comps, err := app.Build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = comps.Close() }()

			if watch {
				if _, err := comps.StartWatcher(cmd.Context()); err != nil {
					log.WithError(err).Warn("Hot reload disabled")
				}
			}

			c := console.New(comps.Dispatcher.Handler(config.ChatTurn), cmd.InOrStdin(), cmd.OutOrStdout(), console.Options{
				UserID:  userID,
				NoColor: noColor,
				Logger:  log,
			})
			return c.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&userID, "user", console.DefaultUserID, "Session id for this conversation")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the reference tables when they change")
	return cmd
}
