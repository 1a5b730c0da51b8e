// Package cli implements the aulabot commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyellow/aulabot-go/internal/buildinfo"
	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/logger"
)

type rootFlags struct {
	dataDir  string
	logLevel string
}

// NewRootCmd returns the top-level command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "aulabot",
		Short:         "Educational assistant for majors, courses and campus questions",
		Long:          "AulaBot answers questions about majors, courses and campus services from CSV tables, over HTTP, LINE or the terminal.",
		Version:       buildinfo.Release(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return flags.apply(cmd)
		},
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "Reference tables directory (overrides "+config.EnvDataDir+")")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides "+config.EnvLogLevel+")")

	root.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newCheckCmd(),
		newLearnedCmd(),
		newVersionCmd(),
	)
	return root
}

// apply exports explicit flags as environment overrides so config loading
// sees them.
func (f *rootFlags) apply(cmd *cobra.Command) error {
	overrides := map[string]string{
		"data-dir":  config.EnvDataDir,
		"log-level": config.EnvLogLevel,
	}
	for flag, env := range overrides {
		fl := cmd.Flags().Lookup(flag)
		if fl == nil || !fl.Changed {
			continue
		}
		if err := os.Setenv(env, fl.Value.String()); err != nil {
			return fmt.Errorf("set %s: %w", env, err)
		}
	}
	return nil
}

// Execute runs the root command and reports the exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// quietLogger writes to w at warn level unless a level was set explicitly.
func quietLogger(cmd *cobra.Command, cfg *config.Config, w io.Writer) *logger.Logger {
	level := "warn"
	if fl := cmd.Flags().Lookup("log-level"); (fl != nil && fl.Changed) || os.Getenv(config.EnvLogLevel) != "" {
		level = cfg.LogLevel
	}
	return logger.NewWithWriter(level, w)
}
