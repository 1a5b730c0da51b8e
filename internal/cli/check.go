package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/intent"
	"github.com/garyellow/aulabot-go/internal/knowledge"
)

func newCheckCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the reference and intent tables",
		Long:  "Load the CSV reference tables and the intents file the way the service does, then print what was found.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadForMode(config.ConsoleMode)
			if err != nil {
				return err
			}
			return runCheck(cmd, cfg, strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when a table is missing or rows were skipped")
	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config, strict bool) error {
	out := cmd.OutOrStdout()

	cat, report, err := knowledge.Load(cmd.Context(), cfg.DataDir)
	if err != nil {
		return fmt.Errorf("reference tables: %w", err)
	}
	counts := cat.Counts()
	fmt.Fprintf(out, "Reference tables in %s\n", cfg.DataDir)
	fmt.Fprintf(out, "  majors:  %d\n", counts.Majors)
	fmt.Fprintf(out, "  courses: %d\n", counts.Courses)
	fmt.Fprintf(out, "  qa:      %d\n", counts.QA)
	if len(report.Missing) > 0 {
		fmt.Fprintf(out, "  missing: %s\n", strings.Join(report.Missing, ", "))
	}
	for _, f := range slices.Sorted(maps.Keys(report.Skipped)) {
		fmt.Fprintf(out, "  skipped: %s (%d rows)\n", f, report.Skipped[f])
	}

	tables, err := intent.LoadTables(cfg.IntentsFile)
	if err != nil {
		return fmt.Errorf("intents: %w", err)
	}
	source := "built-in"
	if cfg.IntentsFile != "" {
		source = cfg.IntentsFile
	}
	fmt.Fprintf(out, "Intent tables (%s)\n", source)
	fmt.Fprintf(out, "  intents: %d\n", len(tables.Intents.Categories))
	fmt.Fprintf(out, "  majors:  %d\n", len(tables.Majors.Categories))

	if strict && (len(report.Missing) > 0 || len(report.Skipped) > 0) {
		return errors.New("check: tables are incomplete")
	}
	return nil
}
