package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyellow/aulabot-go/internal/config"
	"github.com/garyellow/aulabot-go/internal/learned"
	"github.com/garyellow/aulabot-go/internal/storage"
)

func newLearnedCmd() *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "learned",
		Short: "Export or import learned answers",
		Long:  "Move learned question/answer pairs between backends. Export from one backend and import into the other with --backend.",
	}
	cmd.PersistentFlags().StringVar(&backend, "backend", "", "Learned backend: file or sqlite (default "+config.EnvLearnedBackend+")")

	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Write learned answers as JSON ('-' for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openLearned(cmd, backend)
			if err != nil {
				return err
			}
			defer closeStore()

			var w io.Writer = cmd.OutOrStdout()
			if args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("create %s: %w", args[0], err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			n, err := learned.Export(cmd.Context(), store, w)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d entries\n", n)
			return nil
		},
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge learned answers from JSON ('-' for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openLearned(cmd, backend)
			if err != nil {
				return err
			}
			defer closeStore()

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			n, err := learned.Import(cmd.Context(), store, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d entries\n", n)
			return nil
		},
	}

	cmd.AddCommand(export, imp)
	return cmd
}

// openLearned opens the local learned store. The returned func closes it.
func openLearned(cmd *cobra.Command, backend string) (learned.Store, func(), error) {
	cfg, err := config.LoadForMode(config.ConsoleMode)
	if err != nil {
		return nil, nil, err
	}
	if backend == "" {
		backend = cfg.LearnedBackend
	}

	switch backend {
	case learned.BackendFile:
		log := quietLogger(cmd, cfg, cmd.ErrOrStderr())
		return learned.NewFileStore(cfg.LearnedFile, log), func() {}, nil
	case learned.BackendSQLite:
		db, err := storage.New(cmd.Context(), cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		return learned.NewSQLStore(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown learned backend %q", backend)
	}
}
