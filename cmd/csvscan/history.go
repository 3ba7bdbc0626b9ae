package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/pders01/csvscan/internal/config"
	"github.com/pders01/csvscan/internal/report"
	"github.com/pders01/csvscan/internal/storage"
	"github.com/pders01/csvscan/internal/validation"
	"github.com/spf13/cobra"
)

// historyStore opens the run history. A database path that comes from
// config must stay inside the csvscan state, config or temp directories;
// --db may point anywhere.
func historyStore(opts *globalOptions, cfg *config.Config) (*storage.Store, string, error) {
	ph := validation.NewSecurePathHandler()
	if opts.dbPath != "" {
		ph = validation.NewPermissivePathHandler()
	}
	dbPath, err := ph.HistoryDB(cfg.Database.Path)
	if err != nil {
		return nil, "", fmt.Errorf("history database: %w", err)
	}
	store, err := storage.NewStore(dbPath, cfg.Database.Timeout)
	if err != nil {
		return nil, "", err
	}
	return store, dbPath, nil
}

func openHistory(opts *globalOptions) (*config.Config, *storage.Store, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, _, err := historyStore(opts, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	var (
		name   string
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded benchmark runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, store, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(name, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No runs recorded.")
				return nil
			}
			if !cmd.Flags().Changed("format") {
				format = cfg.Report.Format
			}
			return report.Render(cmd.OutOrStdout(), format, report.FromRuns(runs))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&name, "approach", "a", "", "Only show runs of this approach")
	f.IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to show (0 means all)")
	f.StringVar(&format, "format", "table", "Report format: table, json or toml")

	cmd.AddCommand(newPruneCmd(opts))
	return cmd
}

func newPruneCmd(opts *globalOptions) *cobra.Command {
	var (
		before time.Duration
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded runs older than --before",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all && before <= 0 {
				return errors.New("prune needs --before or --all")
			}
			_, store, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			var cutoff time.Time
			if !all {
				cutoff = time.Now().Add(-before)
			}
			n, err := store.DeleteRuns(cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d runs\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&before, "before", 0, "Delete runs older than this age, e.g. 720h")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every recorded run")
	return cmd
}
