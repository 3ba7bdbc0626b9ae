package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pders01/csvscan/internal/approach"
	"github.com/pders01/csvscan/internal/bench"
	"github.com/pders01/csvscan/internal/config"
	"github.com/pders01/csvscan/internal/debuglog"
	"github.com/pders01/csvscan/internal/report"
	"github.com/pders01/csvscan/internal/scanner"
	"github.com/pders01/csvscan/internal/storage"
	"github.com/pders01/csvscan/internal/validation"
	"github.com/spf13/cobra"
)

// queryFlags override the [data] and [scanner] config sections.
type queryFlags struct {
	file      string
	needle    string
	column    string
	chunkSize int
	foldCase  bool
}

func (q *queryFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&q.file, "file", "f", "", "CSV file to scan (overrides config)")
	f.StringVarP(&q.needle, "needle", "n", "", "Substring to search for (overrides config)")
	f.StringVar(&q.column, "column", "", "Column matched by column-aware approaches (overrides config)")
	f.IntVar(&q.chunkSize, "chunk-size", 0, "Raw scanner buffer size in bytes (overrides config)")
	f.BoolVar(&q.foldCase, "fold-case", false, "ASCII case-insensitive matching in the raw scanner")
}

func (q *queryFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("file") {
		cfg.Data.Path = config.ExpandPath(q.file)
	}
	if f.Changed("needle") {
		cfg.Data.Needle = q.needle
	}
	if f.Changed("column") {
		cfg.Data.Column = q.column
	}
	if f.Changed("chunk-size") {
		cfg.Scanner.ChunkSize = q.chunkSize
	}
	if f.Changed("fold-case") {
		cfg.Data.FoldCase = q.foldCase
	}
}

func queryFrom(cfg *config.Config) approach.Query {
	return approach.Query{
		Needle:    cfg.Data.Needle,
		Column:    cfg.Data.Column,
		ChunkSize: cfg.Scanner.ChunkSize,
		FoldCase:  cfg.Data.FoldCase,
	}
}

// prepare loads config, applies overrides, validates and resolves the data file.
func prepare(cmd *cobra.Command, opts *globalOptions, q *queryFlags, extra func(*config.Config)) (*config.Config, string, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, "", err
	}
	q.apply(cmd, cfg)
	if extra != nil {
		extra(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: %w", scanner.ErrConfig, err)
	}
	path, err := validation.NewPermissivePathHandler().DataFile(cfg.Data.Path)
	if err != nil {
		return nil, "", fmt.Errorf("data file: %w", err)
	}
	return cfg, path, nil
}

func newBenchCmd(opts *globalOptions) *cobra.Command {
	var (
		q          queryFlags
		iterations int
		warmup     int
		approaches []string
		format     string
		timeout    time.Duration
		noSave     bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time every configured approach and report GB/s",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := prepare(cmd, opts, &q, func(cfg *config.Config) {
				f := cmd.Flags()
				if f.Changed("iterations") {
					cfg.Bench.Iterations = iterations
				}
				if f.Changed("warmup") {
					cfg.Bench.Warmup = warmup
				}
				if f.Changed("approach") {
					cfg.Bench.Approaches = approaches
				}
				if f.Changed("format") {
					cfg.Report.Format = format
				}
				if f.Changed("timeout") {
					cfg.Bench.Timeout = timeout
				}
			})
			if err != nil {
				return err
			}

			selected, err := approach.Resolve(cfg.Bench.Approaches)
			if err != nil {
				return err
			}

			if !opts.quiet && cfg.Report.Format == "table" {
				showBanner(cmd.ErrOrStderr(), path)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			runner := &bench.Runner{
				Iterations: cfg.Bench.Iterations,
				Warmup:     cfg.Bench.Warmup,
				Timeout:    cfg.Bench.Timeout,
			}
			debuglog.Infof("benchmarking %d approaches on %s", len(selected), path)
			results, err := runner.RunAll(ctx, selected, path, queryFrom(cfg))
			if err != nil {
				return err
			}

			if err := report.Render(cmd.OutOrStdout(), cfg.Report.Format, report.FromResults(results)); err != nil {
				return err
			}

			if noSave {
				return nil
			}
			return saveResults(opts, cfg, results)
		},
	}

	q.register(cmd)
	f := cmd.Flags()
	f.IntVarP(&iterations, "iterations", "i", 0, "Timed iterations per approach (overrides config)")
	f.IntVar(&warmup, "warmup", 0, "Untimed warmup iterations per approach (overrides config)")
	f.StringSliceVarP(&approaches, "approach", "a", nil, fmt.Sprintf("Approaches to run, any of %v (overrides config)", approach.Names()))
	f.StringVar(&format, "format", "", "Report format: table, json or toml (overrides config)")
	f.DurationVar(&timeout, "timeout", 0, "Time limit per approach (overrides config)")
	f.BoolVar(&noSave, "no-save", false, "Do not record results in the history database")
	return cmd
}

func saveResults(opts *globalOptions, cfg *config.Config, results []bench.Result) error {
	store, dbPath, err := historyStore(opts, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runs := make([]*storage.Run, len(results))
	for i, res := range results {
		runs[i] = toRun(cfg, res)
	}
	if err := store.SaveRuns(runs); err != nil {
		return fmt.Errorf("saving runs: %w", err)
	}
	debuglog.Infof("saved %d runs to %s", len(runs), dbPath)
	return nil
}

func toRun(cfg *config.Config, res bench.Result) *storage.Run {
	return &storage.Run{
		Approach:    res.Approach,
		File:        res.File,
		FileSize:    res.FileSize,
		Needle:      cfg.Data.Needle,
		Column:      cfg.Data.Column,
		ChunkSize:   cfg.Scanner.ChunkSize,
		FoldCase:    cfg.Data.FoldCase,
		Iterations:  res.Stats.N,
		Matches:     res.Matches,
		Mean:        res.Stats.Mean,
		StdDev:      res.Stats.StdDev,
		Min:         res.Stats.Min,
		Max:         res.Stats.Max,
		Median:      res.Stats.Median,
		GBps:        res.GBps,
		BytesPerOp:  res.BytesPerOp,
		AllocsPerOp: res.AllocsPerOp,
		CreatedAt:   res.Started,
	}
}

// withTimeout bounds ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
