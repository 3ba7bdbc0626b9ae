package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"

	"github.com/pders01/csvscan/internal/approach"
	"github.com/pders01/csvscan/internal/debuglog"
	"github.com/pders01/csvscan/internal/scanner"
	"github.com/spf13/cobra"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	var (
		q         queryFlags
		name      string
		limit     int
		countOnly bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Print the matching rows of the data file",
		Long: `scan runs one approach once and prints the rows it extracts. The raw
approach streams rows as they are found, so --limit stops reading early.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := prepare(cmd, opts, &q, nil)
			if err != nil {
				return err
			}
			a, err := approach.Lookup(name)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := withTimeout(ctx, cfg.Bench.Timeout)
			defer cancel()

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			out := bufio.NewWriter(cmd.OutOrStdout())

			count := 0
			if a.Name == "raw" {
				s, err := scanner.New([]byte(cfg.Data.Needle),
					scanner.WithChunkSize(cfg.Scanner.ChunkSize),
					scanner.WithFoldCase(cfg.Data.FoldCase))
				if err != nil {
					return err
				}
				err = s.Each(ctx, f, func(line string) error {
					count++
					if !countOnly {
						if _, err := fmt.Fprintln(out, line); err != nil {
							return err
						}
					}
					if limit > 0 && count >= limit {
						return scanner.ErrStop
					}
					return nil
				})
				if err != nil {
					return err
				}
			} else {
				res, err := a.Run(ctx, f, queryFrom(cfg))
				if err != nil {
					return err
				}
				lines := res.Lines
				if limit > 0 && len(lines) > limit {
					lines = lines[:limit]
				}
				count = res.Count
				if limit > 0 && count > limit {
					count = limit
				}
				if !countOnly {
					for _, line := range lines {
						if _, err := fmt.Fprintln(out, line); err != nil {
							return err
						}
					}
				}
			}

			debuglog.Infof("%s found %d rows in %s", a.Name, count, path)
			if countOnly {
				if _, err := fmt.Fprintln(out, count); err != nil {
					return err
				}
			}
			return out.Flush()
		},
	}

	q.register(cmd)
	f := cmd.Flags()
	f.StringVarP(&name, "approach", "a", "raw", fmt.Sprintf("Approach to run, one of %v", approach.Names()))
	f.IntVar(&limit, "limit", 0, "Stop after this many rows (0 means all)")
	f.BoolVarP(&countOnly, "count", "c", false, "Print only the number of matching rows")
	return cmd
}
