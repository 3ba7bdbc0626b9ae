package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pders01/csvscan/internal/config"
	"github.com/pders01/csvscan/internal/datagen"
	"github.com/pders01/csvscan/internal/debuglog"
	"github.com/pders01/csvscan/internal/validation"
	"github.com/spf13/cobra"
)

func newGenerateDataCmd(opts *globalOptions) *cobra.Command {
	var (
		rows int
		seed uint64
		out  string
	)

	cmd := &cobra.Command{
		Use:   "generate-data",
		Short: "Write a synthetic author/institution CSV file",
		Long: `generate-data writes a deterministic CSV with the columns id, author,
inst_name and pubs, so the benchmark can run without the original dataset.
The file goes to data.path from the configuration unless --out is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.Data.Path
			}
			path, err := validation.NewPermissivePathHandler().OutputFile(config.ExpandPath(out))
			if err != nil {
				return fmt.Errorf("output file: %w", err)
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			bw := bufio.NewWriter(f)
			if err := datagen.Generate(bw, datagen.Options{Rows: rows, Seed: seed}); err != nil {
				f.Close()
				return err
			}
			if err := bw.Flush(); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			debuglog.Infof("generated %d rows into %s", rows, path)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", rows, path)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&rows, "rows", "r", 100000, "Number of data rows")
	f.Uint64Var(&seed, "seed", 1, "Random seed; equal seeds produce identical files")
	f.StringVarP(&out, "out", "o", "", "Output file (defaults to data.path)")
	return cmd
}

func newGenerateConfigCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to get home directory: %w", err)
				}
				out = filepath.Join(home, ".config", "csvscan", "config.toml")
			}
			out = config.ExpandPath(out)

			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("config file already exists at %s", out)
			}
			if err := config.GenerateDefaultConfig(out); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default config at %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Config file path (defaults to ~/.config/csvscan/config.toml)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "csvscan %s\n", Version)
			fmt.Fprintln(w, "CSV scan benchmark harness")
			fmt.Fprintln(w, "github.com/pders01/csvscan")
		},
	}
}
