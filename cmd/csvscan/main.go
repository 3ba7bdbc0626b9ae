package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pders01/csvscan/internal/approach"
	"github.com/pders01/csvscan/internal/config"
	"github.com/pders01/csvscan/internal/debuglog"
	"github.com/pders01/csvscan/internal/scanner"
	"github.com/spf13/cobra"
)

// Version is the version of the application, set at build time
var Version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	logLevel   string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "csvscan",
		Short: "Benchmark ways of extracting matching rows from a CSV file",
		Long: `csvscan times several approaches to pulling the rows whose institution
column contains a search term out of a CSV file, and reports throughput in GB/s.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			debuglog.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.dbPath, "db", "", "Path to history database (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error, off (overrides config)")
	flags.BoolVar(&opts.quiet, "quiet", false, "Skip startup banner")

	root.AddCommand(
		newBenchCmd(opts),
		newScanCmd(opts),
		newHistoryCmd(opts),
		newGenerateDataCmd(opts),
		newGenerateConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the configuration, applies the persistent flag
// overrides and starts logging.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Database.Path = config.ExpandPath(o.dbPath)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	return cfg, nil
}

// exitCode maps error categories onto process exit codes.
func exitCode(err error) int {
	if errors.Is(err, approach.ErrUnknownApproach) {
		return 2
	}
	switch scanner.Classify(err) {
	case scanner.CodeConfig:
		return 2
	case scanner.CodeIO:
		return 3
	case scanner.CodeMalformed:
		return 4
	case scanner.CodeCancel:
		return 130
	default:
		return 1
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		debuglog.Errorf("%v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
