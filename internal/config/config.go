package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ReportFormats lists the accepted values of report.format.
var ReportFormats = []string{"table", "json", "toml"}

type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Scanner  ScannerConfig  `mapstructure:"scanner"`
	Bench    BenchConfig    `mapstructure:"bench"`
	Database DatabaseConfig `mapstructure:"database"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      LogConfig      `mapstructure:"log"`
}

type DataConfig struct {
	Path     string `mapstructure:"path"`
	Needle   string `mapstructure:"needle"`
	Column   string `mapstructure:"column"`
	FoldCase bool   `mapstructure:"fold_case"`
}

type ScannerConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
}

type BenchConfig struct {
	Iterations int           `mapstructure:"iterations"`
	Warmup     int           `mapstructure:"warmup"`
	Approaches []string      `mapstructure:"approaches"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ReportConfig struct {
	Format string `mapstructure:"format"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	stateDir := filepath.Join(homeDir, ".csvscan")

	return &Config{
		Data: DataConfig{
			Path:   filepath.Join("data", "Table_1_Authors_career_2023_pubs_since_1788_wopp_extracted_202408_justnames.csv"),
			Needle: "Harvard",
			Column: "inst_name",
		},
		Scanner: ScannerConfig{
			ChunkSize: 4 * 1024,
		},
		Bench: BenchConfig{
			Iterations: 10,
			Warmup:     1,
			Approaches: []string{"raw", "lines", "stdcsv", "csvutil", "fields"},
			Timeout:    10 * time.Minute,
		},
		Database: DatabaseConfig{
			Path:    filepath.Join(stateDir, "history.db"),
			Timeout: 1 * time.Second,
		},
		Report: ReportConfig{
			Format: "table",
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(stateDir, "csvscan.log"),
		},
	}
}

// setDefaults registers every leaf key so partial files and CSVSCAN_* variables merge per key.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data.path", cfg.Data.Path)
	v.SetDefault("data.needle", cfg.Data.Needle)
	v.SetDefault("data.column", cfg.Data.Column)
	v.SetDefault("data.fold_case", cfg.Data.FoldCase)
	v.SetDefault("scanner.chunk_size", cfg.Scanner.ChunkSize)
	v.SetDefault("bench.iterations", cfg.Bench.Iterations)
	v.SetDefault("bench.warmup", cfg.Bench.Warmup)
	v.SetDefault("bench.approaches", cfg.Bench.Approaches)
	v.SetDefault("bench.timeout", cfg.Bench.Timeout)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("report.format", cfg.Report.Format)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "csvscan")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CSVSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// Validate reports settings the scanner or harness cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Data.Needle == "":
		return errors.New("data.needle must not be empty")
	case c.Scanner.ChunkSize <= len(c.Data.Needle):
		return fmt.Errorf("scanner.chunk_size %d must exceed the needle length %d", c.Scanner.ChunkSize, len(c.Data.Needle))
	case c.Bench.Iterations <= 0:
		return fmt.Errorf("bench.iterations must be positive, got %d", c.Bench.Iterations)
	case c.Bench.Warmup < 0:
		return fmt.Errorf("bench.warmup must not be negative, got %d", c.Bench.Warmup)
	case len(c.Bench.Approaches) == 0:
		return errors.New("bench.approaches must name at least one approach")
	}
	for _, f := range ReportFormats {
		if c.Report.Format == f {
			return nil
		}
	}
	return fmt.Errorf("report.format %q is not one of %v", c.Report.Format, ReportFormats)
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

// ExpandPath is expandPath for command-line overrides applied after Load.
func ExpandPath(path string) string {
	return expandPath(path)
}

func expandPaths(cfg *Config) {
	cfg.Data.Path = expandPath(cfg.Data.Path)
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings for TOML readability
	benchCfg := map[string]interface{}{
		"iterations": config.Bench.Iterations,
		"warmup":     config.Bench.Warmup,
		"approaches": config.Bench.Approaches,
		"timeout":    config.Bench.Timeout.String(),
	}

	dbCfg := map[string]interface{}{
		"path":    config.Database.Path,
		"timeout": config.Database.Timeout.String(),
	}

	v.Set("data", map[string]interface{}{
		"path":      config.Data.Path,
		"needle":    config.Data.Needle,
		"column":    config.Data.Column,
		"fold_case": config.Data.FoldCase,
	})
	v.Set("scanner", map[string]interface{}{"chunk_size": config.Scanner.ChunkSize})
	v.Set("bench", benchCfg)
	v.Set("database", dbCfg)
	v.Set("report", map[string]interface{}{"format": config.Report.Format})
	v.Set("log", map[string]interface{}{"level": config.Log.Level, "file": config.Log.File})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
