package config

import (
	"path/filepath"
	"time"
)

// TestConfig returns a config suitable for testing, rooted in dir.
func TestConfig(dir string) *Config {
	cfg := defaultConfig()
	cfg.Data.Path = filepath.Join(dir, "data.csv")
	cfg.Bench.Iterations = 2
	cfg.Bench.Warmup = 0
	cfg.Bench.Timeout = 30 * time.Second
	cfg.Database.Path = filepath.Join(dir, "history.db")
	cfg.Log.File = filepath.Join(dir, "csvscan.log")
	return cfg
}
