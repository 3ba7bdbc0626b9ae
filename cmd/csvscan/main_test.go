package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pders01/csvscan/internal/approach"
	"github.com/pders01/csvscan/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sandbox points HOME and the working directory at a fresh temp dir so
// no user config or history leaks into a test.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sample.csv")
	data := "id,inst_name\n1,Stanford University\n2,Harvard University\n3,Harvard Medical School"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	sandbox(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "csvscan dev")
	assert.Contains(t, out, "CSV scan benchmark harness")
	assert.Contains(t, out, "github.com/pders01/csvscan")
}

func TestGenerateConfigCommand(t *testing.T) {
	dir := sandbox(t)

	out, err := run(t, "generate-config")
	require.NoError(t, err)
	configFile := filepath.Join(dir, ".config", "csvscan", "config.toml")
	assert.Contains(t, out, configFile)

	content, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "chunk_size")
	assert.Contains(t, string(content), "Harvard")

	_, err = run(t, "generate-config")
	assert.ErrorContains(t, err, "already exists")
}

func TestScanCommand(t *testing.T) {
	dir := sandbox(t)
	data := writeSample(t, dir)

	out, err := run(t, "scan", "--file", data)
	require.NoError(t, err)
	assert.Equal(t, "2,Harvard University\n3,Harvard Medical School\n", out)

	out, err = run(t, "scan", "--file", data, "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, "2,Harvard University\n", out)

	out, err = run(t, "scan", "--file", data, "--count", "--chunk-size", "8")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = run(t, "scan", "--file", data, "--approach", "stdcsv", "--needle", "stanford")
	require.NoError(t, err)
	assert.Equal(t, "1,Stanford University\n", out)
}

func TestScanCommandErrors(t *testing.T) {
	dir := sandbox(t)
	data := writeSample(t, dir)

	_, err := run(t, "scan", "--file", data, "--approach", "nope")
	assert.ErrorIs(t, err, approach.ErrUnknownApproach)
	assert.Equal(t, 2, exitCode(err))

	_, err = run(t, "scan", "--file", data, "--chunk-size", "4")
	assert.ErrorIs(t, err, scanner.ErrConfig)
	assert.Equal(t, 2, exitCode(err))

	_, err = run(t, "scan", "--file", filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestGenerateDataThenBench(t *testing.T) {
	dir := sandbox(t)
	data := filepath.Join(dir, "gen", "authors.csv")
	db := filepath.Join(dir, "history.db")

	out, err := run(t, "generate-data", "--rows", "500", "--out", data)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 500 rows")

	out, err = run(t, "--db", db, "bench", "--file", data,
		"--iterations", "2", "--warmup", "0", "--approach", "raw,lines", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Results []struct {
			Approach string `json:"approach"`
			Matches  int    `json:"matches"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Results, 2)

	out, err = run(t, "--db", db, "history", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"raw"`)
	assert.Contains(t, out, `"lines"`)

	out, err = run(t, "--db", db, "history", "prune", "--all")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 2 runs\n", out)

	out, err = run(t, "--db", db, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestBenchNoSave(t *testing.T) {
	dir := sandbox(t)
	data := writeSample(t, dir)
	db := filepath.Join(dir, "history.db")

	out, err := run(t, "--db", db, "--quiet", "bench", "--file", data,
		"--iterations", "1", "--approach", "raw", "--no-save")
	require.NoError(t, err)
	assert.Contains(t, out, "Speed (GB/s)")
	assert.True(t, strings.Contains(out, "raw"))

	_, err = os.Stat(db)
	assert.True(t, os.IsNotExist(err))
}

func TestPruneNeedsBound(t *testing.T) {
	sandbox(t)
	_, err := run(t, "history", "prune")
	assert.ErrorContains(t, err, "--before or --all")
}

func TestHistoryDefaultDatabaseLocation(t *testing.T) {
	dir := sandbox(t)

	out, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
	assert.FileExists(t, filepath.Join(dir, ".csvscan", "history.db"))
}

func TestHistoryConfigDatabaseOutsideStateDirs(t *testing.T) {
	dir := sandbox(t)
	t.Setenv("TMPDIR", filepath.Join(dir, "tmp"))

	outside := filepath.Join(dir, "elsewhere", "history.db")
	configFile := filepath.Join(dir, "csvscan.toml")
	content := fmt.Sprintf("[database]\npath = %q\n", outside)
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0o644))

	_, err := run(t, "--config", configFile, "history")
	assert.ErrorContains(t, err, "not within allowed directories")
	assert.NoFileExists(t, outside)

	// An explicit --db is trusted.
	out, err := run(t, "--config", configFile, "--db", outside, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
	assert.FileExists(t, outside)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestScanReportsWriteFailure(t *testing.T) {
	dir := sandbox(t)
	data := writeSample(t, dir)

	for _, args := range [][]string{
		{"scan", "--file", data},
		{"scan", "--file", data, "--count"},
		{"scan", "--file", data, "--approach", "stdcsv"},
	} {
		cmd := newRootCmd()
		cmd.SetOut(brokenWriter{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		assert.ErrorContains(t, cmd.Execute(), "stdout closed", "%v", args)
	}
}
