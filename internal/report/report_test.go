package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/csvscan/internal/bench"
	"github.com/pders01/csvscan/internal/storage"
)

func sampleResults() []bench.Result {
	started := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	return []bench.Result{
		{
			Approach: "raw",
			File:     "/data/authors.csv",
			FileSize: 2_000_000,
			Matches:  2,
			Stats:    bench.Stats{N: 3, Mean: time.Millisecond, Min: time.Millisecond, Max: time.Millisecond, Median: time.Millisecond},
			GBps:     2.0,
			Started:  started,
		},
		{
			Approach:   "stdcsv",
			File:       "/data/authors.csv",
			FileSize:   2_000_000,
			Matches:    2,
			Stats:      bench.Stats{N: 3, Mean: 4 * time.Millisecond},
			GBps:       0.5,
			BytesPerOp: 3 << 20,
			Started:    started,
		},
		{Approach: "broken"},
	}
}

func TestFromResultsRatios(t *testing.T) {
	rows := FromResults(sampleResults())
	require.Len(t, rows, 3)

	assert.InDelta(t, 1.0, rows[0].MeanMs, 1e-9)
	assert.InDelta(t, 1.0, rows[0].Ratio, 1e-9)
	assert.InDelta(t, 4.0, rows[1].Ratio, 1e-9)
	assert.Zero(t, rows[2].Ratio)
}

func TestFromRuns(t *testing.T) {
	runs := []*storage.Run{{ID: "0001-raw", Approach: "raw", Iterations: 2, Mean: 2 * time.Millisecond, GBps: 1.5}}
	rows := FromRuns(runs)
	require.Len(t, rows, 1)
	assert.Equal(t, "0001-raw", rows[0].ID)
	assert.InDelta(t, 2.0, rows[0].MeanMs, 1e-9)
	assert.Equal(t, 2, rows[0].Iterations)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "table", FromResults(sampleResults())))

	out := buf.String()
	assert.Contains(t, out, "Speed (GB/s)")
	assert.Contains(t, out, "raw")
	assert.Contains(t, out, " 2.000")
	assert.Contains(t, out, "4.00x")
	assert.Contains(t, out, "3.0 MiB")
	assert.Contains(t, out, "N/A", "rows without measurements show N/A")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "json", FromResults(sampleResults())))

	var decoded struct {
		Results []Row `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, "stdcsv", decoded.Results[1].Approach)
	assert.InDelta(t, 0.5, decoded.Results[1].GBps, 1e-9)
}

func TestRenderTOML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "toml", FromResults(sampleResults())))
	assert.True(t, strings.Contains(buf.String(), "[[results]]"), buf.String())

	var decoded struct {
		Results []Row `toml:"results"`
	}
	require.NoError(t, toml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, "raw", decoded.Results[0].Approach)
}

func TestRenderUnknownFormat(t *testing.T) {
	assert.Error(t, Render(&bytes.Buffer{}, "xml", nil))
}

func TestRenderTableAllocatedColumn(t *testing.T) {
	rows := []Row{
		{Approach: "small", Iterations: 1, MeanMs: 1, BytesPerOp: 512},
		{Approach: "mid", Iterations: 1, MeanMs: 1, BytesPerOp: 3 << 19},
	}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "table", rows))
	assert.Contains(t, buf.String(), "512 B")
	assert.Contains(t, buf.String(), "1.5 MiB")
}
