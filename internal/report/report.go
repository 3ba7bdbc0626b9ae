// Package report renders benchmark results and run history as a terminal
// table, JSON or TOML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/csvscan/internal/bench"
	"github.com/pders01/csvscan/internal/storage"
)

// Row is one rendered line of a report.
type Row struct {
	ID          string    `json:"id,omitempty" toml:"id,omitempty"`
	Approach    string    `json:"approach" toml:"approach"`
	File        string    `json:"file" toml:"file"`
	FileSize    int64     `json:"file_size" toml:"file_size"`
	Matches     int       `json:"matches" toml:"matches"`
	Iterations  int       `json:"iterations" toml:"iterations"`
	MeanMs      float64   `json:"mean_ms" toml:"mean_ms"`
	StdDevMs    float64   `json:"stddev_ms" toml:"stddev_ms"`
	MinMs       float64   `json:"min_ms" toml:"min_ms"`
	MaxMs       float64   `json:"max_ms" toml:"max_ms"`
	MedianMs    float64   `json:"median_ms" toml:"median_ms"`
	GBps        float64   `json:"gbps" toml:"gbps"`
	Ratio       float64   `json:"ratio" toml:"ratio"`
	BytesPerOp  uint64    `json:"bytes_per_op" toml:"bytes_per_op"`
	AllocsPerOp uint64    `json:"allocs_per_op" toml:"allocs_per_op"`
	Started     time.Time `json:"started" toml:"started"`
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FromResults converts benchmark results. Ratio is the mean time relative
// to the fastest approach.
func FromResults(results []bench.Result) []Row {
	rows := make([]Row, len(results))
	for i, r := range results {
		rows[i] = Row{
			Approach:    r.Approach,
			File:        r.File,
			FileSize:    r.FileSize,
			Matches:     r.Matches,
			Iterations:  r.Stats.N,
			MeanMs:      ms(r.Stats.Mean),
			StdDevMs:    ms(r.Stats.StdDev),
			MinMs:       ms(r.Stats.Min),
			MaxMs:       ms(r.Stats.Max),
			MedianMs:    ms(r.Stats.Median),
			GBps:        r.GBps,
			BytesPerOp:  r.BytesPerOp,
			AllocsPerOp: r.AllocsPerOp,
			Started:     r.Started,
		}
	}
	setRatios(rows)
	return rows
}

// FromRuns converts stored runs, newest first as given.
func FromRuns(runs []*storage.Run) []Row {
	rows := make([]Row, len(runs))
	for i, r := range runs {
		rows[i] = Row{
			ID:          r.ID,
			Approach:    r.Approach,
			File:        r.File,
			FileSize:    r.FileSize,
			Matches:     r.Matches,
			Iterations:  r.Iterations,
			MeanMs:      ms(r.Mean),
			StdDevMs:    ms(r.StdDev),
			MinMs:       ms(r.Min),
			MaxMs:       ms(r.Max),
			MedianMs:    ms(r.Median),
			GBps:        r.GBps,
			BytesPerOp:  r.BytesPerOp,
			AllocsPerOp: r.AllocsPerOp,
			Started:     r.CreatedAt,
		}
	}
	return rows
}

func setRatios(rows []Row) {
	fastest := 0.0
	for _, r := range rows {
		if r.MeanMs > 0 && (fastest == 0 || r.MeanMs < fastest) {
			fastest = r.MeanMs
		}
	}
	if fastest == 0 {
		return
	}
	for i := range rows {
		if rows[i].MeanMs > 0 {
			rows[i].Ratio = rows[i].MeanMs / fastest
		}
	}
}

// Render writes rows to w in format ("table", "json" or "toml").
func Render(w io.Writer, format string, rows []Row) error {
	switch format {
	case "", "table":
		return renderTable(w, rows)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Results []Row `json:"results"`
		}{Results: rows})
	case "toml":
		data, err := toml.Marshal(struct {
			Results []Row `toml:"results"`
		}{Results: rows})
		if err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1D3"))
)

// Column headers; the speed column keeps the name the harness has always used.
var headers = []string{"Approach", "Matches", "Mean (ms)", "StdDev (ms)", "Median (ms)", "Ratio", "Allocated", "Speed (GB/s)"}

func renderTable(w io.Writer, rows []Row) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return cellStyle
			default:
				return numberStyle
			}
		}).
		Headers(headers...)

	for _, r := range rows {
		name := r.Approach
		if r.ID != "" {
			name = r.ID + " " + name
		}
		t.Row(
			name,
			strconv.Itoa(r.Matches),
			fmt.Sprintf("%.3f", r.MeanMs),
			fmt.Sprintf("%.3f", r.StdDevMs),
			fmt.Sprintf("%.3f", r.MedianMs),
			ratio(r.Ratio),
			humanize.IBytes(r.BytesPerOp),
			speed(r),
		)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func speed(r Row) string {
	if r.Iterations == 0 || r.MeanMs <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%6.3f", r.GBps)
}

func ratio(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", v)
}
