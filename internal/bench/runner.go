// Package bench times scan approaches over a data file and reports
// throughput in GB/s.
package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/pders01/csvscan/internal/approach"
	"github.com/pders01/csvscan/internal/debuglog"
)

// ErrUnstableResult is returned when iterations of one approach disagree on
// the number of matches.
var ErrUnstableResult = errors.New("bench: match count changed between iterations")

// Result is the outcome of benchmarking one approach against one file.
type Result struct {
	Approach    string
	File        string
	FileSize    int64
	Matches     int
	Stats       Stats
	GBps        float64
	BytesPerOp  uint64
	AllocsPerOp uint64
	Started     time.Time
}

// Speed returns the formatted GB/s column.
func (r Result) Speed() string {
	return FormatSpeed(r.FileSize, r.Stats)
}

// Runner times approaches. Only the approach call is timed; opening and
// closing the file are not.
type Runner struct {
	Iterations int
	Warmup     int
	Timeout    time.Duration
	// Open defaults to os.Open.
	Open func(path string) (io.ReadCloser, error)
}

func (r *Runner) open(path string) (io.ReadCloser, error) {
	if r.Open != nil {
		return r.Open(path)
	}
	return os.Open(path)
}

// Run benchmarks a against the file at path.
func (r *Runner) Run(ctx context.Context, a approach.Approach, path string, q approach.Query) (Result, error) {
	if r.Iterations <= 0 {
		return Result{}, fmt.Errorf("bench: iterations must be positive, got %d", r.Iterations)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat data file: %w", err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	log := debuglog.WithFields(map[string]interface{}{"approach": a.Name, "file": path})
	res := Result{
		Approach: a.Name,
		File:     path,
		FileSize: info.Size(),
		Matches:  -1,
		Started:  time.Now(),
	}

	samples := make([]time.Duration, 0, r.Iterations)
	var bytesTotal, allocsTotal uint64
	for i := 0; i < r.Warmup+r.Iterations; i++ {
		elapsed, out, mem, err := r.once(ctx, a, path, q)
		if err != nil {
			log.Errorf("iteration %d failed: %v", i, err)
			return Result{}, fmt.Errorf("%s: %w", a.Name, err)
		}
		if res.Matches >= 0 && out.Count != res.Matches {
			return Result{}, fmt.Errorf("%s: %w (%d vs %d)", a.Name, ErrUnstableResult, res.Matches, out.Count)
		}
		res.Matches = out.Count

		if i < r.Warmup {
			log.Debugf("warmup %d took %s", i, elapsed)
			continue
		}
		log.Debugf("iteration %d took %s, %d matches", i-r.Warmup, elapsed, out.Count)
		samples = append(samples, elapsed)
		bytesTotal += mem.TotalAlloc
		allocsTotal += mem.Mallocs
	}

	res.Stats = Compute(samples)
	res.GBps = Throughput(res.FileSize, res.Stats.Mean)
	res.BytesPerOp = bytesTotal / uint64(len(samples))
	res.AllocsPerOp = allocsTotal / uint64(len(samples))
	log.Infof("mean %s, %s GB/s", res.Stats.Mean, res.Speed())
	return res, nil
}

// RunAll benchmarks each approach in turn, stopping at the first failure.
func (r *Runner) RunAll(ctx context.Context, as []approach.Approach, path string, q approach.Query) ([]Result, error) {
	results := make([]Result, 0, len(as))
	for _, a := range as {
		res, err := r.Run(ctx, a, path, q)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// memDelta is the allocation cost of one iteration.
type memDelta struct {
	TotalAlloc uint64
	Mallocs    uint64
}

func (r *Runner) once(ctx context.Context, a approach.Approach, path string, q approach.Query) (time.Duration, approach.Result, memDelta, error) {
	f, err := r.open(path)
	if err != nil {
		return 0, approach.Result{}, memDelta{}, err
	}
	defer f.Close()

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()
	out, err := a.Run(ctx, f, q)
	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)
	if err != nil {
		return 0, approach.Result{}, memDelta{}, err
	}

	return elapsed, out, memDelta{
		TotalAlloc: after.TotalAlloc - before.TotalAlloc,
		Mallocs:    after.Mallocs - before.Mallocs,
	}, nil
}
