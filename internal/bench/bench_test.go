package bench

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pders01/csvscan/internal/approach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const data = "id,inst_name\n1,Stanford University\n2,Harvard University\n3,Harvard Medical School"

func writeData(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func query() approach.Query {
	return approach.Query{Needle: "Harvard", Column: "inst_name", ChunkSize: 4096}
}

func TestCompute(t *testing.T) {
	s := Compute([]time.Duration{4, 2, 8, 6})
	assert.Equal(t, 4, s.N)
	assert.Equal(t, time.Duration(5), s.Mean)
	assert.Equal(t, time.Duration(2), s.Min)
	assert.Equal(t, time.Duration(8), s.Max)
	assert.Equal(t, time.Duration(5), s.Median)
	// sqrt(20/3) = 2.58
	assert.Equal(t, time.Duration(3), s.StdDev)

	odd := Compute([]time.Duration{30, 10, 20})
	assert.Equal(t, time.Duration(20), odd.Median)

	single := Compute([]time.Duration{7})
	assert.Equal(t, time.Duration(0), single.StdDev)

	assert.Equal(t, Stats{}, Compute(nil))
}

func TestComputeMillisecondSamples(t *testing.T) {
	s := Compute([]time.Duration{3 * time.Millisecond, time.Millisecond})
	assert.Equal(t, 2*time.Millisecond, s.Mean)
	assert.Equal(t, 2*time.Millisecond, s.Median)
	// sqrt(2) ms
	assert.Equal(t, time.Duration(1414214), s.StdDev)
	assert.Equal(t, "N/A", FormatSpeed(1<<20, Compute(nil)))
}

func TestComputeDoesNotReorderInput(t *testing.T) {
	in := []time.Duration{3, 1, 2}
	Compute(in)
	assert.Equal(t, []time.Duration{3, 1, 2}, in)
}

func TestThroughput(t *testing.T) {
	// 2 GB in one second.
	assert.InDelta(t, 2.0, Throughput(2_000_000_000, time.Second), 1e-9)
	assert.Zero(t, Throughput(100, 0))

	assert.Equal(t, " 2.000", FormatSpeed(2_000_000_000, Stats{N: 1, Mean: time.Second}))
	assert.Equal(t, "N/A", FormatSpeed(100, Stats{}))
}

func TestRunnerRun(t *testing.T) {
	path := writeData(t)
	raw, err := approach.Lookup("raw")
	require.NoError(t, err)

	r := &Runner{Iterations: 3, Warmup: 1}
	res, err := r.Run(context.Background(), raw, path, query())
	require.NoError(t, err)

	assert.Equal(t, "raw", res.Approach)
	assert.Equal(t, path, res.File)
	assert.EqualValues(t, len(data), res.FileSize)
	assert.Equal(t, 2, res.Matches)
	assert.Equal(t, 3, res.Stats.N)
	assert.Greater(t, res.GBps, 0.0)
	assert.NotEqual(t, "N/A", res.Speed())
	assert.False(t, res.Started.IsZero())
}

func TestRunnerRunAll(t *testing.T) {
	path := writeData(t)
	all, err := approach.Resolve(approach.Names())
	require.NoError(t, err)

	r := &Runner{Iterations: 1}
	results, err := r.RunAll(context.Background(), all, path, query())
	require.NoError(t, err)
	require.Len(t, results, len(all))

	byName := map[string]int{}
	for _, res := range results {
		byName[res.Approach] = res.Matches
	}
	assert.Equal(t, 2, byName["raw"])
	assert.Equal(t, 4, byName["lines"])
	assert.Equal(t, 2, byName["stdcsv"])
	assert.Equal(t, 2, byName["csvutil"])
	assert.Equal(t, 2, byName["fields"])
}

func TestRunnerUnstableResult(t *testing.T) {
	path := writeData(t)
	calls := 0
	flaky := approach.Approach{
		Name: "flaky",
		Run: func(context.Context, io.Reader, approach.Query) (approach.Result, error) {
			calls++
			return approach.Result{Count: calls}, nil
		},
	}

	r := &Runner{Iterations: 2}
	_, err := r.Run(context.Background(), flaky, path, query())
	assert.ErrorIs(t, err, ErrUnstableResult)
}

func TestRunnerErrors(t *testing.T) {
	path := writeData(t)
	raw, err := approach.Lookup("raw")
	require.NoError(t, err)

	_, err = (&Runner{}).Run(context.Background(), raw, path, query())
	assert.Error(t, err, "zero iterations")

	_, err = (&Runner{Iterations: 1}).Run(context.Background(), raw, filepath.Join(t.TempDir(), "missing.csv"), query())
	assert.ErrorIs(t, err, os.ErrNotExist)

	boom := errors.New("no handles left")
	r := &Runner{Iterations: 1, Open: func(string) (io.ReadCloser, error) { return nil, boom }}
	_, err = r.Run(context.Background(), raw, path, query())
	assert.ErrorIs(t, err, boom)

	failing := approach.Approach{
		Name: "failing",
		Run: func(context.Context, io.Reader, approach.Query) (approach.Result, error) {
			return approach.Result{}, boom
		},
	}
	results, err := (&Runner{Iterations: 1}).RunAll(context.Background(), []approach.Approach{raw, failing}, path, query())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, results, 1)
}

func TestRunnerTimeout(t *testing.T) {
	path := writeData(t)
	slow := approach.Approach{
		Name: "slow",
		Run: func(ctx context.Context, _ io.Reader, _ approach.Query) (approach.Result, error) {
			<-ctx.Done()
			return approach.Result{}, ctx.Err()
		},
	}

	r := &Runner{Iterations: 1, Timeout: 10 * time.Millisecond}
	_, err := r.Run(context.Background(), slow, path, query())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
