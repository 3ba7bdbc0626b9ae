package bench

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// Stats summarises the timed iterations of one approach.
type Stats struct {
	N      int
	Mean   time.Duration
	StdDev time.Duration
	Min    time.Duration
	Max    time.Duration
	Median time.Duration
}

// Compute derives Stats from samples. StdDev is the sample standard
// deviation and is zero for a single sample.
func Compute(samples []time.Duration) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	data := make(stats.Float64Data, len(samples))
	for i, d := range samples {
		data[i] = float64(d)
	}

	// Errors only signal empty input, which is ruled out above.
	mean, _ := data.Mean()
	median, _ := data.Median()
	lo, _ := data.Min()
	hi, _ := data.Max()
	var stddev float64
	if len(data) > 1 {
		stddev, _ = data.StandardDeviationSample()
	}

	return Stats{
		N:      len(data),
		Mean:   round(mean),
		StdDev: round(stddev),
		Min:    round(lo),
		Max:    round(hi),
		Median: round(median),
	}
}

func round(ns float64) time.Duration {
	return time.Duration(math.Round(ns))
}

// Throughput returns GB/s for size bytes processed in mean time, which is
// bytes per nanosecond. It is zero when mean is not positive.
func Throughput(size int64, mean time.Duration) float64 {
	if mean <= 0 {
		return 0
	}
	return float64(size) / float64(mean.Nanoseconds())
}

// FormatSpeed renders the GB/s column, or "N/A" without measurements.
func FormatSpeed(size int64, s Stats) string {
	if s.N == 0 || s.Mean <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%6.3f", Throughput(size, s.Mean))
}
