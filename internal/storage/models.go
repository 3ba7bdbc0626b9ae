package storage

import (
	"time"
)

// Run is one benchmarked approach as recorded in the history database.
type Run struct {
	ID          string        `json:"id"`
	Approach    string        `json:"approach"`
	File        string        `json:"file"`
	FileSize    int64         `json:"file_size"`
	Needle      string        `json:"needle"`
	Column      string        `json:"column"`
	ChunkSize   int           `json:"chunk_size"`
	FoldCase    bool          `json:"fold_case"`
	Iterations  int           `json:"iterations"`
	Matches     int           `json:"matches"`
	Mean        time.Duration `json:"mean"`
	StdDev      time.Duration `json:"stddev"`
	Min         time.Duration `json:"min"`
	Max         time.Duration `json:"max"`
	Median      time.Duration `json:"median"`
	GBps        float64       `json:"gbps"`
	BytesPerOp  uint64        `json:"bytes_per_op"`
	AllocsPerOp uint64        `json:"allocs_per_op"`
	CreatedAt   time.Time     `json:"created_at"`
}
