package approach

import (
	"context"
	"io"

	"github.com/pders01/csvscan/internal/scanner"
)

func runRaw(ctx context.Context, r io.Reader, q Query) (Result, error) {
	opts := []scanner.Option{scanner.WithFoldCase(q.FoldCase)}
	if q.ChunkSize > 0 {
		opts = append(opts, scanner.WithChunkSize(q.ChunkSize))
	}
	s, err := scanner.New([]byte(q.Needle), opts...)
	if err != nil {
		return Result{}, err
	}
	lines, err := s.ScanContext(ctx, r)
	if err != nil {
		return Result{}, err
	}
	return Result{Count: len(lines), Lines: lines}, nil
}
