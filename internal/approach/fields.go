package approach

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// runFields splits each line on commas without honouring quotes.
func runFields(ctx context.Context, r io.Reader, q Query) (Result, error) {
	sc := newLineScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return Result{}, fmt.Errorf("reading header: %w", err)
		}
		return Result{}, ErrNoHeader
	}
	col, err := columnIndex(strings.Split(sc.Text(), ","), q.Column)
	if err != nil {
		return Result{}, err
	}

	res := Result{Lines: []string{}}
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		fields := strings.Split(line, ",")
		if col < len(fields) && containsFold(fields[col], q.Needle) {
			res.Lines = append(res.Lines, strings.TrimSpace(strings.Join(fields, ",")))
		}
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("reading lines: %w", err)
	}
	res.Count = len(res.Lines)
	return res, nil
}
