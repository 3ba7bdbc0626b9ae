package approach

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

func runStdCSV(ctx context.Context, r io.Reader, q Query) (Result, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, ErrNoHeader
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading header: %w", err)
	}
	col, err := columnIndex(header, q.Column)
	if err != nil {
		return Result{}, err
	}

	res := Result{Lines: []string{}}
	for n := 1; ; n++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("reading record: %w", err)
		}
		if col < len(record) && containsFold(record[col], q.Needle) {
			res.Lines = append(res.Lines, strings.Join(record, ","))
		}
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
	}
	res.Count = len(res.Lines)
	return res, nil
}
