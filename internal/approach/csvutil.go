package approach

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
)

const instNameColumn = "inst_name"

// institutionRow is the typed view of a record. Columns it does not map are
// read back through Decoder.Record.
type institutionRow struct {
	InstName string `csv:"inst_name"`
}

func runCSVUtil(ctx context.Context, r io.Reader, q Query) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	dec, err := csvutil.NewDecoder(cr)
	if errors.Is(err, io.EOF) {
		return Result{}, ErrNoHeader
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading header: %w", err)
	}
	header := dec.Header()
	col, err := columnIndex(header, q.Column)
	if err != nil {
		return Result{}, err
	}
	// The decoder maps header cells verbatim, so a padded or BOM-prefixed
	// cell leaves the field empty.
	typed := header[col] == instNameColumn

	res := Result{Lines: []string{}}
	for n := 1; ; n++ {
		var row institutionRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Result{}, fmt.Errorf("decoding record: %w", err)
		}
		record := dec.Record()
		value := row.InstName
		if !typed {
			value = ""
			if col < len(record) {
				value = record[col]
			}
		}
		if containsFold(value, q.Needle) {
			res.Lines = append(res.Lines, strings.TrimSpace(strings.Join(record, ",")))
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
