// Package approach holds the competing ways of pulling matching rows out of
// a CSV stream. Each approach is a thin wrapper; the raw scanner in package
// scanner is the only one that does not use a CSV or line parser.
package approach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrUnknownApproach is returned by Lookup for unregistered names.
	ErrUnknownApproach = errors.New("approach: unknown approach")
	// ErrNoColumn is returned when the header lacks the queried column.
	ErrNoColumn = errors.New("approach: column not found in header")
	// ErrNoHeader is returned by column-aware approaches on input without a header row.
	ErrNoHeader = errors.New("approach: no header row")
)

// Query describes what to extract.
type Query struct {
	Needle    string
	Column    string
	ChunkSize int
	FoldCase  bool
}

// Result is what one run of an approach produced. Count is set for every
// approach; Lines is nil for approaches that only count.
type Result struct {
	Count int
	Lines []string
}

// Approach is a named extraction strategy.
type Approach struct {
	Name        string
	Description string
	// ColumnAware approaches match the needle against Query.Column only,
	// case-insensitively.
	ColumnAware bool
	Run         func(ctx context.Context, r io.Reader, q Query) (Result, error)
}

var registry = []Approach{
	{Name: "raw", Description: "chunked byte-buffer substring scan", Run: runRaw},
	{Name: "lines", Description: "line count with bufio.Scanner (baseline)", Run: runLines},
	{Name: "stdcsv", Description: "encoding/csv with header-resolved column", ColumnAware: true, Run: runStdCSV},
	{Name: "csvutil", Description: "jszwec/csvutil decoder", ColumnAware: true, Run: runCSVUtil},
	{Name: "fields", Description: "bufio.Scanner with strings.Split", ColumnAware: true, Run: runFields},
}

// All returns the registered approaches in registration order.
func All() []Approach {
	return append([]Approach(nil), registry...)
}

// Names returns the registered approach names in registration order.
func Names() []string {
	names := make([]string, len(registry))
	for i, a := range registry {
		names[i] = a.Name
	}
	return names
}

// Lookup returns the approach registered under name.
func Lookup(name string) (Approach, error) {
	for _, a := range registry {
		if a.Name == name {
			return a, nil
		}
	}
	return Approach{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownApproach, name, strings.Join(Names(), ", "))
}

// Resolve looks up every name, failing on the first unknown one.
func Resolve(names []string) ([]Approach, error) {
	out := make([]Approach, 0, len(names))
	for _, name := range names {
		a, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// columnIndex finds column in header. A UTF-8 byte order mark on the first
// header cell is ignored.
func columnIndex(header []string, column string) (int, error) {
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if strings.TrimSpace(h) == column {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrNoColumn, column)
}

// containsFold reports whether substr is within s under Unicode simple case folding.
func containsFold(s, substr string) bool {
	n := len(substr)
	if n == 0 {
		return true
	}
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return true
		}
	}
	return false
}

// checkEvery is how many records pass between context checks.
const checkEvery = 4096
