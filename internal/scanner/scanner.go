// Package scanner finds the lines of a stream that contain a fixed byte
// string. It reads the input through one fixed-size buffer and never holds
// more than the current window, the line being carried over from the
// previous read and the matched lines.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// DefaultChunkSize is the size of the read buffer when no option overrides it.
const DefaultChunkSize = 4 * 1024

// maxEmptyReads bounds the number of consecutive (0, nil) reads tolerated
// before giving up with io.ErrNoProgress.
const maxEmptyReads = 100

// Scanner holds an immutable scan configuration. It is safe for concurrent
// use; every call allocates its own buffer.
type Scanner struct {
	needle    []byte
	firstSet  string
	chunkSize int
	foldCase  bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithChunkSize sets the read buffer capacity in bytes.
func WithChunkSize(n int) Option {
	return func(s *Scanner) { s.chunkSize = n }
}

// WithFoldCase enables ASCII case-insensitive matching for every needle byte.
func WithFoldCase(fold bool) Option {
	return func(s *Scanner) { s.foldCase = fold }
}

// New validates the needle against the options and returns a Scanner.
// The needle must be non-empty, free of newlines and shorter than the chunk size.
func New(needle []byte, opts ...Option) (*Scanner, error) {
	s := &Scanner{
		needle:    append([]byte(nil), needle...),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case len(s.needle) == 0:
		return nil, fmt.Errorf("%w: empty needle", ErrConfig)
	case bytes.IndexByte(s.needle, '\n') >= 0:
		return nil, fmt.Errorf("%w: needle contains a newline", ErrConfig)
	case s.chunkSize <= 0:
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrConfig, s.chunkSize)
	case len(s.needle) >= s.chunkSize:
		return nil, fmt.Errorf("%w: needle length %d must be less than chunk size %d",
			ErrConfig, len(s.needle), s.chunkSize)
	}

	first := s.needle[0]
	if s.foldCase {
		for i, c := range s.needle {
			s.needle[i] = lower(c)
		}
		first = s.needle[0]
		if up := upper(first); up != first {
			s.firstSet = string([]byte{first, up})
		}
	}
	if s.firstSet == "" {
		s.firstSet = string([]byte{first})
	}
	return s, nil
}

// Needle returns a copy of the needle as it is matched (lowered when folding).
func (s *Scanner) Needle() []byte {
	return append([]byte(nil), s.needle...)
}

// ChunkSize returns the read buffer capacity.
func (s *Scanner) ChunkSize() int { return s.chunkSize }

// Scan is shorthand for New(needle) followed by Scan with a background context.
func Scan(r io.Reader, needle []byte) ([]string, error) {
	s, err := New(needle)
	if err != nil {
		return nil, err
	}
	return s.Scan(r)
}

// Scan returns every line of r containing the needle, in input order.
func (s *Scanner) Scan(r io.Reader) ([]string, error) {
	return s.ScanContext(context.Background(), r)
}

// ScanContext is Scan with cancellation checked between chunk reads.
// On error no partial result is returned.
func (s *Scanner) ScanContext(ctx context.Context, r io.Reader) ([]string, error) {
	lines := []string{}
	err := s.Each(ctx, r, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Each calls fn for every matching line, in input order. Each line is
// reported once, however many times the needle occurs in it. If fn returns
// ErrStop the scan ends and Each returns nil; any other error is returned as is.
func (s *Scanner) Each(ctx context.Context, r io.Reader, fn func(line string) error) error {
	w := &window{buf: make([]byte, s.chunkSize)}
	for !w.eof {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.fill(r); err != nil {
			return err
		}

		data := w.buf[:w.valid]
		end := len(data)
		if !w.eof {
			// Only complete lines are scanned; the rest is carried.
			end = bytes.LastIndexByte(data, '\n') + 1
		}
		if err := s.scanLines(w, data[:end], fn); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
		w.advance(end)
	}
	return nil
}

// scanLines reports the matching lines of data, which holds only whole lines
// (the last one may be unterminated at EOF). If an overlong line was spilled
// earlier, data starts with its remainder.
func (s *Scanner) scanLines(w *window, data []byte, fn func(string) error) error {
	pos := 0
	if len(w.spill) > 0 && (len(data) > 0 || w.eof) {
		nl := bytes.IndexByte(data, '\n')
		if nl < 0 {
			nl = len(data)
		}
		line := append(w.spill, data[:nl]...)
		if s.index(line, 0) >= 0 {
			if err := emit(line, w.spillAt, fn); err != nil {
				return err
			}
		}
		w.spill = line[:0]
		pos = nl + 1
	}

	n := len(s.needle)
	for pos <= len(data)-n {
		i := s.index(data, pos)
		if i < 0 {
			break
		}
		start := pos + bytes.LastIndexByte(data[pos:i], '\n') + 1
		stop := bytes.IndexByte(data[i+n:], '\n')
		if stop < 0 {
			stop = len(data)
		} else {
			stop += i + n
		}
		if err := emit(data[start:stop], w.base+int64(start), fn); err != nil {
			return err
		}
		pos = stop + 1
	}
	return nil
}

// index returns the position of the first needle occurrence in data at or
// after from, or -1.
func (s *Scanner) index(data []byte, from int) int {
	n := len(s.needle)
	last := len(data) - n
	for i := from; i <= last; {
		var j int
		if len(s.firstSet) == 1 {
			j = bytes.IndexByte(data[i:last+1], s.firstSet[0])
		} else {
			j = bytes.IndexAny(data[i:last+1], s.firstSet)
		}
		if j < 0 {
			return -1
		}
		i += j
		if s.tailEqual(data[i+1 : i+n]) {
			return i
		}
		i++
	}
	return -1
}

func (s *Scanner) tailEqual(b []byte) bool {
	tail := s.needle[1:]
	if !s.foldCase {
		return bytes.Equal(b, tail)
	}
	for i, c := range b {
		if lower(c) != tail[i] {
			return false
		}
	}
	return true
}

func emit(line []byte, offset int64, fn func(string) error) error {
	if !utf8.Valid(line) {
		return &LineError{Offset: offset, Err: ErrMalformed}
	}
	return fn(string(line))
}

// window is the state carried between read-and-scan steps.
type window struct {
	buf   []byte
	valid int   // bytes of buf holding data
	carry int   // bytes at the front of buf left from the previous step
	base  int64 // stream offset of buf[0]
	eof   bool

	// spill holds the head of a line too long to carry in buf.
	spill   []byte
	spillAt int64
}

// fill reads after the carried bytes until at least one byte arrives or the
// stream ends.
func (w *window) fill(r io.Reader) error {
	for empty := 0; ; empty++ {
		n, err := r.Read(w.buf[w.carry:])
		w.valid = w.carry + n
		switch {
		case errors.Is(err, io.EOF):
			w.eof = true
			return nil
		case err != nil:
			return fmt.Errorf("%w: %w", ErrIO, err)
		case n > 0:
			return nil
		case empty >= maxEmptyReads:
			return fmt.Errorf("%w: %w", ErrIO, io.ErrNoProgress)
		}
	}
}

// advance keeps buf[end:valid], the unterminated tail, for the next step.
// Tails longer than half the buffer move to the spill so reads stay large.
func (w *window) advance(end int) {
	if w.eof {
		return
	}
	tail := w.buf[end:w.valid]
	if len(tail) > len(w.buf)/2 {
		if len(w.spill) == 0 {
			w.spillAt = w.base + int64(end)
		}
		w.spill = append(w.spill, tail...)
		w.base += int64(w.valid)
		w.carry = 0
		return
	}
	w.carry = copy(w.buf, tail)
	w.base += int64(end)
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
