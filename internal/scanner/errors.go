package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrConfig is returned by New when the needle or chunk size cannot work together.
	ErrConfig = errors.New("scanner: invalid configuration")
	// ErrIO wraps failures of the underlying reader.
	ErrIO = errors.New("scanner: read failed")
	// ErrMalformed is returned when a matching line is not valid UTF-8.
	ErrMalformed = errors.New("scanner: malformed input")
	// ErrStop can be returned from an Each callback to end the scan early without error.
	ErrStop = errors.New("scanner: stop")
)

// LineError reports the byte offset of the line that could not be decoded.
type LineError struct {
	Offset int64
	Err    error
}

func (e *LineError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("scanner: line at byte %d: %v", e.Offset, e.Err)
}

func (e *LineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Code is a coarse error category used for exit status and log fields.
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeConfig    Code = "config"
	CodeIO        Code = "io"
	CodeMalformed Code = "malformed"
	CodeCancel    Code = "cancel"
)

// Classify maps err onto a Code using only sentinel errors.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancel
	case errors.Is(err, ErrConfig):
		return CodeConfig
	case errors.Is(err, ErrMalformed):
		return CodeMalformed
	case errors.Is(err, ErrIO):
		return CodeIO
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}
