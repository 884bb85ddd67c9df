package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidWaveType is returned for wave type strings that are not exactly
// two whitespace-separated phase labels.
var ErrInvalidWaveType = errors.New("wave type must be two whitespace-separated phase labels")

// ErrInvalidGrid is returned by Grid.Validate for non-positive axis sizes.
var ErrInvalidGrid = errors.New("invalid grid")

// FormatError reports a malformed row in a station list.
type FormatError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("station list line %d", e.Line)
	if e.Field != "" {
		msg += fmt.Sprintf(": field %s=%q", e.Field, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

// MissingOriginError reports an event without a resolvable preferred origin.
type MissingOriginError struct {
	EventID string
}

func (e *MissingOriginError) Error() string {
	return fmt.Sprintf("event %q has no preferred origin", e.EventID)
}

// OutOfRangeError reports a coordinate whose bin falls outside its axis.
type OutOfRangeError struct {
	Axis  string
	Value float64
	Bin   int64
	Bins  int64 // 0 when the axis is unbounded
}

func (e *OutOfRangeError) Error() string {
	if e.Bins == 0 {
		return fmt.Sprintf("%s %g out of grid range (bin %d)", e.Axis, e.Value, e.Bin)
	}
	return fmt.Sprintf("%s %g out of grid range (bin %d, valid 0..%d)", e.Axis, e.Value, e.Bin, e.Bins-1)
}
