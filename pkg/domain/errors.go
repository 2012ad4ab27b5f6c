package domain

import (
	"errors"
	"fmt"
)

// Format error kinds. A FormatError wraps exactly one of these.
var (
	// ErrMissingExtentsMarker is returned when no extents line is found.
	ErrMissingExtentsMarker = errors.New("missing extents marker")
	// ErrMalformedExtents is returned when the extents line is not three integers.
	ErrMalformedExtents = errors.New("malformed extents")
	// ErrMalformedGridRow is returned when a grid row has the wrong shape or content.
	ErrMalformedGridRow = errors.New("malformed grid row")
	// ErrTruncatedGrid is returned when the input ends inside the grid body.
	ErrTruncatedGrid = errors.New("truncated grid")
	// ErrMissingObjectsMarker is returned when no <Objects> line follows the grid.
	ErrMissingObjectsMarker = errors.New("missing objects marker")
	// ErrMalformedGroupLine is returned for a group line that is neither a name nor a terminator.
	ErrMalformedGroupLine = errors.New("malformed group line")
)

// ErrIndexOutOfRange is returned when a grid cell addresses a group the catalog does not have.
var ErrIndexOutOfRange = errors.New("catalog index out of range")

// ErrNoObjectsFound is returned when none of the catalog objects could be resolved.
var ErrNoObjectsFound = errors.New("no catalog objects found in scene")

// FormatError describes where and why a synth document failed to parse.
type FormatError struct {
	Kind     error  // One of the Err* format kinds
	Line     int    // 1-based line number, 0 at end of input
	Expected string // What the reader was looking for
	Found    string // The offending line, empty at end of input
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: expected %s, reached end of input", e.Kind, e.Expected)
	}
	return fmt.Sprintf("%s at line %d: expected %s, found %q", e.Kind, e.Line, e.Expected, e.Found)
}

func (e *FormatError) Unwrap() error {
	return e.Kind
}

// IsFormatError reports whether err came from parsing malformed input.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
