package mdparse

import (
	"errors"
	"fmt"
)

var (
	// ErrMismatchedTags reports a close event that does not match the
	// innermost open construct, or constructs left open at end of input.
	ErrMismatchedTags = errors.New("mismatched open and close tags")

	// ErrIncompleteAnnotation reports a construct that closed without the
	// fields its kind requires.
	ErrIncompleteAnnotation = errors.New("incomplete annotation")
)

// StructuralError is returned by Annotate when the event stream cannot be
// turned into a well-nested annotation set. It unwraps to one of the
// sentinel errors above.
type StructuralError struct {
	Err    error
	Event  int // index into the event stream, -1 once the stream ended
	Tag    Tag
	Offset int // source byte offset of the offending event
	Detail string
}

func (e *StructuralError) Error() string {
	msg := e.Err.Error()
	if e.Event >= 0 {
		msg = fmt.Sprintf("%s: event %d (%s) at offset %d", msg, e.Event, e.Tag, e.Offset)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StructuralError) Unwrap() error { return e.Err }
