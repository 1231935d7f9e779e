package smf

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput is the kind of every structural decode failure:
	// bad magic, wrong fixed chunk size, truncated read, unrecognized status
	// or a chunk-length mismatch.
	ErrMalformedInput = errors.New("smf: malformed input")

	// ErrAllocation is returned when the configured Allocator refuses a request.
	ErrAllocation = errors.New("smf: allocation failure")

	// ErrInvalidEvent is returned by the encoder for events it cannot frame.
	ErrInvalidEvent = errors.New("smf: invalid event")
)

// Error carries the context of a failed decode or encode. Kind is one of the
// package sentinels and can be matched with errors.Is.
type Error struct {
	Op       string // "decode" or "encode"
	Kind     error
	Offset   int64 // byte offset into the stream where the problem was found
	Expected string
	Found    string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s at offset %d", e.Kind, e.Offset)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Expected != "" || e.Found != "" {
		msg += fmt.Sprintf(": expected %s, found %s", e.Expected, e.Found)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func malformed(offset int64, expected, found string) *Error {
	return &Error{Op: "decode", Kind: ErrMalformedInput, Offset: offset, Expected: expected, Found: found}
}

func truncated(offset int64, err error) *Error {
	return &Error{Op: "decode", Kind: ErrMalformedInput, Offset: offset, Expected: "more data", Found: "end of input", Err: err}
}
