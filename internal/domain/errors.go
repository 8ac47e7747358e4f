package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an absent id, collection entry or file.
	ErrNotFound = errors.New("not found")
	// ErrMissingID is returned by Normalize when neither a key nor an id field exists.
	ErrMissingID = errors.New("record has no id")
	// ErrInvalidInput marks a request the caller has to fix.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream marks a failed call to a required single source such as the LLM.
	ErrUpstream = errors.New("upstream failure")
)

// DetailError pairs a sentinel with the message shown to API callers.
type DetailError struct {
	Err    error
	Detail string
}

func (e *DetailError) Error() string { return e.Detail }

func (e *DetailError) Unwrap() error { return e.Err }

// Detailf wraps sentinel with a caller-facing message.
func Detailf(sentinel error, format string, args ...any) error {
	return &DetailError{Err: sentinel, Detail: fmt.Sprintf(format, args...)}
}
