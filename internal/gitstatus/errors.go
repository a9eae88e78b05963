package gitstatus

import "errors"

// Error types for status parsing.
var (
	// ErrParse indicates git output did not match the expected format.
	ErrParse = errors.New("unexpected git output format")
)
