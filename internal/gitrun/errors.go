package gitrun

import "errors"

// Error types for git invocations.
var (
	// ErrGitNotFound indicates the git executable could not be launched.
	ErrGitNotFound = errors.New("git executable not found")

	// ErrTimeout indicates the command exceeded its timeout.
	ErrTimeout = errors.New("git command timed out")

	// ErrKilled indicates the process was killed by a signal.
	ErrKilled = errors.New("git command killed")
)
