// Package watcher observes repository working trees for filesystem changes.
//
// The watcher recursively observes a repository directory and emits change
// events (create, write, remove, rename). Churn from git's own bookkeeping
// (.git/index.lock, object and reflog writes) is suppressed so that a status
// refresh does not trigger another round of events; the meaningful .git state
// files (HEAD, index, refs) still pass through so branch switches and commits
// are noticed. Downstream debouncing absorbs whatever noise remains.
package watcher

import (
	"errors"
	"time"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event represents a file system change event.
type Event struct {
	// Path is the absolute path of the affected file or directory.
	Path string

	// Op is the operation that occurred.
	Op Op

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Stats provides watcher status information.
type Stats struct {
	// WatchedDirs is the number of directories being watched.
	WatchedDirs int

	// PendingEvents is the number of events waiting to be consumed.
	PendingEvents int

	// TotalEvents is the total number of events delivered.
	TotalEvents int64

	// DroppedEvents is the number of events dropped on channel overflow.
	DroppedEvents int64

	// Errors is the total number of errors encountered.
	Errors int64
}

// Watcher monitors repository trees for file system changes.
type Watcher interface {
	// WatchRepository starts watching a repository root recursively.
	// Returns ErrAlreadyWatching if the root is already being watched.
	WatchRepository(root string) error

	// UnwatchRepository stops watching a repository root and its subtree.
	// Returns ErrNotWatching if the root isn't being watched.
	UnwatchRepository(root string) error

	// Events returns the channel of change events.
	// The channel is closed when the watcher is closed.
	Events() <-chan Event

	// Errors returns the channel of watcher errors.
	// The channel is closed when the watcher is closed.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error

	// Stats returns watcher statistics.
	Stats() Stats

	// IsWatching returns true if the repository root is being watched.
	IsWatching(root string) bool
}

// Config holds watcher configuration options.
type Config struct {
	// BufferSize is the size of the event and error channels.
	// Default: 256.
	BufferSize int

	// MaxWatches caps the number of watched directories.
	// 0 means unlimited.
	MaxWatches int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}

// Option configures a watcher.
type Option func(*Config)

// WithBufferSize sets the channel buffer size.
func WithBufferSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.BufferSize = size
		}
	}
}

// WithMaxWatches caps the number of watched directories.
func WithMaxWatches(max int) Option {
	return func(c *Config) {
		c.MaxWatches = max
	}
}
