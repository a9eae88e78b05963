package workspace

import (
	"time"

	"github.com/kartalbas/gitscope/internal/gitstatus"
)

// Snapshot is a complete status reading for one repository at one point in
// time. Snapshots are values: a cell replaces its snapshot wholesale, never
// mutates one that a reader may hold.
type Snapshot struct {
	// Path is the repository root this snapshot describes.
	Path string

	// Exists indicates the path exists on disk.
	Exists bool

	// ValidGit indicates the path carries a .git entry git accepts.
	ValidGit bool

	// Broken indicates a repository-identity failure: the path is gone or
	// git rejects it as a repository. Persistent until the cause clears.
	Broken bool

	// Branch is the current branch, gitstatus.DetachedHead when detached,
	// or "" when not yet known.
	Branch string

	// Detached indicates a detached HEAD.
	Detached bool

	// Ahead is the number of commits ahead of upstream.
	Ahead int

	// Behind is the number of commits behind upstream.
	Behind int

	// Dirty indicates uncommitted changes.
	Dirty bool

	// HasRemote indicates at least one remote is configured.
	HasRemote bool

	// Loading indicates a refresh is in flight. While true, the remaining
	// fields reflect the previous completed snapshot.
	Loading bool

	// LastUpdated is when this snapshot was produced.
	LastUpdated time.Time

	// LastErr is the most recent refresh error, "" when the last refresh
	// succeeded.
	LastErr string
}

// IsDetached reports whether the snapshot describes a detached HEAD.
func (s Snapshot) IsDetached() bool {
	return s.Detached || s.Branch == gitstatus.DetachedHead
}
