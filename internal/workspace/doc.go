// Package workspace maintains git status for a set of repositories.
//
// Each repository is owned by a Cell holding an immutable status Snapshot
// and a refresh state machine that bounds concurrency to one git pipeline
// per repository: a refresh requested while one is running is folded into
// a single pending rerun, never lost and never duplicated. The Registry
// aggregates cells by repository path, fans out refreshes, and publishes
// snapshot updates to subscribers.
//
// Failures stay inside the repository they belong to. A transient command
// failure (timeout, lock contention) keeps the previous snapshot and stamps
// the error; only repository-identity failures (missing path, corrupted or
// absent .git) mark a snapshot broken.
package workspace
