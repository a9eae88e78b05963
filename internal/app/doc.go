// Package app wires the status engine together: the repository registry,
// the filesystem watcher, the per-repository debouncer, and the fallback
// poller. It owns event routing (which repository a changed path belongs
// to) and component lifecycle.
package app
