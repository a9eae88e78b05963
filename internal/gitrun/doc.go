// Package gitrun executes the external git binary and reports structured
// results.
//
// A non-zero exit code is a normal git outcome (for example "no upstream
// configured") and is returned in the Result, not as an error. Errors are
// reserved for failures of the invocation itself: a missing executable, an
// exceeded timeout, or a killed process.
package gitrun
