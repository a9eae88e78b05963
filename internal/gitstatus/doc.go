// Package gitstatus turns raw git output into typed status facts.
//
// The package is pure: it never runs git and never touches global state.
// Classification of a path as a repository is the one exception that reads
// the filesystem, mirroring how git itself decides (a .git directory, or a
// .git file pointing at a worktree gitdir).
package gitstatus
