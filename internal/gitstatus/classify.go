package gitstatus

import (
	"bytes"
	"os"
	"path/filepath"
)

// Classification describes what kind of thing a workspace path is.
type Classification int

const (
	// RepoValid indicates the path looks like a git repository.
	RepoValid Classification = iota
	// RepoNotFound indicates the path does not exist on disk.
	RepoNotFound
	// RepoNotGit indicates the path exists but is not a git repository.
	RepoNotGit
)

// String returns a human-readable classification name.
func (c Classification) String() string {
	switch c {
	case RepoValid:
		return "valid"
	case RepoNotFound:
		return "not-found"
	case RepoNotGit:
		return "not-a-repository"
	default:
		return "unknown"
	}
}

// Classify inspects a path and decides whether it can be a git repository.
//
// A .git directory marks a normal repository; a .git file whose content
// starts with "gitdir:" marks a linked worktree. Anything else is not a
// repository. Git may still reject a path Classify accepts (for example a
// corrupted .git directory); that surfaces later through the command output.
func Classify(path string) Classification {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return RepoNotFound
	}

	gitPath := filepath.Join(path, ".git")
	gitInfo, err := os.Stat(gitPath)
	if err != nil {
		return RepoNotGit
	}

	if gitInfo.IsDir() {
		return RepoValid
	}

	// Worktree layout: .git is a file pointing at the real gitdir.
	content, err := os.ReadFile(gitPath)
	if err != nil || !bytes.HasPrefix(content, []byte("gitdir:")) {
		return RepoNotGit
	}
	return RepoValid
}
