package watcher

import (
	"path/filepath"
	"strings"
)

// Paths inside .git that signal a meaningful repository change: commits,
// branch switches, staging, fetches, merges. Everything else under .git
// (objects, logs, lock files) is bookkeeping churn.
var gitStateFiles = map[string]bool{
	"HEAD":        true,
	"index":       true,
	"MERGE_HEAD":  true,
	"FETCH_HEAD":  true,
	"ORIG_HEAD":   true,
	"REBASE_HEAD": true,
	"packed-refs": true,
}

// splitGitInternal splits a path at its ".git" component.
// It returns the portion after ".git/" and true when the path is inside a
// .git directory; otherwise it returns "" and false.
func splitGitInternal(path string) (string, bool) {
	sep := string(filepath.Separator)
	marker := sep + ".git" + sep
	if idx := strings.Index(path, marker); idx >= 0 {
		return path[idx+len(marker):], true
	}
	if strings.HasSuffix(path, sep+".git") {
		return "", true
	}
	return "", false
}

// suppressGitInternal reports whether an event for path should be dropped
// as git-internal churn. Events outside .git are never suppressed.
func suppressGitInternal(path string) bool {
	rel, inside := splitGitInternal(path)
	if !inside {
		return false
	}
	if rel == "" {
		// The .git directory itself.
		return false
	}

	rel = filepath.ToSlash(rel)
	if gitStateFiles[rel] {
		return false
	}
	if strings.HasPrefix(rel, "refs/") {
		return false
	}

	// index.lock, objects/, logs/, COMMIT_EDITMSG and friends.
	return true
}

// gitWatchDirs returns the directories inside a .git directory worth
// watching. Only the top level and the refs tree carry state changes;
// watching objects would exhaust inotify limits on large repositories.
func gitWatchDirs(gitDir string) []string {
	dirs := []string{
		gitDir,
		filepath.Join(gitDir, "refs"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "remotes"),
	}
	return dirs
}
