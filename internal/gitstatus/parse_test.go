package gitstatus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseStatusCleanNoUpstream(t *testing.T) {
	facts, err := ParseStatus("## main\n")
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if facts.Branch != "main" {
		t.Errorf("Branch = %q, want main", facts.Branch)
	}
	if facts.HasUpstream {
		t.Error("HasUpstream = true, want false")
	}
	if facts.Dirty {
		t.Error("Dirty = true, want false")
	}
}

func TestParseStatusAheadBehind(t *testing.T) {
	tests := []struct {
		name   string
		header string
		ahead  int
		behind int
	}{
		{"ahead only", "## main...origin/main [ahead 3]", 3, 0},
		{"behind only", "## main...origin/main [behind 7]", 0, 7},
		{"both", "## main...origin/main [ahead 1, behind 2]", 1, 2},
		{"in sync", "## main...origin/main", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts, err := ParseStatus(tt.header + "\n")
			if err != nil {
				t.Fatalf("ParseStatus: %v", err)
			}
			if facts.Branch != "main" {
				t.Errorf("Branch = %q, want main", facts.Branch)
			}
			if facts.Upstream != "origin/main" {
				t.Errorf("Upstream = %q, want origin/main", facts.Upstream)
			}
			if !facts.HasUpstream {
				t.Error("HasUpstream = false, want true")
			}
			if facts.Ahead != tt.ahead || facts.Behind != tt.behind {
				t.Errorf("ahead/behind = %d/%d, want %d/%d",
					facts.Ahead, facts.Behind, tt.ahead, tt.behind)
			}
		})
	}
}

func TestParseStatusDirty(t *testing.T) {
	output := "## feature/x...origin/feature/x [ahead 2]\n M internal/app/app.go\n?? notes.txt\n"
	facts, err := ParseStatus(output)
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if !facts.Dirty {
		t.Error("Dirty = false, want true")
	}
	if facts.Branch != "feature/x" {
		t.Errorf("Branch = %q, want feature/x", facts.Branch)
	}
	if facts.Ahead != 2 {
		t.Errorf("Ahead = %d, want 2", facts.Ahead)
	}
}

func TestParseStatusDetachedHead(t *testing.T) {
	facts, err := ParseStatus("## HEAD (no branch)\n")
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if !facts.Detached {
		t.Error("Detached = false, want true")
	}
	if facts.Branch != DetachedHead {
		t.Errorf("Branch = %q, want %q", facts.Branch, DetachedHead)
	}
	if facts.Branch == "" {
		t.Error("detached branch must not be the unknown sentinel")
	}
}

func TestParseStatusUnbornBranch(t *testing.T) {
	facts, err := ParseStatus("## No commits yet on main\n?? README.md\n")
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if facts.Branch != "main" {
		t.Errorf("Branch = %q, want main", facts.Branch)
	}
	if facts.Detached {
		t.Error("Detached = true, want false")
	}
	if !facts.Dirty {
		t.Error("Dirty = false, want true")
	}
}

func TestParseStatusUpstreamGone(t *testing.T) {
	facts, err := ParseStatus("## feature/old...origin/feature/old [gone]\n")
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if !facts.UpstreamGone {
		t.Error("UpstreamGone = false, want true")
	}
	if facts.HasUpstream {
		t.Error("HasUpstream = true, want false for a gone upstream")
	}
	if facts.Branch != "feature/old" {
		t.Errorf("Branch = %q, want feature/old", facts.Branch)
	}
}

func TestParseStatusMalformed(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"empty", ""},
		{"no header", " M file.go\n"},
		{"double header", "## main\n## other\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStatus(tt.output)
			if !errors.Is(err, ErrParse) {
				t.Errorf("err = %v, want ErrParse", err)
			}
		})
	}
}

func TestParseRemotes(t *testing.T) {
	remotes := ParseRemotes("origin\nupstream\n")
	if len(remotes) != 2 || remotes[0] != "origin" || remotes[1] != "upstream" {
		t.Errorf("remotes = %v, want [origin upstream]", remotes)
	}

	if got := ParseRemotes(""); got != nil {
		t.Errorf("remotes = %v, want nil for empty output", got)
	}
}

func TestIsNotRepoOutput(t *testing.T) {
	msg := "fatal: not a git repository (or any of the parent directories): .git"
	if !IsNotRepoOutput(msg) {
		t.Error("IsNotRepoOutput = false for fatal message")
	}
	if IsNotRepoOutput("error: pathspec 'x' did not match") {
		t.Error("IsNotRepoOutput = true for unrelated error")
	}
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()

	// Plain directory, no .git.
	if got := Classify(dir); got != RepoNotGit {
		t.Errorf("Classify = %v, want RepoNotGit", got)
	}

	// Missing path.
	if got := Classify(filepath.Join(dir, "missing")); got != RepoNotFound {
		t.Errorf("Classify = %v, want RepoNotFound", got)
	}

	// .git directory.
	repoDir := filepath.Join(dir, "repo")
	if err := os.MkdirAll(filepath.Join(repoDir, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := Classify(repoDir); got != RepoValid {
		t.Errorf("Classify = %v, want RepoValid", got)
	}

	// Worktree-style .git file.
	wtDir := filepath.Join(dir, "worktree")
	if err := os.MkdirAll(wtDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	gitFile := filepath.Join(wtDir, ".git")
	if err := os.WriteFile(gitFile, []byte("gitdir: /elsewhere/.git/worktrees/wt\n"), 0o644); err != nil {
		t.Fatalf("write .git file: %v", err)
	}
	if got := Classify(wtDir); got != RepoValid {
		t.Errorf("Classify = %v, want RepoValid for worktree", got)
	}

	// .git file with junk content.
	if err := os.WriteFile(gitFile, []byte("not a pointer"), 0o644); err != nil {
		t.Fatalf("rewrite .git file: %v", err)
	}
	if got := Classify(wtDir); got != RepoNotGit {
		t.Errorf("Classify = %v, want RepoNotGit for junk .git file", got)
	}

	// A file path (not a directory) counts as not found.
	if got := Classify(gitFile); got != RepoNotFound {
		t.Errorf("Classify = %v, want RepoNotFound for a file", got)
	}
}

func TestClassificationString(t *testing.T) {
	tests := []struct {
		c    Classification
		want string
	}{
		{RepoValid, "valid"},
		{RepoNotFound, "not-found"},
		{RepoNotGit, "not-a-repository"},
		{Classification(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
