package gitstatus

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// DetachedHead is the branch sentinel for a detached HEAD.
// It is distinct from the empty string, which means "unknown".
const DetachedHead = "(detached)"

// Facts holds the typed facts parsed from one git status invocation.
type Facts struct {
	// Branch is the current branch name, or DetachedHead.
	Branch string

	// Detached indicates a detached HEAD state.
	Detached bool

	// Upstream is the upstream ref name (e.g. "origin/main").
	Upstream string

	// HasUpstream indicates an upstream is configured and present.
	HasUpstream bool

	// UpstreamGone indicates the configured upstream no longer exists.
	UpstreamGone bool

	// Ahead is the number of commits ahead of upstream.
	Ahead int

	// Behind is the number of commits behind upstream.
	Behind int

	// Dirty indicates uncommitted changes in index or working tree.
	Dirty bool
}

// ParseStatus parses the output of `git status --porcelain=v1 -b`.
//
// The first line is the branch header:
//
//	## main...origin/main [ahead 1, behind 2]
//	## main
//	## HEAD (no branch)
//	## No commits yet on main
//
// Any further line is a file entry and marks the working tree dirty.
func ParseStatus(output string) (Facts, error) {
	var facts Facts

	scanner := bufio.NewScanner(strings.NewReader(output))
	sawHeader := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "## ") {
			if sawHeader {
				// Duplicate header never happens with -b; bail out.
				return facts, fmt.Errorf("second branch header %q: %w", line, ErrParse)
			}
			sawHeader = true
			parseBranchHeader(line[3:], &facts)
			continue
		}

		if !sawHeader {
			return facts, fmt.Errorf("entry before branch header %q: %w", line, ErrParse)
		}

		facts.Dirty = true
	}
	if err := scanner.Err(); err != nil {
		return facts, fmt.Errorf("scan status output: %w", err)
	}

	if !sawHeader {
		return facts, fmt.Errorf("missing branch header: %w", ErrParse)
	}

	return facts, nil
}

// parseBranchHeader parses the header payload after the "## " prefix.
func parseBranchHeader(header string, facts *Facts) {
	// Detached HEAD.
	if header == "HEAD (no branch)" {
		facts.Branch = DetachedHead
		facts.Detached = true
		return
	}

	// Unborn branch in a fresh repository.
	if name, ok := strings.CutPrefix(header, "No commits yet on "); ok {
		facts.Branch = strings.TrimSpace(name)
		return
	}
	// Older git spells it differently.
	if name, ok := strings.CutPrefix(header, "Initial commit on "); ok {
		facts.Branch = strings.TrimSpace(name)
		return
	}

	// Strip the tracking annotation: "main...origin/main [ahead 1, behind 2]".
	rest := header
	if idx := strings.Index(rest, " ["); idx >= 0 {
		parseTracking(rest[idx+2:], facts)
		rest = rest[:idx]
	}

	if idx := strings.Index(rest, "..."); idx >= 0 {
		facts.Branch = rest[:idx]
		facts.Upstream = rest[idx+3:]
		facts.HasUpstream = !facts.UpstreamGone
		return
	}

	facts.Branch = rest
}

// parseTracking parses the bracketed annotation, without the leading "[".
// Forms: "ahead 1]", "behind 2]", "ahead 1, behind 2]", "gone]".
func parseTracking(s string, facts *Facts) {
	s = strings.TrimSuffix(s, "]")

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "gone":
			facts.UpstreamGone = true
		case strings.HasPrefix(part, "ahead "):
			if n, err := strconv.Atoi(part[len("ahead "):]); err == nil {
				facts.Ahead = n
			}
		case strings.HasPrefix(part, "behind "):
			if n, err := strconv.Atoi(part[len("behind "):]); err == nil {
				facts.Behind = n
			}
		}
	}
}

// ParseRemotes parses the output of `git remote` into remote names.
func ParseRemotes(output string) []string {
	var remotes []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name != "" {
			remotes = append(remotes, name)
		}
	}
	return remotes
}

// IsNotRepoOutput reports whether git stderr indicates the directory is not
// a git repository.
func IsNotRepoOutput(stderr string) bool {
	return strings.Contains(strings.ToLower(stderr), "not a git repository")
}
