package workspace

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kartalbas/gitscope/internal/gitrun"
	"github.com/kartalbas/gitscope/internal/gitstatus"
)

// cellState is the refresh state of a cell.
type cellState int

const (
	// cellIdle: no pipeline running.
	cellIdle cellState = iota
	// cellRefreshing: one pipeline running, nothing queued.
	cellRefreshing
	// cellRefreshingPending: one pipeline running, exactly one rerun queued.
	cellRefreshingPending
)

// Cell owns the status snapshot and refresh state machine for one
// repository. At most one git pipeline is active per cell; refresh requests
// arriving while busy collapse into a single pending rerun.
type Cell struct {
	path   string
	runner gitrun.Runner
	logger *zap.Logger

	// notify delivers every applied snapshot to the registry.
	notify func(Snapshot)

	// ctx spans the cell's lifetime; cancel is called on disposal to
	// best-effort abort an in-flight pipeline.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    cellState
	disposed bool
	snapshot Snapshot

	// pipelines counts launched pipelines, for tests.
	pipelines int
}

// newCell creates a cell in the idle state with an empty loading snapshot.
func newCell(path string, runner gitrun.Runner, logger *zap.Logger, notify func(Snapshot)) *Cell {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cell{
		path:   path,
		runner: runner,
		logger: logger,
		notify: notify,
		ctx:    ctx,
		cancel: cancel,
		snapshot: Snapshot{
			Path:    path,
			Loading: true,
		},
	}
	return c
}

// Path returns the repository path this cell owns.
func (c *Cell) Path() string {
	return c.path
}

// Snapshot returns the current snapshot. It never blocks on a refresh.
func (c *Cell) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Refresh requests a status refresh. If a pipeline is already running the
// request is folded into one pending rerun; otherwise a pipeline starts.
func (c *Cell) Refresh() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}

	switch c.state {
	case cellIdle:
		c.state = cellRefreshing
		c.pipelines++
		c.snapshot.Loading = true
		c.mu.Unlock()
		go c.runPipeline()

	case cellRefreshing:
		c.state = cellRefreshingPending
		c.mu.Unlock()

	case cellRefreshingPending:
		// Already queued; a rerun will observe state at least as fresh
		// as this request.
		c.mu.Unlock()
	}
}

// dispose marks the cell dead. A pipeline still in flight finishes
// naturally but its result is discarded.
func (c *Cell) dispose() {
	c.mu.Lock()
	c.disposed = true
	c.state = cellIdle
	c.mu.Unlock()
	c.cancel()
}

// runPipeline computes a fresh snapshot and applies it, then launches one
// rerun if a request arrived meanwhile.
func (c *Cell) runPipeline() {
	snap := c.computeSnapshot()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}

	rerun := c.state == cellRefreshingPending
	if rerun {
		c.state = cellRefreshing
		c.pipelines++
	} else {
		c.state = cellIdle
	}
	snap.Loading = rerun
	c.snapshot = snap
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
	if rerun {
		go c.runPipeline()
	}
}

// computeSnapshot runs the classification and git pipeline for the cell's
// path and produces the next snapshot. Transient failures carry the
// previous snapshot's facts forward.
func (c *Cell) computeSnapshot() Snapshot {
	prev := c.Snapshot()

	switch gitstatus.Classify(c.path) {
	case gitstatus.RepoNotFound:
		return Snapshot{
			Path:        c.path,
			Broken:      true,
			LastUpdated: time.Now(),
			LastErr:     "path does not exist",
		}
	case gitstatus.RepoNotGit:
		return Snapshot{
			Path:        c.path,
			Exists:      true,
			LastUpdated: time.Now(),
		}
	}

	result, err := c.runner.Run(c.ctx, c.path, "status", "--porcelain=v1", "-b")
	if err != nil {
		// Timeout, kill, cancellation, missing executable: all
		// transient from the repository's point of view.
		return c.transient(prev, err.Error())
	}

	if result.ExitCode != 0 {
		if gitstatus.IsNotRepoOutput(result.Stderr) {
			return Snapshot{
				Path:        c.path,
				Exists:      true,
				Broken:      true,
				LastUpdated: time.Now(),
				LastErr:     strings.TrimSpace(result.Stderr),
			}
		}
		return c.transient(prev, strings.TrimSpace(result.Stderr))
	}

	facts, err := gitstatus.ParseStatus(result.Stdout)
	if err != nil {
		return c.transient(prev, err.Error())
	}

	snap := Snapshot{
		Path:        c.path,
		Exists:      true,
		ValidGit:    true,
		Branch:      facts.Branch,
		Detached:    facts.Detached,
		Ahead:       facts.Ahead,
		Behind:      facts.Behind,
		Dirty:       facts.Dirty,
		LastUpdated: time.Now(),
	}

	// Remote presence is independent of upstream tracking.
	remotes, err := c.runner.Run(c.ctx, c.path, "remote")
	if err == nil && remotes.ExitCode == 0 {
		snap.HasRemote = len(gitstatus.ParseRemotes(remotes.Stdout)) > 0
	}

	return snap
}

// transient builds a snapshot preserving the previous facts and stamping
// the error.
func (c *Cell) transient(prev Snapshot, msg string) Snapshot {
	c.logger.Debug("transient refresh failure",
		zap.String("repo", c.path), zap.String("error", msg))

	snap := prev
	snap.Loading = false
	snap.LastUpdated = time.Now()
	snap.LastErr = msg
	return snap
}
