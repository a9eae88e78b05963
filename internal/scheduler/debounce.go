package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TriggerFunc receives a repository path due for a status refresh.
type TriggerFunc func(repo string)

// Debouncer coalesces bursts of change signals per repository.
// A burst of N signals within the quiet window produces exactly one trigger.
type Debouncer struct {
	quiet   time.Duration
	trigger TriggerFunc
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// NewDebouncer creates a Debouncer firing trigger after quiet elapses with
// no further signals for a repository.
func NewDebouncer(quiet time.Duration, trigger TriggerFunc, logger *zap.Logger) *Debouncer {
	if quiet <= 0 {
		quiet = 400 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Debouncer{
		quiet:   quiet,
		trigger: trigger,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}
}

// Note records a change signal for a repository, starting or resetting its
// quiet timer.
func (d *Debouncer) Note(repo string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if timer, ok := d.pending[repo]; ok {
		timer.Reset(d.quiet)
		return
	}

	d.pending[repo] = time.AfterFunc(d.quiet, func() {
		d.fire(repo)
	})
}

// fire delivers the trigger for a repository whose window elapsed.
func (d *Debouncer) fire(repo string) {
	d.mu.Lock()
	if _, ok := d.pending[repo]; !ok {
		// Cancelled or flushed concurrently.
		d.mu.Unlock()
		return
	}
	delete(d.pending, repo)
	closed := d.closed
	d.mu.Unlock()

	if closed {
		return
	}

	d.logger.Debug("debounce window elapsed", zap.String("repo", repo))
	d.trigger(repo)
}

// Cancel drops any pending trigger for a repository.
// Used when the repository is removed from the workspace.
func (d *Debouncer) Cancel(repo string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.pending[repo]; ok {
		timer.Stop()
		delete(d.pending, repo)
	}
}

// Flush fires all pending triggers immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	repos := make([]string, 0, len(d.pending))
	for repo, timer := range d.pending {
		timer.Stop()
		repos = append(repos, repo)
	}
	d.mu.Unlock()

	for _, repo := range repos {
		d.fire(repo)
	}
}

// PendingCount returns the number of repositories with an open window.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close cancels all pending windows. A trigger already in flight may still
// complete; nothing new fires afterward.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	for repo, timer := range d.pending {
		timer.Stop()
		delete(d.pending, repo)
	}
}
