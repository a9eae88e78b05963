package workspace

import (
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kartalbas/gitscope/internal/gitrun"
)

// Registry errors.
var (
	// ErrRegistryClosed indicates the registry has been closed.
	ErrRegistryClosed = errors.New("registry closed")

	// ErrAlreadyRegistered indicates the repository is already registered.
	ErrAlreadyRegistered = errors.New("repository already registered")
)

// Registry is the aggregate map from repository path to status cell.
//
// Map mutations are serialized against iteration; readers never observe a
// half-inserted entry. Cells refresh independently, so no lock spans more
// than one repository's pipeline.
type Registry struct {
	runner gitrun.Runner
	logger *zap.Logger

	mu     sync.RWMutex
	cells  map[string]*Cell
	subs   map[string]*Subscription
	closed bool

	// droppedUpdates counts updates lost to slow subscribers.
	droppedUpdates int64
}

// NewRegistry creates an empty registry.
func NewRegistry(runner gitrun.Runner, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		runner: runner,
		logger: logger,
		cells:  make(map[string]*Cell),
		subs:   make(map[string]*Subscription),
	}
}

// Add registers a repository and triggers its first refresh.
// Returns ErrAlreadyRegistered if the path is already registered.
func (r *Registry) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRegistryClosed
	}
	if _, ok := r.cells[absPath]; ok {
		r.mu.Unlock()
		return ErrAlreadyRegistered
	}

	cell := newCell(absPath, r.runner, r.logger, r.publish)
	r.cells[absPath] = cell
	r.mu.Unlock()

	r.logger.Info("repository added", zap.String("repo", absPath))
	cell.Refresh()
	return nil
}

// Remove unregisters a repository and disposes its cell. An in-flight
// pipeline finishes naturally but its result is discarded. Removing an
// unknown or already-removed path is a no-op.
func (r *Registry) Remove(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}

	r.mu.Lock()
	cell, ok := r.cells[absPath]
	if ok {
		delete(r.cells, absPath)
	}
	r.mu.Unlock()

	if ok {
		cell.dispose()
		r.logger.Info("repository removed", zap.String("repo", absPath))
	}
}

// Paths returns the registered repository paths, sorted.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	paths := make([]string, 0, len(r.cells))
	for p := range r.cells {
		paths = append(paths, p)
	}
	r.mu.RUnlock()

	sort.Strings(paths)
	return paths
}

// Snapshot returns the current snapshot for a repository.
// It never blocks on a refresh. ok is false for unregistered paths.
func (r *Registry) Snapshot(path string) (Snapshot, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Snapshot{}, false
	}

	r.mu.RLock()
	cell, ok := r.cells[absPath]
	r.mu.RUnlock()

	if !ok {
		return Snapshot{}, false
	}
	return cell.Snapshot(), true
}

// Snapshots returns the current snapshot of every registered repository,
// ordered by path.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.RLock()
	cells := make([]*Cell, 0, len(r.cells))
	for _, c := range r.cells {
		cells = append(cells, c)
	}
	r.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(cells))
	for _, c := range cells {
		snaps = append(snaps, c.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Path < snaps[j].Path })
	return snaps
}

// RefreshOne triggers a refresh for a single repository.
// Returns false if the path is not registered.
func (r *Registry) RefreshOne(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	r.mu.RLock()
	cell, ok := r.cells[absPath]
	r.mu.RUnlock()

	if !ok {
		return false
	}
	cell.Refresh()
	return true
}

// RefreshAll triggers a refresh on every registered repository.
// Fan-out only: one slow repository never delays the others, and RefreshAll
// does not wait for completion.
func (r *Registry) RefreshAll() {
	r.mu.RLock()
	cells := make([]*Cell, 0, len(r.cells))
	for _, c := range r.cells {
		cells = append(cells, c)
	}
	r.mu.RUnlock()

	for _, c := range cells {
		c.Refresh()
	}
}

// Subscribe registers a consumer for snapshot updates.
func (r *Registry) Subscribe() *Subscription {
	sub := newSubscription(0, r.unsubscribe)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		sub.closeStream()
		return sub
	}
	r.subs[sub.id] = sub
	r.mu.Unlock()

	return sub
}

// unsubscribe detaches a subscription by ID.
func (r *Registry) unsubscribe(id string) {
	r.mu.Lock()
	sub, ok := r.subs[id]
	if ok {
		delete(r.subs, id)
	}
	r.mu.Unlock()

	if ok {
		sub.closeStream()
	}
}

// publish fans an applied snapshot out to all subscribers.
func (r *Registry) publish(snap Snapshot) {
	r.mu.RLock()
	subs := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.RUnlock()

	u := Update{Path: snap.Path, Snapshot: snap}
	for _, s := range subs {
		if !s.deliver(u) {
			atomic.AddInt64(&r.droppedUpdates, 1)
		}
	}
}

// DroppedUpdates returns the number of updates lost to slow subscribers.
func (r *Registry) DroppedUpdates() int64 {
	return atomic.LoadInt64(&r.droppedUpdates)
}

// Close disposes every cell and closes every subscription.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true

	cells := make([]*Cell, 0, len(r.cells))
	for _, c := range r.cells {
		cells = append(cells, c)
	}
	r.cells = make(map[string]*Cell)

	subs := make([]*Subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.subs = make(map[string]*Subscription)
	r.mu.Unlock()

	for _, c := range cells {
		c.dispose()
	}
	for _, s := range subs {
		s.closeStream()
	}
}
