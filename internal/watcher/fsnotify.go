package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FSWatcher implements Watcher using fsnotify.
type FSWatcher struct {
	mu sync.RWMutex

	watcher *fsnotify.Watcher
	config  Config
	logger  *zap.Logger

	// Repository roots registered via WatchRepository.
	roots map[string]bool

	// Individual directories added to fsnotify, by owning root.
	dirs map[string]string

	// Output channels
	events chan Event
	errors chan error

	// Stats
	totalEvents   int64
	droppedEvents int64
	totalErrors   int64

	// Lifecycle
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewFSWatcher creates a new fsnotify-based repository watcher.
func NewFSWatcher(logger *zap.Logger, opts ...Option) (*FSWatcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &FSWatcher{
		watcher: fsw,
		config:  config,
		logger:  logger,
		roots:   make(map[string]bool),
		dirs:    make(map[string]string),
		events:  make(chan Event, config.BufferSize),
		errors:  make(chan error, config.BufferSize),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// WatchRepository starts watching a repository root recursively.
func (w *FSWatcher) WatchRepository(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.roots[absRoot] {
		return ErrAlreadyWatching
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return ErrPathNotExist
	}

	if err := w.walkAndWatchLocked(absRoot); err != nil {
		// Roll back partial watches so a failed root leaves no residue.
		w.removeRootDirsLocked(absRoot)
		return err
	}

	w.roots[absRoot] = true
	w.logger.Debug("watching repository", zap.String("root", absRoot))
	return nil
}

// walkAndWatchLocked walks a repository tree adding directory watches.
// The .git directory gets only its state-bearing subdirectories watched.
func (w *FSWatcher) walkAndWatchLocked(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Unreadable entries are skipped, not fatal.
		}
		if !d.IsDir() {
			return nil
		}

		if d.Name() == ".git" && p != root {
			for _, dir := range gitWatchDirs(p) {
				if _, statErr := os.Stat(dir); statErr == nil {
					if addErr := w.addDirLocked(dir, root); addErr != nil {
						return addErr
					}
				}
			}
			return filepath.SkipDir
		}

		return w.addDirLocked(p, root)
	})
}

// addDirLocked adds a single directory watch attributed to root.
func (w *FSWatcher) addDirLocked(dir, root string) error {
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	if w.config.MaxWatches > 0 && len(w.dirs) >= w.config.MaxWatches {
		return errors.New("maximum watch limit reached")
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = root
	return nil
}

// UnwatchRepository stops watching a repository root and its subtree.
func (w *FSWatcher) UnwatchRepository(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.roots[absRoot] {
		return ErrNotWatching
	}

	w.removeRootDirsLocked(absRoot)
	delete(w.roots, absRoot)
	w.logger.Debug("unwatched repository", zap.String("root", absRoot))
	return nil
}

// removeRootDirsLocked drops every directory watch owned by root.
func (w *FSWatcher) removeRootDirsLocked(root string) {
	for dir, owner := range w.dirs {
		if owner == root {
			// Remove can fail if the directory is already gone; the
			// kernel dropped the watch with it.
			_ = w.watcher.Remove(dir)
			delete(w.dirs, dir)
		}
	}
}

// Events returns the event channel.
func (w *FSWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel.
func (w *FSWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher.
func (w *FSWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()

	close(w.events)
	close(w.errors)

	return w.watcher.Close()
}

// Stats returns watcher statistics.
func (w *FSWatcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return Stats{
		WatchedDirs:   len(w.dirs),
		PendingEvents: len(w.events),
		TotalEvents:   atomic.LoadInt64(&w.totalEvents),
		DroppedEvents: atomic.LoadInt64(&w.droppedEvents),
		Errors:        atomic.LoadInt64(&w.totalErrors),
	}
}

// IsWatching returns true if the repository root is being watched.
func (w *FSWatcher) IsWatching(root string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.roots[absRoot]
}

// processLoop handles incoming fsnotify events.
func (w *FSWatcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			atomic.AddInt64(&w.totalErrors, 1)
			w.sendError(err)
		}
	}
}

// handleFSEvent converts and dispatches an fsnotify event.
func (w *FSWatcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return // Chmod or unknown; not a content change.
	}

	if suppressGitInternal(fsEvent.Name) {
		return
	}

	w.sendEvent(Event{
		Path:      fsEvent.Name,
		Op:        op,
		Timestamp: time.Now(),
	})

	// New directories inside a watched root must be watched too, or
	// changes inside them would go unseen.
	if op.Has(OpCreate) {
		w.maybeWatchNewDir(fsEvent.Name)
	}
}

// maybeWatchNewDir adds a watch for a newly created directory.
func (w *FSWatcher) maybeWatchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || info.Name() == ".git" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	root := w.owningRootLocked(path)
	if root == "" {
		return
	}
	if err := w.addDirLocked(path, root); err != nil {
		atomic.AddInt64(&w.totalErrors, 1)
		w.logger.Debug("watch new directory failed",
			zap.String("path", path), zap.Error(err))
	}
}

// owningRootLocked finds the registered root containing path.
func (w *FSWatcher) owningRootLocked(path string) string {
	sep := string(filepath.Separator)
	for root := range w.roots {
		if path == root || strings.HasPrefix(path, root+sep) {
			return root
		}
	}
	return ""
}

// convertOp converts fsnotify.Op to watcher.Op. Chmod is dropped.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}

// sendEvent sends an event to the output channel, dropping on overflow.
func (w *FSWatcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		atomic.AddInt64(&w.totalEvents, 1)
	default:
		// A full channel means the consumer is behind; the periodic
		// poll covers whatever is lost here.
		atomic.AddInt64(&w.droppedEvents, 1)
	}
}

// sendError sends an error to the output channel.
func (w *FSWatcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

// Ensure FSWatcher implements Watcher.
var _ Watcher = (*FSWatcher)(nil)
