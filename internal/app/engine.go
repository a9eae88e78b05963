package app

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kartalbas/gitscope/internal/config"
	"github.com/kartalbas/gitscope/internal/gitrun"
	"github.com/kartalbas/gitscope/internal/scheduler"
	"github.com/kartalbas/gitscope/internal/watcher"
	"github.com/kartalbas/gitscope/internal/workspace"
)

// Engine is the workspace status engine.
//
// Change events flow watcher -> debouncer -> registry refresh. The poller
// covers repositories whose watch could not be established and events the
// OS dropped. Removing a repository tears down its watch and cancels any
// pending debounce window before the cell is disposed, so nothing fires
// for it afterwards.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger
	runner gitrun.Runner

	registry  *workspace.Registry
	watcher   watcher.Watcher
	debouncer *scheduler.Debouncer
	poller    *scheduler.Poller

	mu sync.RWMutex
	// roots maps registered repository paths to whether their filesystem
	// watch is live. False means the repository relies on polling alone.
	roots map[string]bool

	closeOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunner substitutes the git runner. Tests use this to script git
// behavior without spawning processes.
func WithRunner(r gitrun.Runner) Option {
	return func(e *Engine) {
		e.runner = r
	}
}

// New builds an Engine from configuration. A failure to create the
// filesystem watcher is not fatal: the engine degrades to poll-only mode.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		cfg:    cfg,
		logger: logger,
		roots:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.runner == nil {
		e.runner = gitrun.New(logger,
			gitrun.WithGitPath(cfg.Git.Path),
			gitrun.WithTimeout(cfg.Git.CommandTimeout.Std()),
		)
	}
	e.registry = workspace.NewRegistry(e.runner, logger)

	fsw, err := watcher.NewFSWatcher(logger,
		watcher.WithBufferSize(cfg.Watch.BufferSize),
		watcher.WithMaxWatches(cfg.Watch.MaxWatches),
	)
	if err != nil {
		logger.Warn("filesystem watcher unavailable, polling only", zap.Error(err))
	} else {
		e.watcher = fsw
	}

	e.debouncer = scheduler.NewDebouncer(cfg.Watch.QuietWindow.Std(), e.refresh, logger)
	e.poller = scheduler.NewPoller(cfg.Watch.PollInterval.Std(), e.registry.Paths, e.refresh, logger)

	return e
}

// refresh is the trigger shared by the debouncer and the poller.
func (e *Engine) refresh(repo string) {
	e.registry.RefreshOne(repo)
}

// AddRepository registers a repository, establishes its filesystem watch,
// and triggers the first refresh. A watch failure degrades that repository
// to poll-only; the registration itself still succeeds.
func (e *Engine) AddRepository(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if err := e.registry.Add(absPath); err != nil {
		return err
	}

	watched := false
	if e.watcher != nil {
		if werr := e.watcher.WatchRepository(absPath); werr != nil {
			e.logger.Warn("watch failed, repository degraded to polling",
				zap.String("repo", absPath), zap.Error(werr))
		} else {
			watched = true
		}
	}

	e.mu.Lock()
	e.roots[absPath] = watched
	e.mu.Unlock()

	return nil
}

// RemoveRepository unregisters a repository. Removing an unknown path is
// a no-op.
func (e *Engine) RemoveRepository(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}

	e.mu.Lock()
	watched, known := e.roots[absPath]
	delete(e.roots, absPath)
	e.mu.Unlock()

	if known && watched && e.watcher != nil {
		if err := e.watcher.UnwatchRepository(absPath); err != nil {
			e.logger.Debug("unwatch failed", zap.String("repo", absPath), zap.Error(err))
		}
	}
	e.debouncer.Cancel(absPath)
	e.registry.Remove(absPath)
}

// Registry exposes the underlying workspace registry for snapshot reads
// and subscriptions.
func (e *Engine) Registry() *workspace.Registry {
	return e.registry
}

// RefreshAll triggers an immediate refresh of every repository.
func (e *Engine) RefreshAll() {
	e.registry.RefreshAll()
}

// Watching reports whether a repository has a live filesystem watch.
func (e *Engine) Watching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roots[absPath]
}

// Run starts the poller and routes watcher events until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.poller.Start()

	// A nil watcher leaves both channels nil, so the loop blocks on ctx
	// alone and the poller carries all freshness.
	var events <-chan watcher.Event
	var errs <-chan error
	if e.watcher != nil {
		events = e.watcher.Events()
		errs = e.watcher.Errors()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if root := e.ownerOf(ev.Path); root != "" {
				e.debouncer.Note(root)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			e.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// ownerOf resolves a changed path to its registered repository root.
// With nested registrations the deepest root wins.
func (e *Engine) ownerOf(path string) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sep := string(filepath.Separator)
	best := ""
	for root := range e.roots {
		if path == root || strings.HasPrefix(path, root+sep) {
			if len(root) > len(best) {
				best = root
			}
		}
	}
	return best
}

// Close tears the engine down: schedulers first so nothing new fires,
// then the watcher, then the registry.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.poller.Stop()
		e.debouncer.Close()
		if e.watcher != nil {
			if err := e.watcher.Close(); err != nil {
				e.logger.Debug("watcher close", zap.Error(err))
			}
		}
		e.registry.Close()
	})
}
