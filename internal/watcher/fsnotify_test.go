package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// makeRepoDir creates a directory shaped like a git repository.
func makeRepoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{
		filepath.Join(".git", "refs", "heads"),
		filepath.Join(".git", "objects"),
		"src",
	} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", sub, err)
		}
	}
	return dir
}

// waitForEvent waits for an event whose path matches.
func waitForEvent(t *testing.T, w Watcher, path string, timeout time.Duration) (Event, bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				return Event{}, false
			}
			if ev.Path == path {
				return ev, true
			}
		case <-deadline:
			return Event{}, false
		}
	}
}

func TestWatchRepositoryEmitsWorkingTreeEvents(t *testing.T) {
	dir := makeRepoDir(t)

	w, err := NewFSWatcher(nil)
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.WatchRepository(dir); err != nil {
		t.Fatalf("WatchRepository: %v", err)
	}
	if !w.IsWatching(dir) {
		t.Error("IsWatching = false after WatchRepository")
	}

	target := filepath.Join(dir, "src", "new.go")
	if err := os.WriteFile(target, []byte("package src\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, ok := waitForEvent(t, w, target, 2*time.Second); !ok {
		t.Error("no event received for working tree write")
	}
}

func TestWatchRepositorySuppressesObjectChurn(t *testing.T) {
	dir := makeRepoDir(t)

	w, err := NewFSWatcher(nil)
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.WatchRepository(dir); err != nil {
		t.Fatalf("WatchRepository: %v", err)
	}

	// Lock-file churn must not produce events.
	lock := filepath.Join(dir, ".git", "index.lock")
	if err := os.WriteFile(lock, nil, 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}

	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event for %q", ev.Path)
	case <-time.After(300 * time.Millisecond):
	}

	// A HEAD write (branch switch) must pass.
	head := filepath.Join(dir, ".git", "HEAD")
	if err := os.WriteFile(head, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		t.Fatalf("write HEAD: %v", err)
	}
	if _, ok := waitForEvent(t, w, head, 2*time.Second); !ok {
		t.Error("no event received for HEAD write")
	}
}

func TestWatchRepositoryNewDirectoryAutoWatched(t *testing.T) {
	dir := makeRepoDir(t)

	w, err := NewFSWatcher(nil)
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.WatchRepository(dir); err != nil {
		t.Fatalf("WatchRepository: %v", err)
	}

	newDir := filepath.Join(dir, "pkg")
	if err := os.Mkdir(newDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, ok := waitForEvent(t, w, newDir, 2*time.Second); !ok {
		t.Fatal("no event for directory creation")
	}

	// Give the watcher a moment to register the new directory, then
	// verify a file inside it is seen.
	time.Sleep(100 * time.Millisecond)
	inner := filepath.Join(newDir, "inner.go")
	if err := os.WriteFile(inner, []byte("package pkg\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, ok := waitForEvent(t, w, inner, 2*time.Second); !ok {
		t.Error("no event for file inside auto-watched directory")
	}
}

func TestWatchRepositoryErrors(t *testing.T) {
	dir := makeRepoDir(t)

	w, err := NewFSWatcher(nil)
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.WatchRepository(filepath.Join(dir, "missing")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("err = %v, want ErrPathNotExist", err)
	}

	if err := w.WatchRepository(dir); err != nil {
		t.Fatalf("WatchRepository: %v", err)
	}
	if err := w.WatchRepository(dir); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("err = %v, want ErrAlreadyWatching", err)
	}

	if err := w.UnwatchRepository(dir); err != nil {
		t.Errorf("UnwatchRepository: %v", err)
	}
	if err := w.UnwatchRepository(dir); !errors.Is(err, ErrNotWatching) {
		t.Errorf("err = %v, want ErrNotWatching", err)
	}
}

func TestUnwatchStopsEvents(t *testing.T) {
	dir := makeRepoDir(t)

	w, err := NewFSWatcher(nil)
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	defer w.Close()

	if err := w.WatchRepository(dir); err != nil {
		t.Fatalf("WatchRepository: %v", err)
	}
	if err := w.UnwatchRepository(dir); err != nil {
		t.Fatalf("UnwatchRepository: %v", err)
	}
	if w.Stats().WatchedDirs != 0 {
		t.Errorf("WatchedDirs = %d after unwatch, want 0", w.Stats().WatchedDirs)
	}

	if err := os.WriteFile(filepath.Join(dir, "late.txt"), nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event after unwatch: %q", ev.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := NewFSWatcher(nil)
	if err != nil {
		t.Fatalf("NewFSWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := w.WatchRepository(t.TempDir()); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("err = %v, want ErrWatcherClosed", err)
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpRename, "RENAME"},
		{Op(0), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if !(OpCreate | OpWrite).Has(OpWrite) {
		t.Error("Has(OpWrite) = false for combined op")
	}
}
