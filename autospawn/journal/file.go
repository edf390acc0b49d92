// Package journal provides the file side of the autospawn journal: the daemon
// log file that journal lines are appended to, a file lock so that only one
// supervisor runs per log folder, and a reader that recovers the state of the
// previous supervisor from its log.
package journal

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"git.unix.lgbt/diamondburned/autospawn/autospawn"
	"git.unix.lgbt/diamondburned/autospawn/autospawn/exec"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// File is an append-only log file that can be reopened at its path after it
// has been renamed away. Writes and reopens are concurrently safe; each Write
// call is a single write on the file.
type File struct {
	mu   sync.Mutex
	f    *os.File
	path string

	stale uint32 // atomic, 1 if the file might have been moved
}

var _ autospawn.Reopener = (*File)(nil)

// OpenFile opens the file at path for appending, creating it and its parent
// directories if needed.
func OpenFile(path string) (*File, error) {
	f, err := exec.OpenLog(path)
	if err != nil {
		return nil, err
	}

	return &File{f: f, path: path}, nil
}

// Path returns the path the file was opened at.
func (f *File) Path() string {
	return f.path
}

// Write appends b to the file.
func (f *File) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.f.Write(b)
}

// Reopen closes the current file and opens the one at its path, creating it if
// needed. If that fails, the current file is kept.
func (f *File) Reopen() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.reopen()
}

func (f *File) reopen() error {
	newf, err := exec.OpenLog(f.path)
	if err != nil {
		return err
	}

	f.f.Close()
	f.f = newf

	atomic.StoreUint32(&f.stale, 0)
	return nil
}

// ReopenIfStale reopens the file if the watcher has seen it being removed or
// renamed, and the path no longer refers to the open file. True is returned if
// the file was reopened.
func (f *File) ReopenIfStale() (bool, error) {
	if atomic.LoadUint32(&f.stale) == 0 {
		return false, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.samePath() {
		atomic.StoreUint32(&f.stale, 0)
		return false, nil
	}

	if err := f.reopen(); err != nil {
		return false, err
	}

	return true, nil
}

// samePath returns true if the path still refers to the open file.
func (f *File) samePath() bool {
	open, err := f.f.Stat()
	if err != nil {
		return false
	}

	current, err := os.Stat(f.path)
	if err != nil {
		return false
	}

	return os.SameFile(open, current)
}

// Close closes the file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.f.Close()
}

// Watch watches the file's directory in the background and marks the file as
// stale when it is removed or renamed, so that the next ReopenIfStale call
// reopens it. Watcher errors are written into the journaler. The watcher is
// stopped once the given context is canceled.
func (f *File) Watch(ctx context.Context, j autospawn.Journaler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}

	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return errors.Wrap(err, "failed to watch log directory")
	}

	go f.watch(ctx, w, j)
	return nil
}

func (f *File) watch(ctx context.Context, w *fsnotify.Watcher, j autospawn.Journaler) {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			j.Write(autospawn.EventWarning{
				Component: "watcher",
				Error:     "inotify error: " + err.Error(),
			})

		case evt, ok := <-w.Events:
			if !ok {
				return
			}
			if movedAway(evt, f.path) {
				atomic.StoreUint32(&f.stale, 1)
			}
		}
	}
}

// movedAway returns true if evt removes or renames the file at path.
func movedAway(evt fsnotify.Event, path string) bool {
	if filepath.Clean(evt.Name) != filepath.Clean(path) {
		return false
	}

	// fsnotify does not report where a file was renamed to, so a rename is
	// treated like a remove.
	return evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0
}
