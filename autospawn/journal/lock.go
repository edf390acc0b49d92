package journal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// ErrLockedElsewhere is returned if the lock is already held by another
// process.
var ErrLockedElsewhere = errors.New("file already locked elsewhere")

// Lock is an exclusive flock on a file. It must be released by the caller or
// by the operating system when the application exits.
type Lock struct {
	l *flock.Flock
}

// AcquireLock acquires the lock at path without blocking. The file and its
// parent directories are created if needed. ErrLockedElsewhere is returned if
// another process holds the lock.
func AcquireLock(path string) (*Lock, error) {
	return acquireLock(nil, path)
}

// AcquireLockWait acquires the lock at path, retrying until it is released by
// its holder or the context is canceled.
func AcquireLockWait(ctx context.Context, path string) (*Lock, error) {
	return acquireLock(ctx, path)
}

func acquireLock(ctx context.Context, path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create lock directory")
	}

	l := flock.New(path)

	var locked bool
	var err error

	if ctx != nil {
		locked, err = l.TryLockContext(ctx, 25*time.Millisecond)
	} else {
		locked, err = l.TryLock()
	}

	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire lock")
	}

	if !locked {
		return nil, ErrLockedElsewhere
	}

	return &Lock{l}, nil
}

// Path returns the path of the lock file.
func (l *Lock) Path() string {
	return l.l.Path()
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	return l.l.Unlock()
}
