package autospawn

import (
	"os"
	"time"

	"github.com/pkg/errors"
)

// RotateSuffix is the time layout appended to the path of a rotated log.
const RotateSuffix = "20060102150405"

// Reopener is a log sink that can reopen its file at the same path.
type Reopener interface {
	Reopen() error
}

// staleReopener is a Reopener that knows when its file was moved away from
// under it.
type staleReopener interface {
	Reopener
	ReopenIfStale() (bool, error)
}

// Rotator renames the daemon log away once it grows past a size limit.
type Rotator struct {
	Path  string
	Limit int64

	sink Reopener
	j    Journaler
}

// NewRotator creates a rotator for the daemon log described by cfg. The sink
// is reopened after every rotation and may be nil if nothing holds the file
// open.
func NewRotator(cfg Config, sink Reopener, j Journaler) *Rotator {
	return &Rotator{
		Path:  cfg.DaemonLogPath(),
		Limit: cfg.RotateLimit(),
		sink:  sink,
		j:     j,
	}
}

// RotateIfNeeded renames the log to its path suffixed with now if it is
// strictly larger than the limit. True is returned if the log was rotated. A
// missing log is not an error.
//
// Two rotations within the same second rename to the same target, in which
// case the later one replaces the earlier.
func (r *Rotator) RotateIfNeeded(now time.Time) (bool, error) {
	if s, ok := r.sink.(staleReopener); ok {
		reopened, err := s.ReopenIfStale()
		if err != nil {
			return false, errors.Wrap(err, "failed to reopen moved log")
		}
		if reopened {
			r.j.Write(EventWarning{
				Component: "rotator",
				Error:     "log file was moved externally, reopened " + r.Path,
			})
		}
	}

	s, err := os.Stat(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to stat log")
	}

	if s.Size() <= r.Limit {
		return false, nil
	}

	target := r.Path + now.Format(RotateSuffix)

	if err := os.Rename(r.Path, target); err != nil {
		return false, errors.Wrap(err, "failed to rename log")
	}

	if r.sink != nil {
		if err := r.sink.Reopen(); err != nil {
			return true, errors.Wrap(err, "failed to reopen log")
		}
	}

	r.j.Write(EventLogRotated{
		From: r.Path,
		To:   target,
	})

	return true, nil
}
