package exec

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Reap collects every child of this process that has already exited, without
// blocking. It returns how many children were collected. Having no children
// at all is not an error.
//
// Children are never waited on individually, so without this an exited child
// would stay in the process table as a zombie.
func Reap() (int, error) {
	var reaped int

	for {
		var status unix.WaitStatus

		pid, err := unix.Wait4(-1, &status, unix.WNOHANG, nil)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.ECHILD:
			return reaped, nil
		case err != nil:
			return reaped, errors.Wrap(err, "failed to wait4")
		case pid <= 0:
			return reaped, nil
		}

		reaped++
	}
}
