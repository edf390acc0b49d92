package autospawn

import (
	"context"

	"git.unix.lgbt/diamondburned/autospawn/autospawn/exec"
)

// ProcessTable lists the processes currently known to the operating system.
type ProcessTable interface {
	Processes(ctx context.Context) ([]exec.Entry, error)
}

var _ ProcessTable = exec.PSTable{}

// LivenessChecker decides whether a process ID refers to a running process by
// looking it up in the process table.
type LivenessChecker struct {
	table ProcessTable
	j     Journaler
	reap  func() (int, error)
}

// NewLivenessChecker creates a new liveness checker. Query failures are written
// into the journaler as warnings.
func NewLivenessChecker(table ProcessTable, j Journaler) *LivenessChecker {
	return &LivenessChecker{
		table: table,
		j:     j,
		reap:  exec.Reap,
	}
}

// IsAlive returns true if a process with exactly the given PID is running. A
// PID of 0 or less is never alive and the table is not queried for it. If the
// table cannot be queried, the process is assumed dead so that it gets
// respawned.
func (c *LivenessChecker) IsAlive(ctx context.Context, pid int) bool {
	if pid <= 0 {
		return false
	}

	// Collect our own exited children first, otherwise they would still be
	// listed.
	if _, err := c.reap(); err != nil {
		c.j.Write(EventWarning{
			Component: "reaper",
			Error:     err.Error(),
		})
	}

	entries, err := c.table.Processes(ctx)
	if err != nil {
		c.j.Write(EventWarning{
			Component: "liveness",
			Error:     err.Error(),
		})
		return false
	}

	for _, entry := range entries {
		if entry.PID == pid {
			return !entry.Zombie()
		}
	}

	return false
}
