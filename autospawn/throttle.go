package autospawn

import "fmt"

// Throttler caps the CPU usage of a process by starting an external throttling
// tool against it. The tool process is not tracked.
type Throttler struct {
	Tool  string
	Limit int

	launcher Launcher
	logFile  string
	dir      string
	j        Journaler
}

// NewThrottler creates a throttler from the configuration. Nil is returned if
// throttling is disabled.
func NewThrottler(cfg Config, l Launcher, j Journaler) *Throttler {
	if !cfg.ThrottleEnabled() {
		return nil
	}

	return &Throttler{
		Tool:     cfg.ThrottleTool,
		Limit:    cfg.CPULimit,
		launcher: l,
		logFile:  cfg.CommandLogPath(),
		dir:      cfg.WorkDir,
		j:        j,
	}
}

// Command returns the shell command line that throttles pid.
func (t *Throttler) Command(pid int) string {
	return fmt.Sprintf("%s -z -i -l %d -p %d &", t.Tool, t.Limit, pid)
}

// Apply starts throttling pid. The outcome is written into the journal; the
// returned error is informational and never fatal.
func (t *Throttler) Apply(pid int) error {
	throttlePID, err := t.launcher.Launch(t.Command(pid), t.logFile, t.dir)
	if err != nil {
		t.j.Write(EventThrottleError{
			PID:    pid,
			Reason: err.Error(),
		})
		return err
	}

	t.j.Write(EventThrottleApplied{
		PID:         pid,
		Limit:       t.Limit,
		ThrottlePID: throttlePID,
	})

	return nil
}
