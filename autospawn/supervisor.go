package autospawn

import (
	"context"
	"time"

	"git.unix.lgbt/diamondburned/autospawn/autospawn/exec"
)

// Launcher starts a shell command with its output appended to logFile and
// returns its PID. exec.NoPID is returned alongside any error.
type Launcher interface {
	Launch(command, logFile, dir string) (int, error)
}

var _ Launcher = exec.ShellLauncher{}

// Supervisor keeps a single command running by relaunching it whenever the
// previously launched process is gone. It does not hold a handle on the
// process: liveness is checked by PID on every tick.
type Supervisor struct {
	cfg       Config
	launcher  Launcher
	liveness  *LivenessChecker
	throttler *Throttler // nil if disabled
	rotator   *Rotator
	j         Journaler

	pid int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSupervisor creates a new supervisor. The sink is the daemon log that the
// journaler writes into; it is reopened on rotation and may be nil. The
// configuration must already be valid.
func NewSupervisor(
	cfg Config, l Launcher, table ProcessTable, sink Reopener, j Journaler) *Supervisor {

	return &Supervisor{
		cfg:       cfg,
		launcher:  l,
		liveness:  NewLivenessChecker(table, j),
		throttler: NewThrottler(cfg, l, j),
		rotator:   NewRotator(cfg, sink, j),
		j:         j,
		pid:       exec.NoPID,
		now:       time.Now,
		sleep:     sleep,
	}
}

// PID returns the PID of the tracked process, or exec.NoPID.
func (s *Supervisor) PID() int {
	return s.pid
}

// Takeover starts tracking a process started by a previous supervisor. Whether
// it is still alive is decided on the next tick. It must be called before Run.
func (s *Supervisor) Takeover(pid int) {
	if pid <= 0 {
		return
	}

	s.pid = pid
	s.j.Write(EventProcessTakeover{PID: pid})
}

// Run ticks until the context is canceled. The tracked process is left
// running when Run returns. Run never returns an error other than nil; it has
// one for the caller's convenience.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		d := s.Tick(ctx)

		if err := s.sleep(ctx, d); err != nil {
			s.j.Write(EventSupervisorStopped{
				PID:    s.pid,
				Reason: err.Error(),
			})
			return nil
		}
	}
}

// Tick performs a single iteration of the loop and returns how long to sleep
// before the next one.
func (s *Supervisor) Tick(ctx context.Context) time.Duration {
	if _, err := s.rotator.RotateIfNeeded(s.now()); err != nil {
		s.j.Write(EventWarning{
			Component: "rotator",
			Error:     err.Error(),
		})
	}

	if s.liveness.IsAlive(ctx, s.pid) {
		s.j.Write(EventProcessExists{PID: s.pid})
		s.j.Write(EventProcessWait{
			Interval: s.cfg.WaitInterval,
			Unit:     s.cfg.TimeUnit,
		})
		return s.cfg.WaitDuration()
	}

	// A canceled query says nothing about the process.
	if ctx.Err() != nil {
		return 0
	}

	s.spawn()

	s.j.Write(EventSpawnWait{
		Interval: s.cfg.SpawnInterval,
		Unit:     s.cfg.TimeUnit,
	})
	return s.cfg.SpawnDuration()
}

func (s *Supervisor) spawn() {
	pid, err := s.launcher.Launch(s.cfg.Command, s.cfg.CommandLogPath(), s.cfg.WorkDir)
	if err != nil {
		s.pid = exec.NoPID
		s.j.Write(EventProcessSpawnError{
			Command: s.cfg.Command,
			Reason:  err.Error(),
		})
		return
	}

	s.pid = pid
	s.j.Write(EventProcessSpawned{PID: pid})

	if s.throttler != nil {
		// Failures are journaled by Apply.
		s.throttler.Apply(pid)
	}
}

// sleep blocks for d or until ctx is canceled, in which case the context error
// is returned.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
