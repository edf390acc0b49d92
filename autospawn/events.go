package autospawn

import (
	"fmt"
	"path/filepath"
)

// eventType describes an event type.
type eventType = string

const (
	eventWarning           eventType = "warning"
	eventAcquired          eventType = "acquired lock"
	eventProcessTakeover   eventType = "process takeover"
	eventProcessSpawned    eventType = "process spawned"
	eventProcessSpawnErr   eventType = "process spawn error"
	eventProcessExists     eventType = "process exists"
	eventSpawnWait         eventType = "spawn wait"
	eventProcessWait       eventType = "process wait"
	eventThrottleApplied   eventType = "throttle applied"
	eventThrottleError     eventType = "throttle error"
	eventLogRotated        eventType = "log rotated"
	eventSupervisorStopped eventType = "supervisor stopped"
)

// Event is an interface describing known events. String returns the line that
// is written into the daemon log.
type Event interface {
	fmt.Stringer
	Type() string
	event()
}

// EventWarning is emitted when a non-fatal error occurs.
type EventWarning struct {
	Component string
	Error     string
}

func (ev EventWarning) Type() string { return eventWarning }
func (ev EventWarning) event()       {}

func (ev EventWarning) String() string {
	return fmt.Sprintf("Warning from %s: %s", ev.Component, ev.Error)
}

// EventAcquired is emitted when the instance lock on the log folder is
// acquired, which is on startup.
type EventAcquired struct {
	LockFile string
}

func (ev EventAcquired) Type() string { return eventAcquired }
func (ev EventAcquired) event()       {}

func (ev EventAcquired) String() string {
	return fmt.Sprintf("Acquired lock %s", ev.LockFile)
}

// EventProcessTakeover is emitted on startup when the PID tracked by a previous
// supervisor is taken over.
type EventProcessTakeover struct {
	PID int
}

func (ev EventProcessTakeover) Type() string { return eventProcessTakeover }
func (ev EventProcessTakeover) event()       {}

func (ev EventProcessTakeover) String() string {
	return fmt.Sprintf("Taking over process with PID #%d", ev.PID)
}

// EventProcessSpawned is emitted when a process has been started.
type EventProcessSpawned struct {
	PID int
}

func (ev EventProcessSpawned) Type() string { return eventProcessSpawned }
func (ev EventProcessSpawned) event()       {}

func (ev EventProcessSpawned) String() string {
	return fmt.Sprintf("Started running a process with PID #%d", ev.PID)
}

// EventProcessSpawnError is emitted when a process fails to start for any
// reason.
type EventProcessSpawnError struct {
	Command string
	Reason  string
}

func (ev EventProcessSpawnError) Type() string { return eventProcessSpawnErr }
func (ev EventProcessSpawnError) event()       {}

func (ev EventProcessSpawnError) String() string {
	return fmt.Sprintf("Failed to start %q: %s", ev.Command, ev.Reason)
}

// EventProcessExists is emitted when the tracked process is still running.
type EventProcessExists struct {
	PID int
}

func (ev EventProcessExists) Type() string { return eventProcessExists }
func (ev EventProcessExists) event()       {}

func (ev EventProcessExists) String() string {
	return fmt.Sprintf("Process with PID #%d already exists", ev.PID)
}

// EventSpawnWait is emitted before sleeping for the spawn interval.
type EventSpawnWait struct {
	Interval int
	Unit     TimeUnit
}

func (ev EventSpawnWait) Type() string { return eventSpawnWait }
func (ev EventSpawnWait) event()       {}

func (ev EventSpawnWait) String() string {
	return fmt.Sprintf("Waiting %d %s to spawn", ev.Interval, ev.Unit.Name())
}

// EventProcessWait is emitted before sleeping for the wait interval.
type EventProcessWait struct {
	Interval int
	Unit     TimeUnit
}

func (ev EventProcessWait) Type() string { return eventProcessWait }
func (ev EventProcessWait) event()       {}

func (ev EventProcessWait) String() string {
	return fmt.Sprintf("Waiting %d %s to complete previous process", ev.Interval, ev.Unit.Name())
}

// EventThrottleApplied is emitted when the throttling command has been
// started. Its own PID is informational only.
type EventThrottleApplied struct {
	PID         int
	Limit       int
	ThrottlePID int
}

func (ev EventThrottleApplied) Type() string { return eventThrottleApplied }
func (ev EventThrottleApplied) event()       {}

func (ev EventThrottleApplied) String() string {
	return fmt.Sprintf("Limiting CPU of PID #%d to %d%% (throttle PID #%d)", ev.PID, ev.Limit, ev.ThrottlePID)
}

// EventThrottleError is emitted when the throttling command fails to start.
type EventThrottleError struct {
	PID    int
	Reason string
}

func (ev EventThrottleError) Type() string { return eventThrottleError }
func (ev EventThrottleError) event()       {}

func (ev EventThrottleError) String() string {
	return fmt.Sprintf("Failed to limit CPU of PID #%d: %s", ev.PID, ev.Reason)
}

// EventLogRotated is emitted into the fresh daemon log after a rotation.
type EventLogRotated struct {
	From string
	To   string
}

func (ev EventLogRotated) Type() string { return eventLogRotated }
func (ev EventLogRotated) event()       {}

func (ev EventLogRotated) String() string {
	return fmt.Sprintf("Rotated file %s to %s in folder %s",
		filepath.Base(ev.From), filepath.Base(ev.To), filepath.Dir(ev.From))
}

// EventSupervisorStopped is emitted when the supervisor loop exits because it
// was interrupted. The tracked process is left running.
type EventSupervisorStopped struct {
	PID    int
	Reason string
}

func (ev EventSupervisorStopped) Type() string { return eventSupervisorStopped }
func (ev EventSupervisorStopped) event()       {}

func (ev EventSupervisorStopped) String() string {
	if ev.PID > 0 {
		return fmt.Sprintf("Stopping (%s), leaving process with PID #%d running", ev.Reason, ev.PID)
	}
	return fmt.Sprintf("Stopping (%s)", ev.Reason)
}
