package exec

import (
	"context"
	"sync"
)

// FakeLauncher records launches instead of starting processes. It is used for
// testing. A zero-value instance hands out PIDs starting from 1.
type FakeLauncher struct {
	mu       sync.Mutex
	launches []Launch
	nextPID  int

	// Err, if not nil, is returned by every Launch call.
	Err error
	// PIDs, if not empty, are handed out in order before falling back to
	// counting up.
	PIDs []int
}

// Launch is a single recorded call to FakeLauncher.Launch.
type Launch struct {
	Command string
	LogFile string
	Dir     string
	PID     int
}

// Launch records the call and returns the next PID, or NoPID and Err.
func (l *FakeLauncher) Launch(command, logFile, dir string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	launch := Launch{Command: command, LogFile: logFile, Dir: dir, PID: NoPID}

	if l.Err != nil {
		l.launches = append(l.launches, launch)
		return NoPID, l.Err
	}

	if len(l.PIDs) > 0 {
		launch.PID = l.PIDs[0]
		l.PIDs = l.PIDs[1:]
	} else {
		l.nextPID++
		launch.PID = l.nextPID
	}

	l.launches = append(l.launches, launch)
	return launch.PID, nil
}

// Launches returns every recorded launch.
func (l *FakeLauncher) Launches() []Launch {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]Launch(nil), l.launches...)
}

// StaticTable is a process table with fixed contents. It is used for testing.
type StaticTable struct {
	mu      sync.Mutex
	entries []Entry
	queries int

	// Err, if not nil, is returned by every query.
	Err error
}

// NewStaticTable creates a table containing running processes with the given
// PIDs.
func NewStaticTable(pids ...int) *StaticTable {
	t := &StaticTable{}
	for _, pid := range pids {
		t.entries = append(t.entries, Entry{PID: pid, State: "S"})
	}
	return t
}

// Set replaces the table contents.
func (t *StaticTable) Set(entries ...Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append([]Entry(nil), entries...)
}

// Processes returns the table contents.
func (t *StaticTable) Processes(ctx context.Context) ([]Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.queries++

	if t.Err != nil {
		return nil, t.Err
	}

	return append([]Entry(nil), t.entries...), nil
}

// Queries returns how many times the table was queried.
func (t *StaticTable) Queries() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.queries
}
