package journal

import (
	"io"
	"strings"
	"sync"

	"git.unix.lgbt/diamondburned/autospawn/autospawn"
)

type recordJournal struct {
	mu     sync.Mutex
	events []autospawn.Event
}

func (j *recordJournal) Write(ev autospawn.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = append(j.events, ev)
	return nil
}

func stringsReader(s string) io.ReadSeeker {
	return strings.NewReader(s)
}
