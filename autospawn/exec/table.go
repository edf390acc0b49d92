package exec

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Entry is a single row of the process table.
type Entry struct {
	PID   int
	State string // ps STAT column, e.g. "Ss" or "Z"
}

// Zombie returns true if the process has exited but was not reaped yet.
func (e Entry) Zombie() bool {
	return strings.HasPrefix(e.State, "Z")
}

// PSTable lists the process table using ps(1).
type PSTable struct {
	// Path is the ps binary. It defaults to "ps" looked up in $PATH.
	Path string
}

// Processes runs ps and parses its output.
func (t PSTable) Processes(ctx context.Context) ([]Entry, error) {
	path := t.Path
	if path == "" {
		path = "ps"
	}

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, path, "-e", "-o", "pid=,stat=")
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrapf(err, "failed to run ps: %s", msg)
		}
		return nil, errors.Wrap(err, "failed to run ps")
	}

	return ParseTable(bytes.NewReader(out))
}

// ParseTable parses lines of "<pid> [stat]". The PID must be the whole first
// field of a line; lines whose first field is not a number, such as headers,
// are skipped.
func ParseTable(r io.Reader) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		pid, err := strconv.Atoi(fields[0])
		if err != nil || pid <= 0 {
			continue
		}

		entry := Entry{PID: pid}
		if len(fields) > 1 {
			entry.State = fields[1]
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan process table")
	}

	return entries, nil
}
