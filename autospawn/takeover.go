package autospawn

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LineReader reads journal lines from the newest to the oldest. io.EOF is
// returned once every line has been read.
type LineReader interface {
	ReadLine() (string, error)
}

var (
	// trackedPIDRe matches the lines that name the process tracked at the time
	// they were written.
	trackedPIDRe = regexp.MustCompile(`^(?:` +
		`Started running a process with PID #|` +
		`Taking over process with PID #|` +
		`Process with PID #|` +
		`Stopping \(.*\), leaving process with PID #` +
		`)(\d+)\b`)
	// spawnErrorRe matches the line written when nothing could be tracked.
	spawnErrorRe = regexp.MustCompile(`^Failed to start `)
)

// ReadPreviousPID finds the PID of the process tracked when the journal was
// last written to. Zero is returned if the journal does not track any process.
func ReadPreviousPID(r LineReader) (int, error) {
	for {
		line, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, nil
			}
			return 0, errors.Wrap(err, "failed to read journal")
		}

		msg := journalMessage(line)

		if spawnErrorRe.MatchString(msg) {
			return 0, nil
		}

		m := trackedPIDRe.FindStringSubmatch(msg)
		if m == nil {
			continue
		}

		pid, err := strconv.Atoi(m[1])
		if err != nil || pid <= 0 {
			continue
		}

		return pid, nil
	}
}

// journalMessage strips the timestamp off a journal line.
func journalMessage(line string) string {
	// The timestamp is formatted with TimeFormat, which has exactly one space.
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
