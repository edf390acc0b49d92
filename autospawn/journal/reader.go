package journal

import (
	"io"
	"os"

	"git.unix.lgbt/diamondburned/autospawn/autospawn"
	"git.unix.lgbt/diamondburned/autospawn/autospawn/journal/backwardio"
	"github.com/pkg/errors"
)

// ReadPreviousPIDFromFile reads the daemon log at path backwards and returns
// the PID the supervisor that wrote it was tracking last. Zero is returned if
// the log does not exist or tracks nothing.
func ReadPreviousPIDFromFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to open journal")
	}
	defer f.Close()

	return ReadPreviousPID(f)
}

// ReadPreviousPID reads the given journal backwards and returns the PID that was
// tracked last.
func ReadPreviousPID(r io.ReadSeeker) (int, error) {
	return autospawn.ReadPreviousPID(backwardio.NewScanner(r))
}
