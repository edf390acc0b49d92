package autospawn

import (
	"bytes"
	"io"
	"time"

	"github.com/pkg/errors"
)

// TimeFormat is the timestamp prefix of every journal line.
const TimeFormat = "2006-01-02 15:04:05.000"

// Journaler describes an event logger.
type Journaler interface {
	Write(Event) error
}

type writerJournaler struct {
	w   io.Writer
	now func() time.Time
}

// NewWriterJournaler creates a new journaler that writes one plain text line
// per event into the writer.
func NewWriterJournaler(w io.Writer) Journaler {
	return &writerJournaler{w, time.Now}
}

// Write writes the given event into the writer. Each event is written using a
// single Write call.
func (l *writerJournaler) Write(ev Event) error {
	buf := bytes.Buffer{}
	buf.Grow(128)

	buf.WriteString(l.now().Format(TimeFormat))
	buf.WriteByte(' ')
	buf.WriteString(ev.String())
	buf.WriteByte('\n')

	_, err := l.w.Write(buf.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to write event")
	}

	return nil
}

type multiJournaler []Journaler

// MultiJournaler creates a journaler that writes to multiple other journalers.
// Every journaler is written to even if an earlier one fails; the first error
// is returned.
func MultiJournaler(js ...Journaler) Journaler {
	return multiJournaler(js)
}

func (js multiJournaler) Write(ev Event) error {
	var firstErr error
	for _, j := range js {
		if err := j.Write(ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
