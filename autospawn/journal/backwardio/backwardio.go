// Package backwardio implements a buffered scanner that scans backwards.
package backwardio

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

var maxTok = bufio.MaxScanTokenSize

// Scanner reads delimited tokens starting from the end of the reader, similar
// to bufio.Scanner except that things are scanned backwards.
type Scanner struct {
	r   io.ReadSeeker
	buf []byte
	end int64 // last seeked, bound size for buf
}

// NewScanner creates a new backwards scanner. The scanner seeks the reader
// freely; the caller must not use the reader concurrently.
func NewScanner(r io.ReadSeeker) *Scanner {
	return &Scanner{r: r}
}

// ReadLine reads the previous line with its trailing carriage return trimmed.
// io.EOF is returned once the start of the reader has been reached.
func (s *Scanner) ReadLine() (string, error) {
	b, err := s.ReadUntil('\n')
	if err != nil {
		return "", err
	}

	return string(bytes.TrimSuffix(b, []byte("\r"))), nil
}

// ReadUntil reads backwards until the delimiter is encountered. The returned
// token does not contain the delimiter.
func (s *Scanner) ReadUntil(delim byte) ([]byte, error) {
	for {
		if s.buf == nil {
			goto fill
		}

		// Seek backwards the buffer until we find a delimiter.
		for i := len(s.buf) - 1; i >= 0; i-- {
			isBOF := i == 0 && s.end == 0

			if s.buf[i] != delim && !isBOF {
				continue
			}

			tok := s.buf[i:]
			s.buf = s.buf[:i]

			if len(tok) > 0 && tok[0] == delim {
				tok = tok[1:] // trim prefix delim

				// A delimiter at the very start of the reader leaves an empty
				// token before it, which is returned on the next call.
				if isBOF && len(tok) > 0 {
					s.buf = s.buf[:1]
				}
			}

			return tok, nil
		}

		if len(s.buf) == cap(s.buf) {
			// The whole buffer was scanned without finding a delimiter, so
			// filling it further won't do anything.
			return nil, bufio.ErrTooLong
		}

	fill:
		if err := s.fill(); err != nil {
			return nil, err
		}
	}
}

func (s *Scanner) fill() error {
	if s.buf == nil {
		o, err := s.r.Seek(0, io.SeekEnd)
		if err != nil {
			return errors.Wrap(err, "failed to find end of file")
		}

		s.end = o
		s.buf = make([]byte, 0, maxTok)
	}

	if s.end == 0 {
		return io.EOF
	}

	max := int64(cap(s.buf))

	if len(s.buf) > 0 {
		// Keep what has not been consumed yet at the end of the buffer and
		// read the new chunk in front of it.
		max -= int64(len(s.buf))
		s.buf = s.buf[:cap(s.buf)]
		copy(s.buf[max:], s.buf)
	}

	seekTo := s.end - max
	min := int64(0)

	// Near the start of the reader the chunk may not fill the buffer, so read
	// into the tail end of the free region instead.
	if seekTo < 0 {
		seekTo = 0
		min = max - s.end
	}

	if _, err := s.r.Seek(seekTo, io.SeekStart); err != nil {
		return errors.Wrap(err, "failed to seek backwards")
	}

	s.end = seekTo

	if _, err := io.ReadFull(s.r, s.buf[min:max]); err != nil {
		return errors.Wrap(err, "failed to read seeked chunk")
	}

	s.buf = s.buf[min:cap(s.buf)]

	return nil
}
