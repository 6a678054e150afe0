package serialport

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"strings"
)

// LineReader turns a serial stream into a lazy sequence of text lines.
type LineReader struct {
	r   *bufio.Reader
	err error
}

// NewLineReader wraps r. Reads that return no data and no error (a
// driver read timeout) are retried, so they never end the sequence.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(retryReader{r: r})}
}

// Lines yields each line without its terminator. The sequence blocks
// until a full line is available and ends when the far end disconnects,
// the port is closed, or a read fails; Err reports which.
func (l *LineReader) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			line, err := l.r.ReadString('\n')
			if line != "" {
				if !yield(strings.TrimRight(line, "\r\n")) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					l.err = err
				}
				return
			}
		}
	}
}

// Err returns the read error that ended the sequence, or nil on a clean
// end of stream.
func (l *LineReader) Err() error {
	return l.err
}

type retryReader struct {
	r io.Reader
}

func (rr retryReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := rr.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}
