package serialport

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/cube_viewer/internal/orientation"
)

const defaultMockInterval = 20 * time.Millisecond

// openMock returns a port that streams lines from the mock orientation
// source, formatted the way the sensor firmware sends them.
func openMock(opts Options) (io.ReadCloser, error) {
	interval := opts.MockInterval
	if interval <= 0 {
		interval = defaultMockInterval
	}
	return NewMockPort(orientation.NewMockSource(), interval), nil
}

// NewMockPort streams one "w x y z" line per interval from src until the
// returned port is closed.
func NewMockPort(src orientation.Source, interval time.Duration) io.ReadCloser {
	r, w := io.Pipe()

	go func() {
		defer w.Close()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			q, err := src.Next()
			if err != nil {
				log.Printf("serial: mock source error: %v", err)
				w.CloseWithError(err)
				return
			}
			// the device reports in its own frame; the parser flips it back
			line := fmt.Sprintf("%.4f %.4f %.4f %.4f\n", q.W(), -q.X(), -q.Y(), -q.Z())
			if _, err := io.WriteString(w, line); err != nil {
				// reader closed
				return
			}
		}
	}()

	return r
}
