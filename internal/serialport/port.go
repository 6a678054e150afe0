// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package serialport

import (
	"errors"
	"fmt"
	"io"
	"time"

	jacobsa "github.com/jacobsa/go-serial/serial"
	bugst "go.bug.st/serial"
)

// Driver names accepted in Options.Driver.
const (
	DriverBugst   = "bugst"
	DriverJacobsa = "jacobsa"
	DriverMock    = "mock"
)

// DefaultBaudRate is the rate the sensor firmware streams at.
const DefaultBaudRate = 1000000

// ErrOpen wraps every failure to open the device.
var ErrOpen = errors.New("unable to open serial port")

// Options describes the one serial session the viewer runs.
type Options struct {
	Driver      string
	PortName    string
	BaudRate    int
	ReadTimeout time.Duration

	// MockInterval is the sample period of the mock driver.
	MockInterval time.Duration
}

// Opener opens a port for the given options.
type Opener func(opts Options) (io.ReadCloser, error)

var openers = map[string]Opener{
	DriverBugst:   openBugst,
	DriverJacobsa: openJacobsa,
	DriverMock:    openMock,
}

// Open opens the device described by opts. Errors wrap ErrOpen.
func Open(opts Options) (io.ReadCloser, error) {
	if opts.Driver == "" {
		opts.Driver = DriverBugst
	}
	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}

	open, ok := openers[opts.Driver]
	if !ok {
		return nil, fmt.Errorf("%w: unknown driver %q", ErrOpen, opts.Driver)
	}

	port, err := open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOpen, opts.PortName, err)
	}
	return port, nil
}

// openBugst uses go.bug.st/serial, which supports millisecond read
// timeouts. A timed-out read returns (0, nil); LineReader retries it.
func openBugst(opts Options) (io.ReadCloser, error) {
	mode := &bugst.Mode{
		BaudRate: opts.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	port, err := bugst.Open(opts.PortName, mode)
	if err != nil {
		return nil, err
	}

	if opts.ReadTimeout > 0 {
		if err := port.SetReadTimeout(opts.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}
	return port, nil
}

// openJacobsa uses github.com/jacobsa/go-serial. Its inter-character
// timeout has 100ms granularity and an expired timeout reads as EOF, so
// the port is opened in plain blocking mode and ReadTimeout is ignored.
func openJacobsa(opts Options) (io.ReadCloser, error) {
	serialOpts := jacobsa.OpenOptions{
		PortName:              opts.PortName,
		BaudRate:              uint(opts.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            jacobsa.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	return jacobsa.Open(serialOpts)
}
