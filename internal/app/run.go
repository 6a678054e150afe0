// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/cube_viewer/internal/config"
	"github.com/relabs-tech/cube_viewer/internal/sample"
	"github.com/relabs-tech/cube_viewer/internal/scene"
	"github.com/relabs-tech/cube_viewer/internal/serialport"
	"github.com/relabs-tech/cube_viewer/internal/sink"
)

// CubeNode is the name of the one renderable node.
const CubeNode = "cube"

// Terminal diagnostics, written to the error stream before exiting 1.
const (
	msgOpenFailed = "Unable to open the serial port. Exiting."
	msgLostComm   = "Lost communication with the serial port. Exiting."
)

// Options carries what the viewer needs from its caller.
type Options struct {
	Config   *config.Config
	Open     serialport.Opener
	Stdout   io.Writer
	Stderr   io.Writer
	Registry *prometheus.Registry
}

// RunViewer opens the sensor, starts the enabled outer surfaces and runs
// the ingestion loop. It returns the process exit status: 0 after an
// operator shutdown (ctx cancelled), 1 when the port cannot be opened or
// the stream ends.
func RunViewer(ctx context.Context, opts Options) int {
	cfg := opts.Config
	open := opts.Open
	if open == nil {
		open = serialport.Open
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	port, err := open(serialport.Options{
		Driver:       cfg.SerialDriver,
		PortName:     cfg.SerialPort,
		BaudRate:     cfg.SerialBaudRate,
		ReadTimeout:  time.Duration(cfg.SerialReadTimeoutMs) * time.Millisecond,
		MockInterval: time.Duration(cfg.MockSampleInterval) * time.Millisecond,
	})
	if err != nil {
		logf("viewer: %v", err)
		fmt.Fprintln(opts.Stderr, msgOpenFailed)
		return 1
	}
	logf("viewer: serial port %s opened at %d baud (%s)", cfg.SerialPort, cfg.SerialBaudRate, cfg.SerialDriver)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// closing the port is the only way to unblock a pending read
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	sc := scene.New()
	sc.InitCamera()
	node, err := sc.AddNode(CubeNode)
	if err != nil {
		logf("viewer: %v", err)
		return 1
	}

	stats := sample.NewStats(reg)
	viewer := NewViewer(sink.New(node, opts.Stdout), stats)

	if err := startSurfaces(ctx, cfg, sc, viewer, reg); err != nil {
		logf("viewer: %v", err)
	}

	lines := serialport.NewLineReader(port)
	err = viewer.Run(ctx, lines.Lines())
	if errors.Is(err, ErrLostCommunication) {
		if rerr := lines.Err(); rerr != nil {
			logf("viewer: serial read: %v", rerr)
		}
		fmt.Fprintln(opts.Stderr, msgLostComm)
		return 1
	}

	logf("viewer: shutting down")
	return 0
}

// startSurfaces brings up the web viewer, MQTT publisher and OLED display
// as configured. A surface that fails to start is logged and skipped; the
// cube still turns on the others.
func startSurfaces(ctx context.Context, cfg *config.Config, sc *scene.Scene, v *Viewer, reg *prometheus.Registry) error {
	var errs []error

	if cfg.WebEnabled {
		web := NewWebViewer(sc, reg)
		v.OnReading(web.Offer)
		addr := fmt.Sprintf(":%d", cfg.WebServerPort)
		go func() {
			if err := web.ListenAndServe(ctx, addr); err != nil {
				logf("web: %v", err)
			}
		}()
	}

	if cfg.MQTTEnabled {
		pub, err := NewMQTTPublisher(NewMQTTClient(cfg.MQTTBroker, cfg.MQTTClientIDViewer), cfg.TopicOrientation)
		if err != nil {
			errs = append(errs, fmt.Errorf("mqtt: %w", err))
		} else {
			v.OnReading(pub.Offer)
			go pub.Run(ctx)
		}
	}

	if cfg.DisplayEnabled {
		disp := NewDisplayData()
		v.OnReading(disp.Offer)
		go func() {
			if err := RunDisplay(ctx, cfg, disp); err != nil {
				logf("display: %v", err)
			}
		}()
	}

	return errors.Join(errs...)
}
