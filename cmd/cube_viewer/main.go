// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/cube_viewer/internal/app"
	"github.com/relabs-tech/cube_viewer/internal/config"
	"github.com/relabs-tech/cube_viewer/internal/serialport"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults built in)")
	port := flag.String("port", "", "serial device, overrides SERIAL_PORT")
	baud := flag.Int("baud", 0, "baud rate, overrides SERIAL_BAUD_RATE")
	mock := flag.Bool("mock", false, "use the built-in mock sensor instead of a serial port")
	flag.Parse()

	// sample lines own stdout; diagnostics go to stderr
	log.SetOutput(os.Stderr)
	log.Println("starting cube viewer (serial → scene)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	if *port != "" {
		cfg.SerialPort = *port
	}
	if *baud > 0 {
		cfg.SerialBaudRate = *baud
	}
	if *mock {
		cfg.SerialDriver = serialport.DriverMock
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	// Ctrl+C plays the part of closing the window
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := app.RunViewer(ctx, app.Options{
		Config:   cfg,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Registry: reg,
	})
	stop()
	os.Exit(code)
}
