// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/cube_viewer/internal/config"
)

// DisplayData holds the latest reading for the OLED.
type DisplayData struct {
	mu       sync.RWMutex
	reading  Reading
	haveData bool
}

func NewDisplayData() *DisplayData {
	return &DisplayData{}
}

// Offer stores r; the display loop picks it up on its next tick.
func (d *DisplayData) Offer(r Reading) {
	d.mu.Lock()
	d.reading = r
	d.haveData = true
	d.mu.Unlock()
}

// Snapshot returns the latest reading and whether there is one.
func (d *DisplayData) Snapshot() (Reading, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reading, d.haveData
}

// RunDisplay drives a 128x64 SSD1306 on I2C with the latest reading until
// ctx is cancelled.
func RunDisplay(ctx context.Context, cfg *config.Config, data *DisplayData) error {
	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus; "" picks the first one
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: initialized on I2C bus %q", cfg.DisplayI2CBus)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r, have := data.Snapshot()
			img := renderReading(r, have)
			if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}

// renderReading lays out the quaternion and pitch in four text rows.
func renderReading(r Reading, haveData bool) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawString("Orientation")
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawString("Waiting...")
		return img
	}

	rows := []string{
		fmt.Sprintf("w%+6.3f x%+6.3f", r.W, r.X),
		fmt.Sprintf("y%+6.3f z%+6.3f", r.Y, r.Z),
		fmt.Sprintf("pitch %+1.3f", r.Pitch),
		fmt.Sprintf("R%4.0f P%4.0f Y%4.0f", r.Pose.Roll, r.Pose.Pitch, r.Pose.Yaw),
	}
	for i, row := range rows {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(row)
	}
	return img
}
