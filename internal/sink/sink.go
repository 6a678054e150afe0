// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/relabs-tech/cube_viewer/internal/orientation"
	"github.com/relabs-tech/cube_viewer/internal/scene"
)

// ErrDomain is returned when no pitch can be derived from a sample.
var ErrDomain = errors.New("sink: pitch undefined for sample")

// LineFormat is the console diagnostic written for every applied sample.
const LineFormat = "w = %+2.3f     x = %+2.3f     y = %+2.3f     z = %+2.3f     pitch = %+1.3f\n"

// Sink applies samples to one scene node and echoes them to out.
type Sink struct {
	node *scene.Node
	out  io.Writer
}

func New(node *scene.Node, out io.Writer) *Sink {
	return &Sink{node: node, out: out}
}

// Apply replaces the node transform with the rotation for q and writes
// the diagnostic line. Samples with an undefined pitch are rejected with
// ErrDomain before anything changes.
func (s *Sink) Apply(q orientation.Quaternion) error {
	pitch := orientation.Pitch(q)
	if math.IsNaN(pitch) {
		return ErrDomain
	}

	s.node.SetTransform(orientation.NewTransform(q))

	if _, err := fmt.Fprintf(s.out, LineFormat, q.W(), q.X(), q.Y(), q.Z(), pitch); err != nil {
		return fmt.Errorf("sink: write diagnostic: %w", err)
	}
	return nil
}
