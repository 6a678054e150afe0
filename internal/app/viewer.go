// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/cube_viewer/internal/orientation"
	"github.com/relabs-tech/cube_viewer/internal/sample"
	"github.com/relabs-tech/cube_viewer/internal/sink"
)

// ErrLostCommunication is returned when the serial stream ends on its own.
var ErrLostCommunication = errors.New("lost communication with the serial port")

// State of the read loop. RUNNING -> TERMINATED is one-way.
type State int

const (
	StateRunning State = iota
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// Reading is one applied sample, as handed to the outer surfaces.
type Reading struct {
	W     float64          `json:"w"`
	X     float64          `json:"x"`
	Y     float64          `json:"y"`
	Z     float64          `json:"z"`
	Pitch float64          `json:"pitch"`
	Pose  orientation.Pose `json:"pose"`
	Time  time.Time        `json:"time"`
}

// NewReading derives the published form of q.
func NewReading(q orientation.Quaternion, at time.Time) Reading {
	return Reading{
		W:     q.W(),
		X:     q.X(),
		Y:     q.Y(),
		Z:     q.Z(),
		Pitch: orientation.Pitch(q),
		Pose:  orientation.ToPose(q),
		Time:  at,
	}
}

// Quaternion returns the sample the reading was built from.
func (r Reading) Quaternion() orientation.Quaternion {
	return orientation.NewQuaternion(r.W, r.X, r.Y, r.Z)
}

// Viewer is the ingestion loop: line -> sample -> sink.
type Viewer struct {
	sink      *sink.Sink
	stats     *sample.Stats
	listeners []func(Reading)
	now       func() time.Time
	state     atomic.Int32
}

// NewViewer wires the loop to its sink. stats may be nil.
func NewViewer(s *sink.Sink, stats *sample.Stats) *Viewer {
	return &Viewer{sink: s, stats: stats, now: time.Now}
}

// OnReading registers fn to receive every applied sample. fn runs on the
// loop goroutine and must not block.
func (v *Viewer) OnReading(fn func(Reading)) {
	v.listeners = append(v.listeners, fn)
}

// State is safe to call from any goroutine.
func (v *Viewer) State() State { return State(v.state.Load()) }

// Run consumes lines until the sequence ends. Malformed lines and samples
// without a defined pitch are dropped. The return value is nil when ctx was
// cancelled (operator shutdown) and ErrLostCommunication otherwise.
func (v *Viewer) Run(ctx context.Context, lines iter.Seq[string]) error {
	v.state.Store(int32(StateRunning))
	defer v.state.Store(int32(StateTerminated))

	for line := range lines {
		if ctx.Err() != nil {
			break
		}

		res := sample.Parse(line)
		switch res.Kind {
		case sample.KindSkip:
			v.skipped(res.Reason)
			continue
		case sample.KindSample:
			v.apply(res.Quaternion)
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return ErrLostCommunication
}

func (v *Viewer) apply(q orientation.Quaternion) {
	err := v.sink.Apply(q)
	switch {
	case errors.Is(err, sink.ErrDomain):
		v.skipped(sample.ReasonDomain)
		return
	case err != nil:
		// the transform is already applied; only the echo failed
		logf("viewer: %v", err)
	}

	if v.stats != nil {
		v.stats.Parsed()
	}
	if len(v.listeners) == 0 {
		return
	}
	r := NewReading(q, v.now())
	for _, fn := range v.listeners {
		fn(r)
	}
}

func (v *Viewer) skipped(reason sample.SkipReason) {
	if v.stats != nil {
		v.stats.Skipped(reason)
	}
}
