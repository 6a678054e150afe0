// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock orientation source that rocks the sensor
// back and forth about its pitch axis, the one motion the pitch estimate
// handles exactly.
func NewMockSource() Source {
	return &mockSource{start: time.Now(), now: time.Now}
}

func (m *mockSource) Next() (Quaternion, error) {
	elapsed := m.now().Sub(m.start).Seconds()

	// ±45° swing, half-angle in the quaternion
	angle := (math.Pi / 4) * math.Sin(elapsed*0.7)
	return NewQuaternion(math.Cos(angle/2), 0, math.Sin(angle/2), 0), nil
}
