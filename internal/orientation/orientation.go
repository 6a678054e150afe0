// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a rotation sample as received from the sensor: w is the
// scalar part, x/y/z the vector part. It is not required to be unit length.
type Quaternion quat.Number

// NewQuaternion builds a quaternion from its w, x, y, z components.
func NewQuaternion(w, x, y, z float64) Quaternion {
	return Quaternion{Real: w, Imag: x, Jmag: y, Kmag: z}
}

func (q Quaternion) W() float64 { return q.Real }
func (q Quaternion) X() float64 { return q.Imag }
func (q Quaternion) Y() float64 { return q.Jmag }
func (q Quaternion) Z() float64 { return q.Kmag }

// Norm returns the Euclidean length of q.
func (q Quaternion) Norm() float64 {
	return quat.Abs(quat.Number(q))
}

// Normalize returns q scaled to unit length. The zero quaternion is mapped
// to the identity rotation.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Identity()
	}
	return Quaternion(quat.Scale(1/n, quat.Number(q)))
}

// Identity is the quaternion for "no rotation".
func Identity() Quaternion {
	return Quaternion{Real: 1}
}

// Pitch estimates the pitch angle in radians from w and y only:
//
//	pitch = acos(w / sqrt(w² + y²)) * 2 - π/2
//
// The result is only meaningful for a normalized quaternion whose x and z
// are (near) zero, i.e. rotation about a single axis. The estimate comes
// from the sensor-side fusion contract and is kept as-is. A NaN result
// (w = y = 0) signals that no pitch can be derived.
func Pitch(q Quaternion) float64 {
	w, y := q.W(), q.Y()
	return math.Acos(w/math.Sqrt(w*w+y*y))*2 - math.Pi/2
}

// Transform is a 4x4 homogeneous transform, row-major.
type Transform struct {
	m *mat.Dense
}

// IdentityTransform returns the transform that leaves geometry unchanged.
func IdentityTransform() Transform {
	return NewTransform(Identity())
}

// NewTransform builds a rotation-only transform (zero translation, unit
// scale) from q. q is normalized first.
func NewTransform(q Quaternion) Transform {
	u := q.Normalize()
	w, x, y, z := u.W(), u.X(), u.Y(), u.Z()
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Transform{m: mat.NewDense(4, 4, []float64{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy), 0,
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx), 0,
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	})}
}

// At returns the element at row i, column j.
func (t Transform) At(i, j int) float64 {
	if t.m == nil {
		return IdentityTransform().At(i, j)
	}
	return t.m.At(i, j)
}

// Equal reports whether both transforms hold the same elements.
func (t Transform) Equal(o Transform) bool {
	return mat.Equal(t.dense(), o.dense())
}

// Elements returns a copy of the matrix in row-major order, the layout
// the web viewer hands to its renderer.
func (t Transform) Elements() []float64 {
	d := t.dense()
	out := make([]float64, 0, 16)
	for i := 0; i < 4; i++ {
		out = append(out, d.RawRowView(i)...)
	}
	return out
}

// Clone returns a deep copy of t.
func (t Transform) Clone() Transform {
	return Transform{m: mat.DenseCopyOf(t.dense())}
}

func (t Transform) dense() *mat.Dense {
	if t.m == nil {
		return IdentityTransform().m
	}
	return t.m
}

// Pose is roll/pitch/yaw in degrees, for display surfaces.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// ToPose converts q to aerospace (ZYX) Euler angles in degrees.
func ToPose(q Quaternion) Pose {
	u := q.Normalize()
	w, x, y, z := u.W(), u.X(), u.Y(), u.Z()

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	sinp := 2 * (w*y - z*x)
	// clamp for gimbal lock
	if sinp > 1 {
		sinp = 1
	} else if sinp < -1 {
		sinp = -1
	}
	pitch := math.Asin(sinp)

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return Pose{
		Roll:  roll * 180.0 / math.Pi,
		Pitch: pitch * 180.0 / math.Pi,
		Yaw:   yaw * 180.0 / math.Pi,
	}
}

// Source is anything that can provide orientation samples over time.
type Source interface {
	Next() (Quaternion, error)
}
