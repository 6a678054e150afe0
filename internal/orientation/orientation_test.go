package orientation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitch_IdentityIsMinusHalfPi(t *testing.T) {
	got := Pitch(NewQuaternion(1.0, 0, 0.0, 0))
	assert.Equal(t, math.Acos(1.0)*2-math.Pi/2, got)
	assert.InDelta(t, -1.571, got, 0.0005)
}

func TestPitch_QuarterTurn(t *testing.T) {
	// w = 0.707, y = -0.707 -> acos(1/sqrt2)*2 - π/2 = 0
	got := Pitch(NewQuaternion(0.707, 0, -0.707, 0))
	assert.InDelta(t, 0.0, got, 1e-9)
}

func TestPitch_UndefinedWhenWAndYAreZero(t *testing.T) {
	assert.True(t, math.IsNaN(Pitch(NewQuaternion(0, 1, 0, 0))))
}

func TestNewTransform_Identity(t *testing.T) {
	tr := NewTransform(Identity())
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.Equal(t, want, tr.At(i, j), "element (%d,%d)", i, j)
		}
	}
}

func TestNewTransform_RotatesAboutZ(t *testing.T) {
	// 90° about z: x axis maps onto y axis
	h := math.Sqrt2 / 2
	tr := NewTransform(NewQuaternion(h, 0, 0, h))

	assert.InDelta(t, 0.0, tr.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, tr.At(1, 0), 1e-12)
	assert.InDelta(t, -1.0, tr.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, tr.At(2, 2), 1e-12)
}

func TestNewTransform_NormalizesAndHasNoTranslation(t *testing.T) {
	a := NewTransform(NewQuaternion(2, 0, 2, 0))
	b := NewTransform(NewQuaternion(1, 0, 1, 0))
	assert.InDeltaSlice(t, b.Elements(), a.Elements(), 1e-12)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, a.At(i, 3))
		assert.Equal(t, 0.0, a.At(3, i))
	}
	assert.Equal(t, 1.0, a.At(3, 3))
}

func TestNewTransform_ZeroQuaternionIsIdentity(t *testing.T) {
	assert.True(t, NewTransform(NewQuaternion(0, 0, 0, 0)).Equal(IdentityTransform()))
}

func TestTransform_ElementsAndClone(t *testing.T) {
	tr := NewTransform(NewQuaternion(0.9, 0.1, 0.3, 0.2))
	el := tr.Elements()
	require.Len(t, el, 16)
	assert.Equal(t, tr.At(1, 2), el[6])

	c := tr.Clone()
	assert.True(t, c.Equal(tr))

	var zero Transform
	assert.True(t, zero.Equal(IdentityTransform()))
}

func TestToPose_PitchOnly(t *testing.T) {
	angle := 30 * math.Pi / 180
	p := ToPose(NewQuaternion(math.Cos(angle/2), 0, math.Sin(angle/2), 0))
	assert.InDelta(t, 0.0, p.Roll, 1e-9)
	assert.InDelta(t, 30.0, p.Pitch, 1e-9)
	assert.InDelta(t, 0.0, p.Yaw, 1e-9)
}

func TestMockSource_StaysOnPitchAxis(t *testing.T) {
	start := time.Unix(0, 0)
	now := start
	src := &mockSource{start: start, now: func() time.Time { return now }}

	for i := 0; i < 20; i++ {
		now = start.Add(time.Duration(i) * 250 * time.Millisecond)
		q, err := src.Next()
		require.NoError(t, err)
		assert.InDelta(t, 1.0, q.Norm(), 1e-12)
		assert.Equal(t, 0.0, q.X())
		assert.Equal(t, 0.0, q.Z())
		assert.False(t, math.IsNaN(Pitch(q)))
	}
}
