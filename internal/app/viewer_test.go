package app

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/cube_viewer/internal/orientation"
	"github.com/relabs-tech/cube_viewer/internal/sample"
	"github.com/relabs-tech/cube_viewer/internal/scene"
	"github.com/relabs-tech/cube_viewer/internal/sink"
)

func init() {
	logf = func(string, ...interface{}) {}
}

type viewerFixture struct {
	viewer *Viewer
	node   *scene.Node
	out    *bytes.Buffer
	reg    *prometheus.Registry
}

func newViewerFixture(t *testing.T) *viewerFixture {
	t.Helper()
	sc := scene.New()
	node, err := sc.AddNode(CubeNode)
	require.NoError(t, err)

	var out bytes.Buffer
	reg := prometheus.NewRegistry()
	v := NewViewer(sink.New(node, &out), sample.NewStats(reg))
	v.now = func() time.Time { return time.Unix(1700000000, 0) }
	return &viewerFixture{viewer: v, node: node, out: &out, reg: reg}
}

func (f *viewerFixture) counter(t *testing.T, name string) float64 {
	t.Helper()
	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestViewerRun_EndOfStreamIsLostCommunication(t *testing.T) {
	f := newViewerFixture(t)
	lines := slices.Values([]string{"1 0 0 0", "0.707 0.0 0.707 0.0"})

	err := f.viewer.Run(context.Background(), lines)
	assert.ErrorIs(t, err, ErrLostCommunication)
	assert.Equal(t, StateTerminated, f.viewer.State())

	got := strings.Split(strings.TrimSpace(f.out.String()), "\n")
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[1], "w = +0.707     x = -0.000     y = -0.707     z = -0.000     pitch = "))

	want := orientation.NewTransform(orientation.NewQuaternion(0.707, -0.0, -0.707, -0.0))
	assert.True(t, f.node.Transform().Equal(want))
}

func TestViewerRun_MalformedLinesAreSkipped(t *testing.T) {
	f := newViewerFixture(t)
	lines := slices.Values([]string{
		"abc 1 2 3",
		"1 0 0",
		"",
		"0 1 0 0", // pitch undefined
		"0.5 0.5 0.5 0.5",
		"1 0 0 0 0",
	})

	err := f.viewer.Run(context.Background(), lines)
	assert.ErrorIs(t, err, ErrLostCommunication)

	assert.Equal(t, 1, strings.Count(f.out.String(), "\n"))
	assert.Equal(t, 1.0, f.counter(t, "cube_viewer_samples_parsed_total"))
	assert.Equal(t, 5.0, f.counter(t, "cube_viewer_samples_skipped_total"))
}

func TestViewerRun_OnlyMalformedLeavesNodeAlone(t *testing.T) {
	f := newViewerFixture(t)
	var readings []Reading
	f.viewer.OnReading(func(r Reading) { readings = append(readings, r) })

	_ = f.viewer.Run(context.Background(), slices.Values([]string{"abc 1 2 3"}))

	assert.Empty(t, f.out.String())
	assert.Empty(t, readings)
	assert.True(t, f.node.Transform().Equal(orientation.IdentityTransform()))
}

func TestViewerRun_NonFiniteAndHexLinesNeverReachSurfaces(t *testing.T) {
	f := newViewerFixture(t)
	var readings []Reading
	f.viewer.OnReading(func(r Reading) { readings = append(readings, r) })

	err := f.viewer.Run(context.Background(), slices.Values([]string{
		"1 inf 0 0",
		"1 nan 0 0",
		"1 Infinity 0 0",
		"0x1p-1 0 0x1p-1 0",
	}))
	assert.ErrorIs(t, err, ErrLostCommunication)

	assert.Empty(t, f.out.String())
	assert.Empty(t, readings)
	assert.True(t, f.node.Transform().Equal(orientation.IdentityTransform()))
	assert.Equal(t, 4.0, f.counter(t, "cube_viewer_samples_skipped_total"))
	assert.Equal(t, 0.0, f.counter(t, "cube_viewer_samples_parsed_total"))
}

func TestViewerRun_SameSampleTwiceIsIdempotent(t *testing.T) {
	once := newViewerFixture(t)
	_ = once.viewer.Run(context.Background(), slices.Values([]string{"0.9 0.1 0.3 0.2"}))

	twice := newViewerFixture(t)
	_ = twice.viewer.Run(context.Background(), slices.Values([]string{"0.9 0.1 0.3 0.2", "0.9 0.1 0.3 0.2"}))

	assert.True(t, once.node.Transform().Equal(twice.node.Transform()))
}

func TestViewerRun_CancelledContextIsCleanExit(t *testing.T) {
	f := newViewerFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	lines := func(yield func(string) bool) {
		if !yield("1 0 0 0") {
			return
		}
		cancel()
		yield("0.5 0.5 0.5 0.5")
	}

	err := f.viewer.Run(ctx, lines)
	assert.NoError(t, err)
	assert.Equal(t, 1, strings.Count(f.out.String(), "\n"))
}

func TestViewerRun_NotifiesListeners(t *testing.T) {
	f := newViewerFixture(t)
	var readings []Reading
	f.viewer.OnReading(func(r Reading) { readings = append(readings, r) })

	_ = f.viewer.Run(context.Background(), slices.Values([]string{"1 0 0 0"}))

	require.Len(t, readings, 1)
	r := readings[0]
	assert.Equal(t, 1.0, r.W)
	assert.InDelta(t, -1.5708, r.Pitch, 1e-4)
	assert.Equal(t, time.Unix(1700000000, 0), r.Time)
	assert.Equal(t, orientation.NewQuaternion(1, -0.0, -0.0, -0.0), r.Quaternion())
}

func TestViewerState_ReadableWhileRunning(t *testing.T) {
	f := newViewerFixture(t)
	applied := make(chan struct{})
	release := make(chan struct{})
	f.viewer.OnReading(func(Reading) { close(applied) })

	lines := func(yield func(string) bool) {
		if !yield("1 0 0 0") {
			return
		}
		<-release
	}

	done := make(chan error, 1)
	go func() { done <- f.viewer.Run(context.Background(), lines) }()

	<-applied
	assert.Equal(t, StateRunning, f.viewer.State())
	close(release)
	assert.ErrorIs(t, <-done, ErrLostCommunication)
	assert.Equal(t, StateTerminated, f.viewer.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "TERMINATED", StateTerminated.String())
	assert.Equal(t, "UNKNOWN", State(7).String())
}
