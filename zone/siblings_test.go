package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackpilot/detection"
	"trackpilot/lane"
)

func TestBridgeHoldsForFixedFrames(t *testing.T) {
	b := NewBridge(DefaultBridgeConfig())
	sign := detection.Detection{Label: detection.LabelBridge, X: 140, Y: 40, Width: 40, Height: 30, Score: 0.9}

	assert.False(t, b.Process(newFrame(sign)))
	assert.False(t, b.Process(newFrame(sign)))
	assert.True(t, b.Process(newFrame(sign)))

	for frame := 1; frame <= 40; frame++ {
		require.True(t, b.Process(newFrame()), "frame %d", frame)
	}
	assert.False(t, b.Process(newFrame()))
	assert.False(t, b.Active())
}

func TestStopAreaCountsTowardExit(t *testing.T) {
	s := NewStopArea(DefaultStopAreaConfig())
	crosswalk := detection.Detection{Label: detection.LabelCrosswalk, X: 100, Y: 100, Width: 120, Height: 40, Score: 0.8}
	high := crosswalk
	high.Y = 40

	for i := 0; i < 8; i++ {
		assert.False(t, s.Process(newFrame(high)), "box bottom above half height never qualifies")
	}

	s.Process(newFrame(crosswalk))
	s.Process(newFrame(crosswalk))
	require.True(t, s.Process(newFrame(crosswalk)))

	for i := 1; i <= 20; i++ {
		assert.True(t, s.Process(newFrame()))
		assert.False(t, s.ExitRequested(), "frame %d", i)
	}
	assert.True(t, s.Process(newFrame()))
	assert.True(t, s.ExitRequested())
	assert.Equal(t, 21, s.CountExit())
}

func TestObstacleShiftsBlockedEdge(t *testing.T) {
	o := NewObstacle(DefaultObstacleConfig())
	cone := detection.Detection{Label: detection.LabelCone, X: 80, Y: 150, Width: 40, Height: 40, Score: 0.8}

	f := newFrame(cone)
	require.True(t, o.Process(f))

	for _, p := range f.Edges.Left {
		if p.Row <= 190 {
			assert.Equal(t, 128, p.Col, "row %d", p.Row)
		} else {
			assert.Equal(t, 60, p.Col, "row %d", p.Row)
		}
	}
	for _, p := range f.Edges.Right {
		assert.Equal(t, 260, p.Col)
	}
}

func TestObstaclePicksNearestAndShiftsRight(t *testing.T) {
	o := NewObstacle(DefaultObstacleConfig())
	far := detection.Detection{Label: detection.LabelBlock, X: 80, Y: 100, Width: 40, Height: 20, Score: 0.8}
	near := detection.Detection{Label: detection.LabelPedestrian, X: 200, Y: 160, Width: 30, Height: 50, Score: 0.9}

	f := newFrame(far, near)
	require.True(t, o.Process(f))

	assert.Equal(t, 192, f.Edges.Right[len(f.Edges.Right)-1].Col)
	assert.Equal(t, 60, f.Edges.Left[len(f.Edges.Left)-1].Col)
}

func TestObstacleIgnoresWeakOrOutsideObjects(t *testing.T) {
	o := NewObstacle(DefaultObstacleConfig())
	weak := detection.Detection{Label: detection.LabelCone, X: 80, Y: 150, Width: 40, Height: 40, Score: 0.4}
	outside := detection.Detection{Label: detection.LabelCone, X: 10, Y: 150, Width: 30, Height: 40, Score: 0.9}
	farAway := detection.Detection{Label: detection.LabelCone, X: 140, Y: 20, Width: 30, Height: 30, Score: 0.9}

	f := newFrame(weak, outside, farAway)
	before := f.Edges.Clone()

	assert.False(t, o.Process(f))
	assert.False(t, o.Active())
	assert.Equal(t, before, *f.Edges)
}

// openRows marks rows [from, to) of the sequence as lost at col.
func openRows(pts []lane.EdgePoint, from, to, col int) {
	for i := from; i < to; i++ {
		pts[i].Col = col
	}
}

func TestCrossroadRepairsBothEdges(t *testing.T) {
	c := NewCrossroad(DefaultCrossroadConfig())
	f := newFrame()
	openRows(f.Edges.Left, 50, 70, 0)
	openRows(f.Edges.Right, 50, 70, testW-1)

	require.True(t, c.Process(f))

	want := straightEdges()
	assert.Equal(t, *want, *f.Edges)
}

func TestCrossroadNeedsEnoughLostRows(t *testing.T) {
	c := NewCrossroad(DefaultCrossroadConfig())
	f := newFrame()
	openRows(f.Edges.Left, 50, 60, 0)
	openRows(f.Edges.Right, 50, 60, testW-1)

	assert.False(t, c.Process(f))
	assert.Equal(t, 0, f.Edges.Left[55].Col)
}

func TestRingRebuildsOpenSide(t *testing.T) {
	r := NewRing(DefaultRingConfig())
	openLeft := func() *Frame {
		f := newFrame()
		openRows(f.Edges.Left, 60, 80, 0)
		return f
	}

	assert.False(t, r.Process(openLeft()))
	assert.False(t, r.Process(openLeft()))
	f := openLeft()
	require.True(t, r.Process(f))
	assert.True(t, r.LeftOpen())

	for _, p := range f.Edges.Left {
		assert.Equal(t, 60, p.Col)
	}
}

func TestRingIgnoresCrossroadPattern(t *testing.T) {
	r := NewRing(DefaultRingConfig())
	for i := 0; i < 10; i++ {
		f := newFrame()
		openRows(f.Edges.Left, 60, 80, 0)
		openRows(f.Edges.Right, 60, 80, testW-1)
		assert.False(t, r.Process(f))
	}
	assert.False(t, r.Active())
}

func TestRingHoldExpires(t *testing.T) {
	cfg := DefaultRingConfig()
	cfg.HoldFrames = 3
	r := NewRing(cfg)
	for i := 0; i < 3; i++ {
		f := newFrame()
		openRows(f.Edges.Right, 60, 80, testW-1)
		r.Process(f)
	}
	require.True(t, r.Active())
	assert.False(t, r.LeftOpen())

	for i := 0; i < 3; i++ {
		assert.True(t, r.Process(newFrame()))
	}
	assert.False(t, r.Process(newFrame()))
	assert.False(t, r.Active())
}
