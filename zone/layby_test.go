package zone

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/vision"
)

// school sits right of center, low enough to qualify.
var school = detection.Detection{Label: detection.LabelSchool, X: 220, Y: 40, Width: 30, Height: 30, Score: 0.8}

// scripted returns a different segment set per call and nothing once the
// script runs out.
func scripted(frames ...[]vision.Segment) vision.SegmentExtractor {
	i := 0
	return vision.ExtractorFunc(func(gocv.Mat) []vision.Segment {
		if i >= len(frames) {
			return nil
		}
		segs := frames[i]
		i++
		return segs
	})
}

func enterLayby(t *testing.T, l *Layby) {
	t.Helper()
	for i := 0; i < 3; i++ {
		require.False(t, l.Process(newFrame(school)))
	}
	require.True(t, l.Process(newFrame(school)))
}

func TestLaybyNeedsFourHits(t *testing.T) {
	l := NewLayby(DefaultLaybyConfig(), vision.StaticExtractor{})
	enterLayby(t, l)

	assert.True(t, l.Active())
	assert.False(t, l.LeftEnable())
}

func TestLaybyCollapsesTowardSignedSide(t *testing.T) {
	l := NewLayby(DefaultLaybyConfig(), vision.StaticExtractor{})
	enterLayby(t, l)

	f := newFrame()
	f.Edges.Right = f.Edges.Right[:150]
	require.True(t, l.Process(f))

	require.Len(t, f.Edges.Left, 150)
	require.Len(t, f.Edges.Right, 150)
	for _, p := range f.Edges.Left {
		assert.Equal(t, 160, p.Col)
	}
	for _, p := range f.Edges.Right {
		assert.Equal(t, 260, p.Col)
	}
}

func TestLaybyStopPolicy(t *testing.T) {
	near := vision.Seg(170, 60, 300, 62)
	fragment := vision.Seg(180, 64, 250, 64)
	far := vision.Seg(170, 100, 300, 102)
	steep := vision.Seg(170, 80, 200, 140)
	leftOfLane := vision.Seg(100, 150, 300, 150)
	stopLine := vision.Seg(170, 120, 300, 122)

	l := NewLayby(DefaultLaybyConfig(), scripted(
		[]vision.Segment{far, near, fragment, steep, leftOfLane},
		[]vision.Segment{stopLine},
	))
	enterLayby(t, l)

	require.True(t, l.Process(newFrame()))
	merged := l.MergedLines()
	require.Len(t, merged, 2)
	assert.Equal(t, vision.Seg(170, 62, 300, 62), merged[0], "fragment widened and averaged into the near line")
	assert.True(t, l.Searching())
	assert.False(t, l.StopEnabled())

	require.True(t, l.Process(newFrame()))
	assert.True(t, l.StopEnabled())
	assert.False(t, l.Searching())
}

func TestLaybyLeavesExtractorSegmentsUntouched(t *testing.T) {
	shared := []vision.Segment{
		vision.Seg(170, 100, 300, 102),
		vision.Seg(170, 60, 300, 62),
		vision.Seg(180, 64, 250, 64),
	}
	before := slices.Clone(shared)
	l := NewLayby(DefaultLaybyConfig(), vision.ExtractorFunc(func(gocv.Mat) []vision.Segment {
		return shared
	}))
	enterLayby(t, l)

	require.True(t, l.Process(newFrame()))
	require.Len(t, l.MergedLines(), 2)
	assert.Equal(t, before, shared)
}

func TestLaybyLoneLineAboveMomentDoesNotStop(t *testing.T) {
	l := NewLayby(DefaultLaybyConfig(), scripted(
		[]vision.Segment{vision.Seg(170, 60, 300, 60), vision.Seg(170, 100, 300, 100)},
		[]vision.Segment{vision.Seg(170, 90, 300, 90)},
	))
	enterLayby(t, l)

	l.Process(newFrame())
	l.Process(newFrame())

	assert.True(t, l.Searching())
	assert.False(t, l.StopEnabled())
}

func TestLaybyFrameBudgetClearsEverything(t *testing.T) {
	l := NewLayby(DefaultLaybyConfig(), vision.StaticExtractor{vision.Seg(170, 60, 300, 60)})
	enterLayby(t, l)

	for frame := 1; frame <= 40; frame++ {
		require.True(t, l.Process(newFrame()))
		require.True(t, l.Active(), "frame %d", frame)
	}
	assert.True(t, l.Process(newFrame()))

	assert.False(t, l.Active())
	assert.False(t, l.StopEnabled())
	assert.False(t, l.Searching())
	assert.Empty(t, l.MergedLines())
	assert.False(t, l.Process(newFrame()))
}
