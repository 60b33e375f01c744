package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/vision"
)

// burger sits left of center with its bottom at 40% of the frame height.
var burger = detection.Detection{Label: detection.LabelBurger, X: 40, Y: 50, Width: 30, Height: 46, Score: 0.5}

func TestCateringEntersOnThirdQualifyingFrame(t *testing.T) {
	c := NewCatering(DefaultCateringConfig(), vision.StaticExtractor{})

	frames := [][]detection.Detection{{burger}, nil, {burger}, nil, {burger}}
	var got []bool
	for _, dets := range frames {
		got = append(got, c.Process(newFrame(dets...)))
	}

	assert.Equal(t, []bool{false, false, false, false, true}, got)
	assert.True(t, c.Active())
	assert.True(t, c.BurgerLeft())
	assert.True(t, c.NoRing())
	assert.NotEmpty(t, c.ManeuverID())
	assert.Equal(t, CateringTurning, c.Phase())
}

func TestCateringStaysIdleOnTwoOfEight(t *testing.T) {
	c := NewCatering(DefaultCateringConfig(), vision.StaticExtractor{})

	for i := 0; i < 8; i++ {
		var dets []detection.Detection
		if i < 2 {
			dets = []detection.Detection{burger}
		}
		assert.False(t, c.Process(newFrame(dets...)))
	}

	assert.False(t, c.Active())
	rec, session := c.debounce.Counters()
	assert.Zero(t, rec)
	assert.Zero(t, session)
}

func TestCateringSideFollowsSignCenter(t *testing.T) {
	c := NewCatering(DefaultCateringConfig(), vision.StaticExtractor{})
	right := burger
	right.X = 200

	for i := 0; i < 3; i++ {
		c.Process(newFrame(right))
	}

	require.True(t, c.Active())
	assert.False(t, c.BurgerLeft())
}

func enterCatering(t *testing.T, c *Catering) {
	t.Helper()
	for i := 0; i < 3; i++ {
		c.Process(newFrame(burger))
	}
	require.True(t, c.Active())
}

func TestCateringReplacesSignedEdgeWithLongestBranchLine(t *testing.T) {
	long := vision.Seg(0, 50, 100, 0)
	short := vision.Seg(10, 40, 30, 30)
	tooLow := vision.Seg(0, 120, 100, 70)
	wrongSlope := vision.Seg(0, 0, 100, 50)
	c := NewCatering(DefaultCateringConfig(), vision.StaticExtractor{short, long, tooLow, wrongSlope})
	enterCatering(t, c)

	f := newFrame()
	rightBefore := f.Edges.Clone().Right
	assert.True(t, c.Process(f))

	require.Len(t, f.Edges.Left, testW+1)
	assert.Equal(t, 0, f.Edges.Left[0].Col)
	assert.InDelta(t, 50, f.Edges.Left[0].Row, 1)
	assert.InDelta(t, 0, f.Edges.Left[100].Row, 1)
	assert.Equal(t, rightBefore, f.Edges.Right, "the opposite side is untouched")
}

func TestCateringKeepsEdgesWhenNoLineQualifies(t *testing.T) {
	c := NewCatering(DefaultCateringConfig(), vision.StaticExtractor{vision.Seg(0, 0, 100, 50)})
	enterCatering(t, c)

	f := newFrame()
	before := f.Edges.Clone()
	assert.True(t, c.Process(f))
	assert.Equal(t, before, *f.Edges)
}

func TestCateringTimeline(t *testing.T) {
	calls := 0
	ex := vision.ExtractorFunc(func(gocv.Mat) []vision.Segment {
		calls++
		return nil
	})
	c := NewCatering(DefaultCateringConfig(), ex)
	enterCatering(t, c)

	phases := map[int]CateringPhase{}
	for frame := 1; frame <= 61; frame++ {
		assert.True(t, c.Process(newFrame()), "active frame %d", frame)
		phases[frame] = c.Phase()
		if frame >= 36 && frame <= 60 {
			assert.True(t, c.StopEnabled(), "frame %d", frame)
		}
	}

	assert.Equal(t, CateringTurning, phases[25])
	assert.Equal(t, CateringTravel, phases[26])
	assert.Equal(t, CateringTravel, phases[35])
	assert.Equal(t, CateringStop, phases[36])
	assert.Equal(t, CateringStop, phases[60])
	assert.Equal(t, CateringIdle, phases[61])
	assert.Equal(t, 26, calls, "branch lines are only searched while turning")

	assert.False(t, c.Active())
	assert.False(t, c.StopEnabled())
	assert.False(t, c.NoRing())
	assert.Empty(t, c.ManeuverID())
	assert.False(t, c.Process(newFrame()))
}

func TestCateringPhaseString(t *testing.T) {
	assert.Equal(t, "travel", CateringTravel.String())
	assert.Equal(t, "unknown", CateringPhase(9).String())
}
