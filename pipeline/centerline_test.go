package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackpilot/lane"
)

// laneAt builds edges whose midpoint column is mid(row) and width 200.
func laneAt(mid func(row int) int) *lane.Edges {
	e := &lane.Edges{}
	for row := 230; row >= 40; row-- {
		e.Left = append(e.Left, lane.EdgePoint{Row: row, Col: mid(row) - 100})
		e.Right = append(e.Right, lane.EdgePoint{Row: row, Col: mid(row) + 100})
	}
	return e
}

func TestCenterLineFit(t *testing.T) {
	cfg := DefaultCenterLineConfig()
	tests := []struct {
		name      string
		mid       func(int) int
		wantServo float64
	}{
		{"centered", func(int) int { return 160 }, 0},
		{"offset right", func(int) int { return 192 }, 0.24},
		{"slanted", func(row int) int { return row }, 1.2 * (144.0 - 160) / 160},
		{"saturates", func(int) int { return 319 }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCenterLine(cfg).Fit(laneAt(tt.mid))
			assert.InDelta(t, tt.wantServo, s.Servo, 1e-6)
			wantSpeed := cfg.MaxSpeed - (cfg.MaxSpeed-cfg.MinSpeed)*math.Abs(tt.wantServo)
			assert.InDelta(t, wantSpeed, s.Speed, 1e-6)
		})
	}
}

func TestCenterLineWithoutEdges(t *testing.T) {
	cfg := DefaultCenterLineConfig()
	s := NewCenterLine(cfg).Fit(&lane.Edges{})
	assert.Equal(t, Steering{Speed: cfg.MinSpeed}, s)
}

func TestCenterLineDerailment(t *testing.T) {
	c := NewCenterLine(DefaultCenterLineConfig())
	good := laneAt(func(int) int { return 160 })

	for i := 0; i < 4; i++ {
		assert.False(t, c.Derailed(&lane.Edges{}), "frame %d", i)
	}
	assert.False(t, c.Derailed(good), "a tracked frame clears the count")
	for i := 0; i < 4; i++ {
		require.False(t, c.Derailed(nil))
	}
	assert.True(t, c.Derailed(nil))
}

func TestStatsWindow(t *testing.T) {
	s := NewStats(3)
	s.Observe("detect", 100*time.Millisecond)
	s.Observe("detect", 1*time.Millisecond)
	s.Observe("detect", 3*time.Millisecond)
	s.Observe("detect", 2*time.Millisecond)
	s.Observe("track", 4*time.Millisecond)

	st := s.Stage("detect")
	assert.Equal(t, 3, st.Samples)
	assert.InDelta(t, 2, st.Mean, 1e-9)
	assert.InDelta(t, 1, st.StdDev, 1e-9)
	assert.InDelta(t, 3, st.Max, 1e-9)

	assert.Equal(t, StageStats{Samples: 1, Mean: 4, Max: 4}, s.Stage("track"))
	assert.Equal(t, StageStats{}, s.Stage("missing"))
	assert.Equal(t, []string{"detect", "track"}, s.Stages())
}

func TestLogActuatorRecords(t *testing.T) {
	a := NewLogActuator()
	_, ok := a.Last()
	assert.False(t, ok)

	require.NoError(t, a.Drive(1, -0.5))
	last, ok := a.Last()
	assert.True(t, ok)
	assert.Equal(t, Command{Speed: 1, Servo: -0.5}, last)
	assert.False(t, a.Stopped)

	require.NoError(t, a.Stop())
	assert.True(t, a.Stopped)
	last, _ = a.Last()
	assert.Equal(t, Command{}, last)
}

func TestColumnFilterTracksStep(t *testing.T) {
	k := newColumnFilter(0.5, 8)
	for i := 0; i < 10; i++ {
		require.Equal(t, 100.0, k.Update(100))
	}
	assert.Zero(t, k.Velocity())

	first := k.Update(200)
	assert.Greater(t, first, 100.0)
	assert.Less(t, first, 200.0)
	assert.Positive(t, k.Velocity())

	var last float64
	for i := 0; i < 50; i++ {
		last = k.Update(200)
	}
	assert.InDelta(t, 200, last, 2)

	k.Reset()
	assert.Equal(t, 40.0, k.Update(40), "a reset filter adopts the next measurement")
}

func TestCenterLineSmoothsJumps(t *testing.T) {
	c := NewCenterLine(DefaultCenterLineConfig())
	centered := laneAt(func(int) int { return 160 })
	for i := 0; i < 5; i++ {
		require.Zero(t, c.Fit(centered).Servo)
	}

	jumped := c.Fit(laneAt(func(int) int { return 192 }))
	assert.Greater(t, jumped.Servo, 0.0)
	assert.Less(t, jumped.Servo, 0.24, "a one-frame jump is damped")

	cfg := DefaultCenterLineConfig()
	cfg.Smoothing = false
	raw := NewCenterLine(cfg)
	raw.Fit(centered)
	assert.InDelta(t, 0.24, raw.Fit(laneAt(func(int) int { return 192 })).Servo, 1e-6)
}
