package zone

import (
	"gocv.io/x/gocv"

	"trackpilot/lane"
)

type CrossroadConfig struct {
	// Border is how close to the frame side a sample must sit to count as
	// lost.
	Border      int `toml:"border"`
	MinLostRows int `toml:"min_lost_rows"`
}

func DefaultCrossroadConfig() CrossroadConfig {
	return CrossroadConfig{Border: 2, MinLostRows: 15}
}

// Crossroad detects an intersection as a band of rows where both edges run
// out to the frame sides, and bridges the gap by interpolation.
type Crossroad struct {
	cfg    CrossroadConfig
	active bool
}

func NewCrossroad(cfg CrossroadConfig) *Crossroad {
	return &Crossroad{cfg: cfg}
}

func (c *Crossroad) Process(f *Frame) bool {
	c.active = false
	if f.Edges == nil {
		return false
	}

	lostLeft, lostRight := lostPredicates(c.cfg.Border, f.Width)
	n := min(len(f.Edges.Left), len(f.Edges.Right))
	both := 0
	for i := 0; i < n; i++ {
		if lostLeft(f.Edges.Left[i]) && lostRight(f.Edges.Right[i]) {
			both++
		}
	}
	if both < c.cfg.MinLostRows {
		return false
	}

	lane.RepairGaps(f.Edges.Left, lostLeft)
	lane.RepairGaps(f.Edges.Right, lostRight)
	c.active = true
	return true
}

// lostPredicates report samples that ran out to the left or right border.
func lostPredicates(border, width int) (left, right func(lane.EdgePoint) bool) {
	left = func(p lane.EdgePoint) bool { return p.Col <= border }
	right = func(p lane.EdgePoint) bool { return p.Col >= width-1-border }
	return left, right
}

func (c *Crossroad) DrawImage(edges *lane.Edges, canvas *gocv.Mat) {
	renderer.DrawEdges(canvas, edges)
}

func (c *Crossroad) Active() bool { return c.active }
func (c *Crossroad) Reset()       { c.active = false }
