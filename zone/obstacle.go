package zone

import (
	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/pkg/log"
)

type ObstacleConfig struct {
	Rule SignRule `toml:"rule"`
	// Margin is the clearance in pixels kept between the box and the
	// shifted edge.
	Margin int `toml:"margin"`
}

func DefaultObstacleConfig() ObstacleConfig {
	return ObstacleConfig{
		Rule: SignRule{
			Labels:    []detection.Label{detection.LabelCone, detection.LabelBlock, detection.LabelPedestrian},
			MinScore:  0.5,
			MinBottom: 0.4,
		},
		Margin: 8,
	}
}

// Obstacle steers around the nearest blocking object inside the lane by
// pulling the blocked side's edge past the box. It is re-derived every
// frame and keeps no maneuver state.
type Obstacle struct {
	cfg ObstacleConfig

	active  bool
	target  detection.Detection
	blocked bool // true when the obstacle sits on the left half of the lane
	log     *log.Entry
}

func NewObstacle(cfg ObstacleConfig) *Obstacle {
	o := &Obstacle{cfg: cfg}
	o.Reset()
	return o
}

func (o *Obstacle) Process(f *Frame) bool {
	o.active = false
	if f.Edges == nil {
		return false
	}

	var (
		nearest detection.Detection
		laneMid int
		found   bool
	)
	for _, d := range f.Detections {
		if !o.cfg.Rule.hasLabel(d.Label) || d.Score <= o.cfg.Rule.MinScore {
			continue
		}
		if float64(d.Bottom()) <= float64(f.Height)*o.cfg.Rule.MinBottom {
			continue
		}
		left, okL := colAt(f.Edges.Left, d.Bottom())
		right, okR := colAt(f.Edges.Right, d.Bottom())
		if !okL || !okR || d.CenterX() <= left || d.CenterX() >= right {
			continue
		}
		if !found || d.Bottom() > nearest.Bottom() {
			nearest, laneMid, found = d, (left+right)/2, true
		}
	}
	if !found {
		return false
	}

	o.target = nearest
	o.blocked = nearest.CenterX() < laneMid
	box := nearest.Rect()
	if o.blocked {
		for i := range f.Edges.Left {
			if p := &f.Edges.Left[i]; p.Row <= box.Max.Y {
				p.Col = max(p.Col, box.Max.X+o.cfg.Margin)
			}
		}
	} else {
		for i := range f.Edges.Right {
			if p := &f.Edges.Right[i]; p.Row <= box.Max.Y {
				p.Col = min(p.Col, box.Min.X-o.cfg.Margin)
			}
		}
	}

	o.log.WithFields(log.Fields{"frame": f.Index, "label": nearest.Label, "left": o.blocked}).Debug("avoiding obstacle")
	o.active = true
	return true
}

// colAt returns the column of the sample on row, or of the nearest row when
// the sequence does not reach it.
func colAt(pts []lane.EdgePoint, row int) (int, bool) {
	if len(pts) == 0 {
		return 0, false
	}
	best := pts[0]
	for _, p := range pts[1:] {
		if abs(p.Row-row) < abs(best.Row-row) {
			best = p
		}
	}
	return best.Col, true
}

func (o *Obstacle) DrawImage(edges *lane.Edges, canvas *gocv.Mat) {
	renderer.DrawEdges(canvas, edges)
	if o.active {
		renderer.DrawDetections(canvas, []detection.Detection{o.target})
	}
}

func (o *Obstacle) Active() bool { return o.active }

func (o *Obstacle) Reset() {
	o.active = false
	o.target = detection.Detection{}
	o.blocked = false
	o.log = log.Component("obstacle")
}
