package zone

import (
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"trackpilot/lane"
	"trackpilot/pkg/log"
)

type RingConfig struct {
	Debounce    DebounceConfig `toml:"debounce"`
	Border      int            `toml:"border"`
	MinLostRows int            `toml:"min_lost_rows"`
	HoldFrames  int            `toml:"hold_frames"`
}

func DefaultRingConfig() RingConfig {
	return RingConfig{
		Debounce:    DebounceConfig{Hits: 3, Window: 8},
		Border:      2,
		MinLostRows: 15,
		HoldFrames:  60,
	}
}

// Ring handles a roundabout: one edge opens onto the ring while the other
// stays put. The open edge is rebuilt from the intact one using the average
// track width of the rows where both edges are present.
type Ring struct {
	cfg      RingConfig
	debounce *Debouncer

	enabled  bool
	leftOpen bool
	counter  int

	maneuverID string
	log        *log.Entry
}

func NewRing(cfg RingConfig) *Ring {
	r := &Ring{cfg: cfg, debounce: NewDebouncer(cfg.Debounce)}
	r.Reset()
	return r
}

func (r *Ring) Process(f *Frame) bool {
	if f.Edges == nil {
		return false
	}
	lostLeft, lostRight := lostPredicates(r.cfg.Border, f.Width)

	if !r.enabled {
		nl := lane.CountLost(f.Edges.Left, lostLeft)
		nr := lane.CountLost(f.Edges.Right, lostRight)
		leftOpen := nl >= r.cfg.MinLostRows && nr < r.cfg.MinLostRows
		rightOpen := nr >= r.cfg.MinLostRows && nl < r.cfg.MinLostRows
		if r.debounce.Observe(leftOpen || rightOpen) != Entered {
			return false
		}
		r.enabled = true
		r.leftOpen = leftOpen
		r.maneuverID, r.log = maneuverLog("ring")
		r.log.WithField("left", r.leftOpen).Info("ring zone entered")
	} else {
		r.counter++
		if r.counter > r.cfg.HoldFrames {
			r.log.Info("ring passed")
			r.Reset()
			return false
		}
	}

	r.rebuild(f, lostLeft, lostRight)
	return true
}

// rebuild rewrites lost samples on the open side at the intact side's
// column offset by the mean track width.
func (r *Ring) rebuild(f *Frame, lostLeft, lostRight func(lane.EdgePoint) bool) {
	left, right := f.Edges.Left, f.Edges.Right
	n := min(len(left), len(right))

	var widths []float64
	for i := 0; i < n; i++ {
		if !lostLeft(left[i]) && !lostRight(right[i]) {
			widths = append(widths, float64(right[i].Col-left[i].Col))
		}
	}
	if len(widths) == 0 {
		return
	}
	width := int(stat.Mean(widths, nil))

	for i := 0; i < n; i++ {
		switch {
		case r.leftOpen && lostLeft(left[i]):
			left[i].Col = max(right[i].Col-width, 0)
		case !r.leftOpen && lostRight(right[i]):
			right[i].Col = min(left[i].Col+width, f.Width-1)
		}
	}
}

func (r *Ring) DrawImage(edges *lane.Edges, canvas *gocv.Mat) {
	renderer.DrawEdges(canvas, edges)
	if r.enabled {
		renderer.DrawBanner(canvas, "[1] Ring - ENABLE")
	}
}

func (r *Ring) Active() bool   { return r.enabled }
func (r *Ring) LeftOpen() bool { return r.leftOpen }

func (r *Ring) Reset() {
	r.debounce.Reset()
	r.enabled = false
	r.leftOpen = false
	r.counter = 0
	r.maneuverID = ""
	r.log = log.Component("ring")
}
