package zone

import (
	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/pkg/log"
	"trackpilot/vision"
)

// CateringPhase is the sub-state of a food-stop maneuver.
type CateringPhase int

const (
	CateringIdle CateringPhase = iota
	CateringTurning
	CateringTravel
	CateringStop
)

func (p CateringPhase) String() string {
	switch p {
	case CateringIdle:
		return "idle"
	case CateringTurning:
		return "turning"
	case CateringTravel:
		return "travel"
	case CateringStop:
		return "stop"
	default:
		return "unknown"
	}
}

type CateringConfig struct {
	Debounce     DebounceConfig     `toml:"debounce"`
	Sign         SignRule           `toml:"sign"`
	Hough        vision.HoughParams `toml:"hough"`
	TurnFrames   int                `toml:"turn_frames"`
	TravelFrames int                `toml:"travel_frames"`
	StopFrames   int                `toml:"stop_frames"`
	// Accepted |slope| range for the branch line.
	SlopeMin float64 `toml:"slope_min"`
	SlopeMax float64 `toml:"slope_max"`
}

func DefaultCateringConfig() CateringConfig {
	return CateringConfig{
		Debounce: DebounceConfig{Hits: 3, Window: 8},
		Sign: SignRule{
			Labels:    []detection.Label{detection.LabelBurger},
			MinScore:  0.4,
			MinBottom: 0.3,
		},
		Hough: vision.HoughParams{
			Blur: true, CannyLow: 30, CannyHigh: 150,
			Threshold: 50, MinLineLength: 50, MaxLineGap: 10,
		},
		TurnFrames:   25,
		TravelFrames: 10,
		StopFrames:   25,
		SlopeMin:     0.3,
		SlopeMax:     1,
	}
}

// Catering drives into the food-stop branch on the side the burger sign was
// seen, travels down it, and holds a stop window before handing back.
type Catering struct {
	cfg       CateringConfig
	extractor vision.SegmentExtractor
	debounce  *Debouncer

	enabled    bool
	turning    bool
	stopEnable bool
	noRing     bool
	burgerLeft bool
	burgerY    int
	counter    int
	rail       vision.Segment

	maneuverID string
	log        *log.Entry
}

// NewCatering builds the recognizer. A nil extractor uses Hough extraction
// with cfg.Hough.
func NewCatering(cfg CateringConfig, extractor vision.SegmentExtractor) *Catering {
	if extractor == nil {
		extractor = vision.NewHoughExtractor(cfg.Hough)
	}
	c := &Catering{cfg: cfg, extractor: extractor, debounce: NewDebouncer(cfg.Debounce)}
	c.Reset()
	return c
}

func (c *Catering) Process(f *Frame) bool {
	if !c.enabled {
		return c.watchSign(f)
	}

	if !c.stopEnable && c.turning {
		c.steer(f)
	}

	c.counter++
	switch {
	case c.counter > c.cfg.TurnFrames+c.cfg.TravelFrames+c.cfg.StopFrames:
		c.log.WithField("frames", c.counter).Info("catering finished")
		c.Reset()
	case c.counter > c.cfg.TurnFrames+c.cfg.TravelFrames:
		if !c.stopEnable {
			c.log.Debug("catering stop window")
		}
		c.stopEnable = true
	case c.counter > c.cfg.TurnFrames:
		c.turning = false
	}
	return true
}

func (c *Catering) watchSign(f *Frame) bool {
	sign, ok := c.cfg.Sign.Match(f.Detections, f.Height)
	if ok {
		c.noRing = true
		c.burgerLeft = onLeft(sign, f.Width)
		c.burgerY = sign.Y
	}

	switch c.debounce.Observe(ok) {
	case Entered:
		c.enabled = true
		c.maneuverID, c.log = maneuverLog("catering")
		c.log.WithField("left", c.burgerLeft).Info("catering zone entered")
		return true
	case Aborted:
		c.log.Debug("burger sign not confirmed")
	}
	return false
}

// steer replaces the signed side's edge with the longest branch line above
// the remembered burger box.
func (c *Catering) steer(f *Frame) {
	for _, d := range f.Detections {
		if d.Label == detection.LabelBurger {
			c.burgerY = d.Y
		}
	}

	var best vision.Segment
	found := false
	for _, s := range c.extractor.Segments(f.Binary) {
		if s.MaxY() > c.burgerY {
			continue
		}
		slope := s.Slope()
		if c.burgerLeft && (slope > -c.cfg.SlopeMin || slope < -c.cfg.SlopeMax) {
			continue
		}
		if !c.burgerLeft && (slope < c.cfg.SlopeMin || slope > c.cfg.SlopeMax) {
			continue
		}
		if !found || s.Length() > best.Length() {
			best, found = s, true
		}
	}
	if !found {
		return
	}

	c.rail = best
	if f.Edges != nil {
		f.Edges.SetSide(c.burgerLeft, lane.Extrapolate(best.P1, best.P2, f.Width))
	}
}

func (c *Catering) DrawImage(edges *lane.Edges, canvas *gocv.Mat) {
	renderer.DrawEdges(canvas, edges)
	if !c.enabled {
		return
	}
	renderer.DrawRail(canvas, c.rail)
	renderer.DrawBanner(canvas, "[1] Burger - ENABLE")
}

func (c *Catering) Active() bool { return c.enabled }

// StopEnabled reports the stop window of the maneuver.
func (c *Catering) StopEnabled() bool { return c.stopEnable }

// NoRing reports that a burger sign was seen, which is what allows the ring
// recognizer to run.
func (c *Catering) NoRing() bool { return c.noRing }

func (c *Catering) BurgerLeft() bool { return c.burgerLeft }

func (c *Catering) Phase() CateringPhase {
	switch {
	case !c.enabled:
		return CateringIdle
	case c.stopEnable:
		return CateringStop
	case c.turning:
		return CateringTurning
	default:
		return CateringTravel
	}
}

func (c *Catering) ManeuverID() string { return c.maneuverID }

func (c *Catering) Reset() {
	c.debounce.Reset()
	c.enabled = false
	c.turning = true
	c.stopEnable = false
	c.noRing = false
	c.burgerLeft = true
	c.burgerY = 0
	c.counter = 0
	c.rail = vision.Segment{}
	c.maneuverID = ""
	c.log = log.Component("catering")
}
