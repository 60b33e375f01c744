package scene

import (
	"gocv.io/x/gocv"

	"trackpilot/lane"
	"trackpilot/overlay"
	"trackpilot/pkg/log"
	"trackpilot/zone"
)

// ExitZone is the finish-area recognizer.
type ExitZone interface {
	zone.Recognizer
	ExitRequested() bool
}

// StopZone is a recognizer with a stop window inside its maneuver.
type StopZone interface {
	zone.Recognizer
	StopEnabled() bool
}

// CateringZone also gates the ring recognizer.
type CateringZone interface {
	StopZone
	NoRing() bool
}

// ParkingZone exposes the garage maneuver step.
type ParkingZone interface {
	zone.Recognizer
	Step() zone.ParkStep
}

// Slots holds the recognizers in priority order. A nil slot is disabled.
type Slots struct {
	StopArea  ExitZone
	Catering  CateringZone
	Layby     StopZone
	Parking   ParkingZone
	Bridge    zone.Recognizer
	Obstacle  zone.Recognizer
	Crossroad zone.Recognizer
	Ring      zone.Recognizer
}

// SpeedConfig holds the per-zone speeds in m/s. Down is the slow-down speed
// in the stop area and, negated, the reverse speed out of the garage.
type SpeedConfig struct {
	Catering float64 `toml:"catering"`
	Layby    float64 `toml:"layby"`
	Parking  float64 `toml:"parking"`
	Bridge   float64 `toml:"bridge"`
	Obstacle float64 `toml:"obstacle"`
	Ring     float64 `toml:"ring"`
	Down     float64 `toml:"down"`
}

func DefaultSpeedConfig() SpeedConfig {
	return SpeedConfig{
		Catering: 0.8,
		Layby:    0.8,
		Parking:  0.6,
		Bridge:   1.0,
		Obstacle: 0.8,
		Ring:     0.8,
		Down:     0.5,
	}
}

// Decision is the arbiter's verdict for one frame.
type Decision struct {
	Tag Tag
	// Speed is the commanded speed unless Cruise is set, in which case the
	// control center picks the speed.
	Speed    float64
	Cruise   bool
	ParkStep zone.ParkStep
	// Exit asks the caller to stop the vehicle and end the run.
	Exit bool
	// Changed reports a different tag than the previous frame.
	Changed bool
}

// Arbiter runs the recognizers in priority order with first-claim-wins
// semantics. It is not safe for concurrent use.
type Arbiter struct {
	slots    Slots
	speeds   SpeedConfig
	tag      Tag
	last     Tag
	renderer *overlay.Renderer
	log      *log.Entry
}

func NewArbiter(slots Slots, speeds SpeedConfig) *Arbiter {
	return &Arbiter{
		slots:    slots,
		speeds:   speeds,
		renderer: overlay.NewRenderer(),
		log:      log.Component("scene"),
	}
}

// Step evaluates one frame. The recognizers may rewrite f.Edges.
func (a *Arbiter) Step(f *zone.Frame) Decision {
	tag := a.tag
	exit := false

	if a.slots.StopArea != nil && a.slots.StopArea.Process(f) {
		tag = Stop
		exit = a.slots.StopArea.ExitRequested()
	}

	if a.slots.Catering != nil {
		tag = claim(tag, Catering, a.slots.Catering, f)
	}
	if a.slots.Layby != nil {
		tag = claim(tag, Layby, a.slots.Layby, f)
	}
	if a.slots.Parking != nil {
		tag = claim(tag, Parking, a.slots.Parking, f)
	}
	tag = claim(tag, Bridge, a.slots.Bridge, f)
	tag = claim(tag, Obstacle, a.slots.Obstacle, f)
	tag = claim(tag, Crossroad, a.slots.Crossroad, f)
	if a.slots.Catering != nil && a.slots.Catering.NoRing() {
		tag = claim(tag, Ring, a.slots.Ring, f)
	} else if a.slots.Ring != nil {
		a.slots.Ring.Reset()
	}

	d := Decision{Tag: tag, Exit: exit, Changed: tag != a.last}
	if a.slots.Parking != nil {
		d.ParkStep = a.slots.Parking.Step()
	}
	d.Speed, d.Cruise = a.speed(tag)

	if d.Changed {
		a.log.WithFields(log.Fields{"frame": f.Index, "from": a.last, "to": tag}).Info("scene changed")
	}
	if exit {
		a.log.WithField("frame", f.Index).Warn("stop area exit requested")
	}

	a.last = tag
	if tag.Persistent() {
		a.tag = tag
	} else {
		a.tag = Normal
	}
	return d
}

// claim runs r only when the frame is unclaimed or already r's own. A
// single-frame recognizer that is passed over is reset: its hold budget and
// last detection do not survive frames it never saw.
func claim(tag, own Tag, r zone.Recognizer, f *zone.Frame) Tag {
	if r == nil {
		return tag
	}
	if tag != Normal && tag != own {
		if !own.Persistent() {
			r.Reset()
		}
		return tag
	}
	if r.Process(f) {
		return own
	}
	return Normal
}

func (a *Arbiter) speed(tag Tag) (float64, bool) {
	switch {
	case tag == Catering && a.slots.Catering.StopEnabled(),
		tag == Layby && a.slots.Layby.StopEnabled(),
		a.slots.Parking != nil && a.slots.Parking.Step() == zone.ParkStop:
		return 0, false
	}

	switch tag {
	case Catering:
		return a.speeds.Catering, false
	case Layby:
		return a.speeds.Layby, false
	case Parking:
		if a.slots.Parking.Step() == zone.ParkTrackout {
			return -a.speeds.Down, false
		}
		return a.speeds.Parking, false
	case Bridge:
		return a.speeds.Bridge, false
	case Obstacle:
		return a.speeds.Obstacle, false
	case Ring:
		return a.speeds.Ring, false
	case Stop:
		return a.speeds.Down, false
	}
	return 0, true
}

// Current returns the tag that will seed the next frame.
func (a *Arbiter) Current() Tag { return a.tag }

// Last returns the tag decided on the most recent frame.
func (a *Arbiter) Last() Tag { return a.last }

// Draw renders the diagnostics of the recognizer that owned the last frame.
func (a *Arbiter) Draw(edges *lane.Edges, canvas *gocv.Mat) {
	r := a.owner(a.last)
	if r == nil {
		a.renderer.DrawEdges(canvas, edges)
		return
	}
	r.DrawImage(edges, canvas)
	if badge := a.last.Badge(); badge != "" {
		a.renderer.DrawBadge(canvas, badge)
	}
}

func (a *Arbiter) owner(tag Tag) zone.Recognizer {
	switch tag {
	case Stop:
		if a.slots.StopArea != nil {
			return a.slots.StopArea
		}
	case Catering:
		if a.slots.Catering != nil {
			return a.slots.Catering
		}
	case Layby:
		if a.slots.Layby != nil {
			return a.slots.Layby
		}
	case Parking:
		if a.slots.Parking != nil {
			return a.slots.Parking
		}
	case Bridge:
		return a.slots.Bridge
	case Obstacle:
		return a.slots.Obstacle
	case Crossroad:
		return a.slots.Crossroad
	case Ring:
		return a.slots.Ring
	}
	return nil
}

// Reset returns every recognizer and the arbiter to their initial state.
func (a *Arbiter) Reset() {
	for _, r := range a.recognizers() {
		r.Reset()
	}
	a.tag = Normal
	a.last = Normal
}

func (a *Arbiter) recognizers() []zone.Recognizer {
	var rs []zone.Recognizer
	add := func(r zone.Recognizer) {
		if r != nil {
			rs = append(rs, r)
		}
	}
	if a.slots.StopArea != nil {
		add(a.slots.StopArea)
	}
	if a.slots.Catering != nil {
		add(a.slots.Catering)
	}
	if a.slots.Layby != nil {
		add(a.slots.Layby)
	}
	if a.slots.Parking != nil {
		add(a.slots.Parking)
	}
	add(a.slots.Bridge)
	add(a.slots.Obstacle)
	add(a.slots.Crossroad)
	add(a.slots.Ring)
	return rs
}
