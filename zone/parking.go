package zone

import (
	"math"

	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/pkg/log"
	"trackpilot/vision"
)

// ParkStep is the charging-garage maneuver state.
type ParkStep int

const (
	ParkNone ParkStep = iota
	ParkEnable
	ParkTurning
	ParkStop
	ParkTrackout
)

func (s ParkStep) String() string {
	switch s {
	case ParkNone:
		return "none"
	case ParkEnable:
		return "enable"
	case ParkTurning:
		return "turning"
	case ParkStop:
		return "stop"
	case ParkTrackout:
		return "trackout"
	default:
		return "unknown"
	}
}

type ParkingConfig struct {
	Debounce DebounceConfig `toml:"debounce"`
	Sign     SignRule       `toml:"sign"`

	// Reference heights in the Enable step.
	CarScore      float64            `toml:"car_score"`
	SignTopScore  float64            `toml:"sign_top_score"`
	EnableHough   vision.HoughParams `toml:"enable_hough"`
	RailMaxAngle  float64            `toml:"rail_max_angle"`
	RailMaxY      int                `toml:"rail_max_y"`
	PairMinGap    int                `toml:"pair_min_gap"`
	PairMaxDAngle float64            `toml:"pair_max_dangle"`

	TurnHough      vision.HoughParams `toml:"turn_hough"`
	TurnMaxAngle   float64            `toml:"turn_max_angle"`
	RailStep       int                `toml:"rail_step"`
	SwerveFraction float64            `toml:"swerve_fraction"`
	TurnFrames     int                `toml:"turn_frames"`
	StopFrames     int                `toml:"stop_frames"`
	TimeoutFrames  int                `toml:"timeout_frames"`
}

func DefaultParkingConfig() ParkingConfig {
	return ParkingConfig{
		Debounce: DebounceConfig{Hits: 3, Window: 8},
		Sign: SignRule{
			Labels:   []detection.Label{detection.LabelBattery},
			MinScore: 0.4,
		},
		CarScore:     0.6,
		SignTopScore: 0.6,
		EnableHough: vision.HoughParams{
			CannyLow: 50, CannyHigh: 150,
			Threshold: 40, MinLineLength: 20, MaxLineGap: 10,
		},
		RailMaxAngle:  30,
		RailMaxY:      200,
		PairMinGap:    20,
		PairMaxDAngle: 25,
		TurnHough: vision.HoughParams{
			CannyLow: 50, CannyHigh: 150,
			Threshold: 40, MinLineLength: 40, MaxLineGap: 10,
		},
		TurnMaxAngle:   40,
		RailStep:       10,
		SwerveFraction: 0.2,
		TurnFrames:     21,
		StopFrames:     40,
		TimeoutFrames:  80,
	}
}

// Parking finds a free charging bay from its two rails, swerves into it
// along the far rail while recording the path, waits, then reverses out by
// replaying the recorded path.
type Parking struct {
	cfg       ParkingConfig
	enableEx  vision.SegmentExtractor
	turnEx    vision.SegmentExtractor
	debounce  *Debouncer
	leftPath  *lane.History
	rightPath *lane.History

	step     ParkStep
	counter  int
	garage   int
	lineY    int
	rail     vision.Segment
	swerving bool
	rails    []vision.Segment

	maneuverID string
	log        *log.Entry
}

// NewParking builds the recognizer. Nil extractors use Hough extraction with
// the matching config parameters.
func NewParking(cfg ParkingConfig, enableEx, turnEx vision.SegmentExtractor) *Parking {
	if enableEx == nil {
		enableEx = vision.NewHoughExtractor(cfg.EnableHough)
	}
	if turnEx == nil {
		turnEx = vision.NewHoughExtractor(cfg.TurnHough)
	}
	p := &Parking{
		cfg:       cfg,
		enableEx:  enableEx,
		turnEx:    turnEx,
		debounce:  NewDebouncer(cfg.Debounce),
		leftPath:  lane.NewHistory(cfg.TimeoutFrames),
		rightPath: lane.NewHistory(cfg.TimeoutFrames),
	}
	p.Reset()
	return p
}

// Process returns true on the entry frame and on every frame outside None.
func (p *Parking) Process(f *Frame) bool {
	if p.step != ParkNone {
		p.counter++
		if p.counter > p.cfg.TimeoutFrames {
			p.log.WithField("step", p.step).Warn("parking timed out")
			p.Reset()
		}
	}

	switch p.step {
	case ParkNone:
		return p.watchSign(f)
	case ParkEnable:
		p.findGarage(f)
	case ParkTurning:
		p.turn(f)
	case ParkStop:
		if p.counter > p.cfg.StopFrames {
			p.log.Info("reversing out of the garage")
			p.step = ParkTrackout
		}
	case ParkTrackout:
		p.trackout(f)
	}
	return true
}

func (p *Parking) watchSign(f *Frame) bool {
	_, ok := p.cfg.Sign.Match(f.Detections, f.Height)
	switch p.debounce.Observe(ok) {
	case Entered:
		p.step = ParkEnable
		p.counter = 0
		p.maneuverID, p.log = maneuverLog("parking")
		p.log.Info("parking zone entered")
		return true
	case Aborted:
		p.log.Debug("battery sign not confirmed")
	}
	return false
}

func (p *Parking) findGarage(f *Frame) {
	carY, signY := f.Height, f.Height
	for _, d := range f.Detections {
		switch {
		case d.Label == detection.LabelCar && d.Score > p.cfg.CarScore:
			carY = d.CenterY()
		case d.Label == detection.LabelBattery && d.Score > p.cfg.SignTopScore:
			signY = d.Y
		}
	}

	p.rails = p.rails[:0]
	for _, s := range p.enableEx.Segments(f.Binary) {
		angle := s.AngleDeg()
		midY := s.MidY()
		if math.Abs(angle) < p.cfg.RailMaxAngle && angle < 0 &&
			midY < signY && midY < p.cfg.RailMaxY && s.MidX() > f.Width/2 {
			p.rails = append(p.rails, s)
		}
	}

	for i := 0; i < len(p.rails); i++ {
		for j := i + 1; j < len(p.rails); j++ {
			a, b := p.rails[i], p.rails[j]
			if abs(a.MidY()-b.MidY()) <= p.cfg.PairMinGap ||
				math.Abs(a.AngleDeg()-b.AngleDeg()) >= p.cfg.PairMaxDAngle {
				continue
			}

			far := a
			if b.MidY() < a.MidY() {
				far = b
			}
			p.garage = chooseGarage(carY, a.MidY(), b.MidY())
			p.lineY = far.MidY()
			p.rail = far
			p.counter = 0
			p.step = ParkTurning
			p.log.WithFields(log.Fields{"garage": p.garage, "line_y": p.lineY, "car_y": carY}).Info("garage selected")
			return
		}
	}
}

// chooseGarage compares the parked car's height with the two rail rows.
// A car between the rails falls back to garage 1.
func chooseGarage(carY, y1, y2 int) int {
	switch {
	case carY > max(y1, y2):
		return 1
	case carY < min(y1, y2):
		return 2
	default:
		return 1
	}
}

func (p *Parking) turn(f *Frame) {
	p.rails = p.rails[:0]
	for _, s := range p.turnEx.Segments(f.Binary) {
		angle := s.AngleDeg()
		if math.Abs(angle) >= p.cfg.TurnMaxAngle || angle >= 0 || s.MidX() <= f.Width/2 {
			continue
		}
		p.rails = append(p.rails, s)
		if midY := s.MidY(); midY > p.lineY && midY-p.lineY <= p.cfg.RailStep {
			p.lineY = midY
			p.rail = s
		}
	}

	if float64(p.lineY) > float64(f.Height)*p.cfg.SwerveFraction {
		if !p.swerving {
			p.counter = 0
			p.swerving = true
			p.log.WithField("line_y", p.lineY).Info("swerving into garage")
		}
		if f.Edges != nil {
			f.Edges.Left = lane.Extrapolate(p.rail.P1, p.rail.P2, f.Width)
			p.leftPath.Push(f.Edges.Left)
			p.rightPath.Push(f.Edges.Right)
		}
	}

	if p.swerving && p.counter > p.cfg.TurnFrames {
		p.log.WithField("snapshots", p.leftPath.Len()).Info("parked")
		p.step = ParkStop
	}
}

func (p *Parking) trackout(f *Frame) {
	if p.leftPath.Empty() || p.rightPath.Empty() {
		p.log.Info("parking finished")
		p.Reset()
		return
	}

	left, _ := p.leftPath.Pop()
	right, _ := p.rightPath.Pop()
	if f.Edges != nil {
		f.Edges.Left = left
		f.Edges.Right = right
	}

	if p.leftPath.Empty() || p.rightPath.Empty() {
		p.log.Info("parking finished")
		p.Reset()
	}
}

func (p *Parking) DrawImage(edges *lane.Edges, canvas *gocv.Mat) {
	renderer.DrawEdges(canvas, edges)
	if p.step == ParkNone {
		return
	}
	renderer.DrawSegments(canvas, p.rails)
	renderer.DrawRail(canvas, p.rail)
	renderer.DrawBanner(canvas, "[1] BATTERY - ENABLE")
}

func (p *Parking) Active() bool   { return p.step != ParkNone }
func (p *Parking) Step() ParkStep { return p.step }
func (p *Parking) Garage() int    { return p.garage }
func (p *Parking) LineY() int     { return p.lineY }

// Rail returns the endpoints of the rail being followed.
func (p *Parking) Rail() vision.Segment { return p.rail }

// PathLen returns the recorded snapshot counts for the left and right edges.
func (p *Parking) PathLen() (left, right int) {
	return p.leftPath.Len(), p.rightPath.Len()
}

func (p *Parking) ManeuverID() string { return p.maneuverID }

func (p *Parking) Reset() {
	p.debounce.Reset()
	p.leftPath.Clear()
	p.rightPath.Clear()
	p.step = ParkNone
	p.counter = 0
	p.garage = 1
	p.lineY = 0
	p.rail = vision.Segment{}
	p.swerving = false
	p.rails = p.rails[:0]
	p.maneuverID = ""
	p.log = log.Component("parking")
}
