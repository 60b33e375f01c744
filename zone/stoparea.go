package zone

import (
	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/pkg/log"
)

type StopAreaConfig struct {
	Debounce DebounceConfig `toml:"debounce"`
	Sign     SignRule       `toml:"sign"`
	// ExitFrames is how many frames the vehicle keeps rolling after the
	// finish line is confirmed before the program exits.
	ExitFrames int `toml:"exit_frames"`
}

func DefaultStopAreaConfig() StopAreaConfig {
	return StopAreaConfig{
		Debounce: DebounceConfig{Hits: 3, Window: 8},
		Sign: SignRule{
			Labels:    []detection.Label{detection.LabelCrosswalk},
			MinScore:  0.6,
			MinBottom: 0.5,
		},
		ExitFrames: 20,
	}
}

// StopArea recognizes the finish crosswalk. Once confirmed it stays enabled
// and counts frames toward the forced exit.
type StopArea struct {
	cfg      StopAreaConfig
	debounce *Debouncer

	enabled   bool
	countExit int

	log *log.Entry
}

func NewStopArea(cfg StopAreaConfig) *StopArea {
	s := &StopArea{cfg: cfg, debounce: NewDebouncer(cfg.Debounce)}
	s.Reset()
	return s
}

func (s *StopArea) Process(f *Frame) bool {
	if s.enabled {
		s.countExit++
		return true
	}

	_, ok := s.cfg.Sign.Match(f.Detections, f.Height)
	if s.debounce.Observe(ok) != Entered {
		return false
	}
	s.enabled = true
	_, s.log = maneuverLog("stoparea")
	s.log.Info("finish line confirmed")
	return true
}

// ExitRequested reports that the exit budget is spent.
func (s *StopArea) ExitRequested() bool {
	return s.enabled && s.countExit > s.cfg.ExitFrames
}

func (s *StopArea) CountExit() int { return s.countExit }

func (s *StopArea) DrawImage(edges *lane.Edges, canvas *gocv.Mat) {
	renderer.DrawEdges(canvas, edges)
	if s.enabled {
		renderer.DrawBanner(canvas, "[1] Stop - ENABLE")
	}
}

func (s *StopArea) Active() bool { return s.enabled }

func (s *StopArea) Reset() {
	s.debounce.Reset()
	s.enabled = false
	s.countExit = 0
	s.log = log.Component("stoparea")
}
