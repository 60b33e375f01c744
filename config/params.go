// Package config loads the vehicle parameter file. Every key is optional;
// absent keys keep the values from Default.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"trackpilot/lane"
	"trackpilot/pipeline"
	"trackpilot/scene"
	"trackpilot/vision"
	"trackpilot/zone"
)

// Enable switches individual zone recognizers on or off.
type Enable struct {
	StopArea  bool `toml:"stop_area"`
	Catering  bool `toml:"catering"`
	Layby     bool `toml:"layby"`
	Parking   bool `toml:"parking"`
	Bridge    bool `toml:"bridge"`
	Obstacle  bool `toml:"obstacle"`
	Crossroad bool `toml:"crossroad"`
	Ring      bool `toml:"ring"`
}

type DetectorConfig struct {
	MinScore  float64 `toml:"min_score"`
	InputSize int     `toml:"input_size"`
}

type Params struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`

	Pipeline  pipeline.Config           `toml:"pipeline"`
	Detector  DetectorConfig            `toml:"detector"`
	Binarizer vision.OtsuBinarizer      `toml:"binarizer"`
	Tracker   lane.ScanTracker          `toml:"tracker"`
	Control   pipeline.CenterLineConfig `toml:"control"`
	Speeds    scene.SpeedConfig         `toml:"speeds"`
	Enable    Enable                    `toml:"enable"`

	StopArea  zone.StopAreaConfig  `toml:"stop_area"`
	Catering  zone.CateringConfig  `toml:"catering"`
	Layby     zone.LaybyConfig     `toml:"layby"`
	Parking   zone.ParkingConfig   `toml:"parking"`
	Bridge    zone.BridgeConfig    `toml:"bridge"`
	Obstacle  zone.ObstacleConfig  `toml:"obstacle"`
	Crossroad zone.CrossroadConfig `toml:"crossroad"`
	Ring      zone.RingConfig      `toml:"ring"`
}

func Default() Params {
	return Params{
		Width:     320,
		Height:    240,
		Pipeline:  pipeline.DefaultConfig(),
		Detector:  DetectorConfig{MinScore: 0.3, InputSize: 320},
		Binarizer: vision.OtsuBinarizer{BlurKernel: 3},
		Tracker:   lane.ScanTracker{RowCutUp: 10, RowCutBottom: 10},
		Control:   pipeline.DefaultCenterLineConfig(),
		Speeds:    scene.DefaultSpeedConfig(),
		Enable: Enable{
			StopArea:  true,
			Catering:  true,
			Layby:     true,
			Parking:   true,
			Bridge:    true,
			Obstacle:  true,
			Crossroad: true,
			Ring:      true,
		},
		StopArea:  zone.DefaultStopAreaConfig(),
		Catering:  zone.DefaultCateringConfig(),
		Layby:     zone.DefaultLaybyConfig(),
		Parking:   zone.DefaultParkingConfig(),
		Bridge:    zone.DefaultBridgeConfig(),
		Obstacle:  zone.DefaultObstacleConfig(),
		Crossroad: zone.DefaultCrossroadConfig(),
		Ring:      zone.DefaultRingConfig(),
	}
}

// Load decodes path over Default and validates the result. Unknown keys are
// rejected so a typo cannot silently keep a default.
func Load(path string) (Params, error) {
	p := Default()
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Params{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Params{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	// The control center follows the frame size unless set explicitly.
	if !meta.IsDefined("control", "width") {
		p.Control.Width = p.Width
	}
	if !meta.IsDefined("control", "height") {
		p.Control.Height = p.Height
	}

	if err := p.Validate(); err != nil {
		return Params{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return p, nil
}

// Validate reports every invalid parameter at once.
func (p Params) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	debounce := func(name string, d zone.DebounceConfig) {
		check(d.Hits >= 1, "%s: debounce hits must be at least 1", name)
		// A window equal to Hits always aborts.
		check(d.Window > d.Hits, "%s: debounce window %d must exceed hits %d", name, d.Window, d.Hits)
	}
	positive := func(name string, v int) {
		check(v > 0, "%s must be positive, got %d", name, v)
	}

	positive("width", p.Width)
	positive("height", p.Height)
	check(p.Pipeline.WarmupFrames >= 0, "pipeline.warmup_frames must not be negative")
	check(p.Detector.MinScore >= 0 && p.Detector.MinScore <= 1, "detector.min_score must be within [0, 1]")
	check(!p.Control.Smoothing || p.Control.MeasurementNoise > 0, "control.measurement_noise must be positive when smoothing")
	check(p.Speeds.Down >= 0, "speeds.down is a magnitude and must not be negative")

	debounce("stop_area", p.StopArea.Debounce)
	debounce("catering", p.Catering.Debounce)
	debounce("layby", p.Layby.Debounce)
	debounce("parking", p.Parking.Debounce)
	debounce("bridge", p.Bridge.Debounce)
	debounce("ring", p.Ring.Debounce)

	positive("stop_area.exit_frames", p.StopArea.ExitFrames)
	positive("catering.turn_frames", p.Catering.TurnFrames)
	positive("catering.travel_frames", p.Catering.TravelFrames)
	positive("catering.stop_frames", p.Catering.StopFrames)
	positive("layby.stop_frames", p.Layby.StopFrames)
	positive("parking.turn_frames", p.Parking.TurnFrames)
	positive("parking.stop_frames", p.Parking.StopFrames)
	positive("parking.timeout_frames", p.Parking.TimeoutFrames)
	positive("bridge.hold_frames", p.Bridge.HoldFrames)
	positive("ring.hold_frames", p.Ring.HoldFrames)
	positive("crossroad.min_lost_rows", p.Crossroad.MinLostRows)
	positive("ring.min_lost_rows", p.Ring.MinLostRows)

	check(p.Layby.BandTop < p.Layby.BandBottom, "layby: band_top must be above band_bottom")
	check(p.Parking.SwerveFraction > 0 && p.Parking.SwerveFraction < 1, "parking.swerve_fraction must be within (0, 1)")
	check(p.Catering.SlopeMin < p.Catering.SlopeMax, "catering: slope_min must be below slope_max")

	return errors.Join(errs...)
}

// Slots builds the enabled recognizers.
func (p Params) Slots() scene.Slots {
	var s scene.Slots
	if p.Enable.StopArea {
		s.StopArea = zone.NewStopArea(p.StopArea)
	}
	if p.Enable.Catering {
		s.Catering = zone.NewCatering(p.Catering, nil)
	}
	if p.Enable.Layby {
		s.Layby = zone.NewLayby(p.Layby, nil)
	}
	if p.Enable.Parking {
		s.Parking = zone.NewParking(p.Parking, nil, nil)
	}
	if p.Enable.Bridge {
		s.Bridge = zone.NewBridge(p.Bridge)
	}
	if p.Enable.Obstacle {
		s.Obstacle = zone.NewObstacle(p.Obstacle)
	}
	if p.Enable.Crossroad {
		s.Crossroad = zone.NewCrossroad(p.Crossroad)
	}
	if p.Enable.Ring {
		s.Ring = zone.NewRing(p.Ring)
	}
	return s
}

// Arbiter builds the scene arbiter over the enabled recognizers.
func (p Params) Arbiter() *scene.Arbiter {
	return scene.NewArbiter(p.Slots(), p.Speeds)
}
