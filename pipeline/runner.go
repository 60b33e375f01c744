// Package pipeline runs the per-frame loop: detect, binarize, track, let the
// scene arbiter pick a zone, fit the control center and drive the vehicle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/overlay"
	"trackpilot/pkg/log"
	"trackpilot/scene"
	"trackpilot/zone"
)

var (
	ErrStopArea = errors.New("stop area reached")
	ErrDerailed = errors.New("vehicle left the track")
)

const perfReportInterval = 15 * time.Second

type Detector interface {
	Detect(frame gocv.Mat) ([]detection.Detection, error)
}

// Binarizer returns a single-channel mask owned by the caller.
type Binarizer interface {
	Binarize(frame gocv.Mat) gocv.Mat
}

type Tracker interface {
	Track(binary gocv.Mat) lane.Edges
}

// Steering is the control center's output for one frame.
type Steering struct {
	// Servo is normalized to [-1, 1], positive to the right.
	Servo float64
	// Speed is the cruise speed suggested for lane following.
	Speed float64
}

type ControlCenter interface {
	Fit(edges *lane.Edges) Steering
	Derailed(edges *lane.Edges) bool
}

type Actuator interface {
	Drive(speed, servo float64) error
	Stop() error
}

// Display shows the debug canvas.
type Display interface {
	Show(canvas gocv.Mat)
}

// Source yields frames; gocv.VideoCapture satisfies it.
type Source interface {
	Read(m *gocv.Mat) bool
}

type Config struct {
	// WarmupFrames are processed without actuation.
	WarmupFrames int `toml:"warmup_frames"`
	Debug        bool `toml:"debug"`
}

func DefaultConfig() Config {
	return Config{WarmupFrames: 30}
}

type Collaborators struct {
	Detector  Detector
	Binarizer Binarizer
	Tracker   Tracker
	Control   ControlCenter
	Actuator  Actuator
	// Display is optional and only used in debug mode.
	Display Display
}

// Result summarizes one processed frame.
type Result struct {
	Index    int
	Decision scene.Decision
	Steering Steering
	Speed    float64
	Driven   bool
	Edges    lane.Edges
}

type Runner struct {
	cfg      Config
	c        Collaborators
	arbiter  *scene.Arbiter
	renderer *overlay.Renderer
	stats    *Stats
	frames   int
	log      *log.Entry
}

func NewRunner(cfg Config, c Collaborators, arbiter *scene.Arbiter) *Runner {
	return &Runner{
		cfg:      cfg,
		c:        c,
		arbiter:  arbiter,
		renderer: overlay.NewRenderer(),
		stats:    NewStats(300),
		log:      log.Component("pipeline"),
	}
}

// Step processes one frame. Every error it returns comes after the vehicle
// has been stopped.
func (r *Runner) Step(frame gocv.Mat) (Result, error) {
	r.frames++
	res := Result{Index: r.frames}

	start := time.Now()
	dets, err := r.c.Detector.Detect(frame)
	if err != nil {
		r.log.WithError(err).WithField("frame", r.frames).Warn("detection failed, continuing without detections")
		dets = nil
	}
	r.stats.Observe("detect", time.Since(start))

	start = time.Now()
	binary := r.c.Binarizer.Binarize(frame)
	defer binary.Close()
	edges := r.c.Tracker.Track(binary)
	r.stats.Observe("track", time.Since(start))

	start = time.Now()
	f := &zone.Frame{
		Index:      r.frames,
		Width:      frame.Cols(),
		Height:     frame.Rows(),
		Binary:     binary,
		Detections: dets,
		Edges:      &edges,
	}
	res.Decision = r.arbiter.Step(f)
	r.stats.Observe("scene", time.Since(start))

	res.Steering = r.c.Control.Fit(f.Edges)
	res.Edges = *f.Edges

	if res.Decision.Exit {
		return res, r.halt(ErrStopArea)
	}
	if res.Decision.Tag != scene.Parking && r.c.Control.Derailed(f.Edges) {
		return res, r.halt(ErrDerailed)
	}

	res.Speed = res.Decision.Speed
	if res.Decision.Cruise {
		res.Speed = res.Steering.Speed
	}

	if r.frames > r.cfg.WarmupFrames {
		if err := r.c.Actuator.Drive(res.Speed, res.Steering.Servo); err != nil {
			return res, r.halt(fmt.Errorf("drive frame %d: %w", r.frames, err))
		}
		res.Driven = true
	}

	if r.cfg.Debug && r.c.Display != nil {
		r.show(frame, dets, f.Edges, res.Speed)
	}
	return res, nil
}

func (r *Runner) halt(cause error) error {
	r.log.WithFields(log.Fields{"frame": r.frames, "cause": cause}).Warn("stopping vehicle")
	if err := r.c.Actuator.Stop(); err != nil {
		return errors.Join(cause, fmt.Errorf("stop: %w", err))
	}
	return cause
}

func (r *Runner) show(frame gocv.Mat, dets []detection.Detection, edges *lane.Edges, speed float64) {
	canvas := frame.Clone()
	defer canvas.Close()
	r.renderer.DrawDetections(&canvas, dets)
	r.arbiter.Draw(edges, &canvas)
	r.renderer.DrawScene(&canvas, r.arbiter.Last().String())
	r.renderer.DrawSpeed(&canvas, speed)
	r.c.Display.Show(canvas)
}

// Run reads frames until the source is exhausted, ctx is cancelled or a
// terminal condition is hit. The vehicle is stopped on every exit path.
func (r *Runner) Run(ctx context.Context, src Source) error {
	frame := gocv.NewMat()
	defer frame.Close()

	lastReport := time.Now()
	for {
		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), r.c.Actuator.Stop())
		default:
		}

		if !src.Read(&frame) || frame.Empty() {
			r.log.WithField("frames", r.frames).Info("source exhausted")
			return r.c.Actuator.Stop()
		}

		res, err := r.Step(frame)
		if err != nil {
			return err
		}
		if res.Decision.Changed {
			r.log.WithFields(log.Fields{"frame": res.Index, "scene": res.Decision.Tag, "speed": res.Speed}).Debug("scene decision")
		}

		if time.Since(lastReport) >= perfReportInterval {
			r.stats.Log(r.log)
			lastReport = time.Now()
		}
	}
}

// Frames returns the number of frames processed so far.
func (r *Runner) Frames() int { return r.frames }

func (r *Runner) Stats() *Stats { return r.stats }
