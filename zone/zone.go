// Package zone recognizes special track zones from per-frame detections and
// lane geometry, and sequences the maneuver that drives through each one.
//
// Every recognizer follows the same contract: Process advances exactly one
// frame and reports whether the zone controls the vehicle this frame. While
// active, a recognizer may rewrite the frame's lane edges in place; the base
// tracker refreshes them on the next frame.
package zone

import (
	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/overlay"
	"trackpilot/pkg/log"
)

var renderer = overlay.NewRenderer()

// Frame is the per-frame input shared by all recognizers.
type Frame struct {
	Index      int
	Width      int
	Height     int
	Binary     gocv.Mat
	Detections []detection.Detection
	Edges      *lane.Edges
}

// Recognizer is the capability the scene arbiter dispatches through.
type Recognizer interface {
	// Process advances one frame and reports whether the zone is active.
	Process(f *Frame) bool
	// DrawImage renders diagnostics without touching recognizer state.
	DrawImage(edges *lane.Edges, canvas *gocv.Mat)
	// Active reports whether a maneuver is in progress.
	Active() bool
	// Reset returns the recognizer to its initial state.
	Reset()
}

// SignRule qualifies a trigger sign among a frame's detections.
type SignRule struct {
	Labels   []detection.Label `toml:"labels"`
	MinScore float64           `toml:"min_score"`
	// MinBottom is a fraction of frame height the box bottom must pass.
	// Zero disables the position check.
	MinBottom float64 `toml:"min_bottom"`
}

// Match returns the first detection satisfying the rule.
func (r SignRule) Match(dets []detection.Detection, height int) (detection.Detection, bool) {
	for _, d := range dets {
		if !r.hasLabel(d.Label) || d.Score <= r.MinScore {
			continue
		}
		if r.MinBottom > 0 && float64(d.Bottom()) <= float64(height)*r.MinBottom {
			continue
		}
		return d, true
	}
	return detection.Detection{}, false
}

func (r SignRule) hasLabel(l detection.Label) bool {
	for _, want := range r.Labels {
		if want == l {
			return true
		}
	}
	return false
}

// onLeft reports whether a sign sits left of the image midline.
func onLeft(d detection.Detection, width int) bool {
	return d.CenterX() < width/2
}

// maneuverLog tags log entries with a fresh maneuver id.
func maneuverLog(component string) (string, *log.Entry) {
	id := uuid.NewString()
	return id, log.Component(component).WithField("maneuver_id", id)
}
