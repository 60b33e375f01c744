// Package scene arbitrates between zone recognizers so that at most one of
// them controls the vehicle on any frame, and maps the winner to a speed.
package scene

// Tag is the arbiter's single classification of the current frame.
type Tag int

const (
	Normal Tag = iota
	Catering
	Layby
	Parking
	Bridge
	Obstacle
	Crossroad
	Ring
	Stop
)

var tagNames = [...]string{
	Normal:    "normal",
	Catering:  "catering",
	Layby:     "layby",
	Parking:   "parking",
	Bridge:    "bridge",
	Obstacle:  "obstacle",
	Crossroad: "crossroad",
	Ring:      "ring",
	Stop:      "stop",
}

func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "unknown"
	}
	return tagNames[t]
}

// Persistent tags are carried into the next frame; their recognizers end the
// maneuver themselves. All other tags revert to Normal after each frame.
func (t Tag) Persistent() bool {
	return t == Catering || t == Layby || t == Parking
}

// Badge is the one-letter marker drawn in the debug view.
func (t Tag) Badge() string {
	switch t {
	case Catering:
		return "C"
	case Layby:
		return "T"
	case Parking:
		return "P"
	case Bridge:
		return "S"
	case Obstacle:
		return "X"
	case Crossroad:
		return "+"
	case Ring:
		return "H"
	default:
		return ""
	}
}
