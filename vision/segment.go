// Package vision extracts straight line segments and binary masks from
// camera frames for the zone recognizers.
package vision

import (
	"image"
	"math"
)

// slopeEpsilon keeps vertical segments from dividing by zero.
const slopeEpsilon = 1e-5

// Segment is one probabilistic Hough line in image coordinates.
type Segment struct {
	P1 image.Point
	P2 image.Point
}

// Seg is shorthand for building a segment from raw endpoint coordinates.
func Seg(x1, y1, x2, y2 int) Segment {
	return Segment{P1: image.Pt(x1, y1), P2: image.Pt(x2, y2)}
}

// Slope is dy/dx with dx nudged by slopeEpsilon.
func (s Segment) Slope() float64 {
	return float64(s.P2.Y-s.P1.Y) / (float64(s.P2.X-s.P1.X) + slopeEpsilon)
}

func (s Segment) AbsSlope() float64 {
	return math.Abs(s.Slope())
}

// AngleDeg is atan2(dy, dx) in degrees. Image rows grow downward, so a
// segment rising to the right has a negative angle.
func (s Segment) AngleDeg() float64 {
	return math.Atan2(float64(s.P2.Y-s.P1.Y), float64(s.P2.X-s.P1.X)) * 180 / math.Pi
}

func (s Segment) MidX() int { return (s.P1.X + s.P2.X) / 2 }
func (s Segment) MidY() int { return (s.P1.Y + s.P2.Y) / 2 }

// MaxY is the lower endpoint's row.
func (s Segment) MaxY() int {
	return max(s.P1.Y, s.P2.Y)
}

func (s Segment) MinX() int { return min(s.P1.X, s.P2.X) }
func (s Segment) MaxX() int { return max(s.P1.X, s.P2.X) }

func (s Segment) Length() float64 {
	return math.Hypot(float64(s.P2.X-s.P1.X), float64(s.P2.Y-s.P1.Y))
}
