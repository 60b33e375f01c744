// Package lane holds the left/right track boundary representation shared by
// the base tracker, the zone recognizers and the control center.
package lane

import "image"

// EdgePoint is a boundary sample in the tracker's transposed convention:
// Row is the image row, Col the image column. Convert through Point and
// FromImage only.
type EdgePoint struct {
	Row int
	Col int
}

// Point returns the sample in image (x=col, y=row) coordinates.
func (p EdgePoint) Point() image.Point {
	return image.Pt(p.Col, p.Row)
}

// FromImage converts an image point to the transposed convention.
func FromImage(pt image.Point) EdgePoint {
	return EdgePoint{Row: pt.Y, Col: pt.X}
}

// Edges is the per-frame Lane Edge State. The base tracker refreshes it
// every frame; an active zone recognizer may rewrite either side.
type Edges struct {
	Left  []EdgePoint
	Right []EdgePoint
}

// Clone returns a deep copy.
func (e *Edges) Clone() Edges {
	return Edges{
		Left:  clonePoints(e.Left),
		Right: clonePoints(e.Right),
	}
}

// Side returns the sequence for one side.
func (e *Edges) Side(left bool) []EdgePoint {
	if left {
		return e.Left
	}
	return e.Right
}

// SetSide replaces the sequence for one side.
func (e *Edges) SetSide(left bool, pts []EdgePoint) {
	if left {
		e.Left = pts
	} else {
		e.Right = pts
	}
}

// MinCol returns the leftmost column of pts, or fallback when empty.
func MinCol(pts []EdgePoint, fallback int) int {
	minCol := fallback
	for _, p := range pts {
		if p.Col < minCol {
			minCol = p.Col
		}
	}
	return minCol
}

func clonePoints(pts []EdgePoint) []EdgePoint {
	if pts == nil {
		return nil
	}
	out := make([]EdgePoint, len(pts))
	copy(out, pts)
	return out
}
