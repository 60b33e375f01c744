package lane

import "image"

// slopeEpsilon keeps vertical segments from dividing by zero.
const slopeEpsilon = 1e-5

// Extrapolate extends the line through p1 and p2 across columns 0..width
// inclusive and returns one EdgePoint per column.
func Extrapolate(p1, p2 image.Point, width int) []EdgePoint {
	slope := float64(p2.Y-p1.Y) / (float64(p2.X-p1.X) + slopeEpsilon)
	startRow := int(slope*float64(0-p1.X) + float64(p1.Y))

	pts := make([]EdgePoint, 0, width+1)
	for x := 0; x <= width; x++ {
		row := int(float64(startRow) + slope*float64(x))
		pts = append(pts, EdgePoint{Row: row, Col: x})
	}
	return pts
}

// Collapse narrows a two-lane boundary pair to the lane on one side. Toward
// the left, the right boundary is truncated to the left's length and each of
// its columns becomes the midpoint of both; toward the right, symmetrically.
func Collapse(e *Edges, towardLeft bool) {
	if towardLeft {
		if len(e.Right) > len(e.Left) {
			e.Right = e.Right[:len(e.Left)]
		}
		for i := range e.Right {
			e.Right[i].Col = (e.Right[i].Col + e.Left[i].Col) / 2
		}
		return
	}

	if len(e.Left) > len(e.Right) {
		e.Left = e.Left[:len(e.Right)]
	}
	for i := range e.Left {
		e.Left[i].Col = (e.Right[i].Col + e.Left[i].Col) / 2
	}
}

// RepairGaps replaces runs of lost samples by linear interpolation between
// the nearest kept samples on either side. Runs touching either end keep
// their original values. It returns the number of samples rewritten.
func RepairGaps(pts []EdgePoint, lost func(EdgePoint) bool) int {
	repaired := 0
	i := 0
	for i < len(pts) {
		if !lost(pts[i]) {
			i++
			continue
		}
		start := i
		for i < len(pts) && lost(pts[i]) {
			i++
		}
		if start == 0 || i == len(pts) {
			continue
		}
		before, after := pts[start-1], pts[i]
		span := after.Row - before.Row
		for j := start; j < i; j++ {
			if span == 0 {
				pts[j].Col = before.Col
			} else {
				pts[j].Col = before.Col + (after.Col-before.Col)*(pts[j].Row-before.Row)/span
			}
			repaired++
		}
	}
	return repaired
}

// CountLost returns how many samples satisfy lost.
func CountLost(pts []EdgePoint, lost func(EdgePoint) bool) int {
	n := 0
	for _, p := range pts {
		if lost(p) {
			n++
		}
	}
	return n
}
