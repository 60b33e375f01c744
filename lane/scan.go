package lane

import "gocv.io/x/gocv"

// ScanTracker is a minimal base tracker: starting from the bottom row it
// walks outward from the previous row's lane center until it meets a dark
// pixel on each side. Rows above RowCutUp and below rows-RowCutBottom are
// skipped.
type ScanTracker struct {
	RowCutUp     int `toml:"row_cut_up"`
	RowCutBottom int `toml:"row_cut_bottom"`
}

// Track extracts boundary sequences from a single-channel binary frame where
// track pixels are non-zero. Samples are ordered bottom-up.
func (t ScanTracker) Track(binary gocv.Mat) Edges {
	var edges Edges
	if binary.Empty() || binary.Channels() != 1 {
		return edges
	}

	rows, cols := binary.Rows(), binary.Cols()
	center := cols / 2
	for row := rows - 1 - t.RowCutBottom; row >= t.RowCutUp; row-- {
		if binary.GetUCharAt(row, center) == 0 {
			break
		}

		left := center
		for left > 0 && binary.GetUCharAt(row, left) != 0 {
			left--
		}
		right := center
		for right < cols-1 && binary.GetUCharAt(row, right) != 0 {
			right++
		}

		edges.Left = append(edges.Left, EdgePoint{Row: row, Col: left})
		edges.Right = append(edges.Right, EdgePoint{Row: row, Col: right})
		center = (left + right) / 2
	}
	return edges
}
