package vision

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// SegmentExtractor finds line segments in a binary frame. Recognizers take
// one so tests can feed synthetic segments.
type SegmentExtractor interface {
	Segments(binary gocv.Mat) []Segment
}

// HoughParams selects the edge and line detector settings for one caller.
type HoughParams struct {
	Blur          bool    `toml:"blur"`
	CannyLow      float32 `toml:"canny_low"`
	CannyHigh     float32 `toml:"canny_high"`
	Threshold     int     `toml:"threshold"`
	MinLineLength float32 `toml:"min_line_length"`
	MaxLineGap    float32 `toml:"max_line_gap"`
}

// HoughExtractor runs an optional 3x3 Gaussian blur, Canny and the
// probabilistic Hough transform with rho=1 and theta=1 degree.
type HoughExtractor struct {
	Params HoughParams
}

func NewHoughExtractor(p HoughParams) *HoughExtractor {
	return &HoughExtractor{Params: p}
}

// Segments implements SegmentExtractor. An empty frame yields no segments.
func (h *HoughExtractor) Segments(binary gocv.Mat) []Segment {
	if binary.Empty() {
		return nil
	}

	src := binary
	if h.Params.Blur {
		blurred := gocv.NewMat()
		defer blurred.Close()
		gocv.GaussianBlur(binary, &blurred, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
		src = blurred
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(src, &edges, h.Params.CannyLow, h.Params.CannyHigh)

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, h.Params.Threshold,
		h.Params.MinLineLength, h.Params.MaxLineGap)

	return segmentsFromMat(lines)
}

// segmentsFromMat converts an Nx1 CV_32SC4 Hough result.
func segmentsFromMat(lines gocv.Mat) []Segment {
	if lines.Empty() {
		return nil
	}
	segs := make([]Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		if len(v) < 4 {
			continue
		}
		segs = append(segs, Seg(int(v[0]), int(v[1]), int(v[2]), int(v[3])))
	}
	return segs
}

// StaticExtractor returns the same segments for every frame.
type StaticExtractor []Segment

func (s StaticExtractor) Segments(gocv.Mat) []Segment {
	out := make([]Segment, len(s))
	copy(out, s)
	return out
}

// ExtractorFunc adapts a function to SegmentExtractor.
type ExtractorFunc func(binary gocv.Mat) []Segment

func (f ExtractorFunc) Segments(binary gocv.Mat) []Segment { return f(binary) }
