package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/vision"
)

// Renderer handles diagnostic drawing for the debug view
type Renderer struct {
	leftColor      color.RGBA
	rightColor     color.RGBA
	segmentColor   color.RGBA
	railColor      color.RGBA
	detectionColor color.RGBA
	bannerColor    color.RGBA
	badgeColor     color.RGBA
	textColor      color.RGBA
	speedColor     color.RGBA
}

func NewRenderer() *Renderer {
	return &Renderer{
		leftColor:      color.RGBA{0, 255, 0, 255},     // Green for the left boundary
		rightColor:     color.RGBA{255, 255, 0, 255},   // Yellow for the right boundary
		segmentColor:   color.RGBA{255, 0, 0, 255},     // Red for Hough segments
		railColor:      color.RGBA{255, 0, 255, 255},   // Magenta for extrapolated rails
		detectionColor: color.RGBA{0x11, 0x8a, 0x28, 0}, // Alpha follows confidence
		bannerColor:    color.RGBA{0, 255, 0, 255},
		badgeColor:     color.RGBA{250, 120, 40, 255},
		textColor:      color.RGBA{255, 255, 255, 255},
		speedColor:     color.RGBA{255, 0, 0, 255},
	}
}

// DrawEdges plots every boundary sample as a filled dot.
func (r *Renderer) DrawEdges(img *gocv.Mat, edges *lane.Edges) {
	if edges == nil {
		return
	}
	for _, p := range edges.Left {
		gocv.Circle(img, p.Point(), 1, r.leftColor, -1)
	}
	for _, p := range edges.Right {
		gocv.Circle(img, p.Point(), 1, r.rightColor, -1)
	}
}

// DrawSegments draws line segments in the segment color.
func (r *Renderer) DrawSegments(img *gocv.Mat, segs []vision.Segment) {
	for _, s := range segs {
		gocv.Line(img, s.P1, s.P2, r.segmentColor, 2)
	}
}

// DrawRail draws the segment a maneuver is steering along as a dashed line.
func (r *Renderer) DrawRail(img *gocv.Mat, s vision.Segment) {
	if s.P1 == s.P2 {
		return
	}
	r.drawDashedLine(img, s.P1, s.P2, r.railColor, 2)
}

// DrawDetections outlines each detection with corner brackets and a label.
func (r *Renderer) DrawDetections(img *gocv.Mat, dets []detection.Detection) {
	for _, d := range dets {
		c := r.detectionColor
		c.A = uint8(200 + 55*math.Min(math.Max(d.Score, 0), 1))
		rect := d.Rect()
		r.drawCornerBrackets(img, rect, c, 2, 8)

		label := fmt.Sprintf("%s %.0f%%", d.Label, d.Score*100)
		labelPos := image.Point{rect.Min.X, rect.Min.Y - 4}
		// Keep the label inside the frame
		if labelPos.Y < 10 {
			labelPos.Y = rect.Max.Y + 12
		}
		gocv.PutText(img, label, labelPos, gocv.FontHersheySimplex, 0.35, c, 1)
	}
}

// DrawBanner writes the active-zone status line at the top center.
func (r *Renderer) DrawBanner(img *gocv.Mat, text string) {
	pos := image.Pt(img.Cols()/2-30, 10)
	gocv.PutText(img, text, pos, gocv.FontHersheyTriplex, 0.3, r.bannerColor, 1)
}

// DrawScene prints the scene name in the bottom left corner, clear of the
// zone banner.
func (r *Renderer) DrawScene(img *gocv.Mat, name string) {
	pos := image.Pt(5, img.Rows()-8)
	gocv.PutText(img, name, pos, gocv.FontHersheyPlain, 1, r.bannerColor, 1)
}

// DrawBadge stamps a single letter in a disc at the frame center.
func (r *Renderer) DrawBadge(img *gocv.Mat, letter string) {
	center := image.Pt(img.Cols()/2, img.Rows()/2)
	gocv.Circle(img, center, 40, r.badgeColor, -1)
	gocv.PutText(img, letter, image.Pt(center.X-25, center.Y+27), gocv.FontHersheyPlain, 5, r.textColor, 3)
}

// DrawSpeed prints the commanded speed near the top right.
func (r *Renderer) DrawSpeed(img *gocv.Mat, speed float64) {
	pos := image.Pt(img.Cols()-70, 80)
	gocv.PutText(img, fmt.Sprintf("%.1fm/s", speed), pos, gocv.FontHersheyPlain, 1, r.speedColor, 1)
}

func (r *Renderer) drawDashedLine(img *gocv.Mat, start, end image.Point, c color.RGBA, thickness int) {
	dx := float64(end.X - start.X)
	dy := float64(end.Y - start.Y)
	length := math.Hypot(dx, dy)
	angle := math.Atan2(dy, dx)

	const dashLength, gapLength = 10.0, 5.0
	for cur := 0.0; cur < length; cur += dashLength + gapLength {
		stop := math.Min(cur+dashLength, length)
		dashStart := image.Point{
			X: start.X + int(cur*math.Cos(angle)),
			Y: start.Y + int(cur*math.Sin(angle)),
		}
		dashEnd := image.Point{
			X: start.X + int(stop*math.Cos(angle)),
			Y: start.Y + int(stop*math.Sin(angle)),
		}
		gocv.Line(img, dashStart, dashEnd, c, thickness)
	}
}

func (r *Renderer) drawCornerBrackets(img *gocv.Mat, rect image.Rectangle, c color.RGBA, thickness, length int) {
	// Top-left corner
	gocv.Line(img, rect.Min, image.Point{rect.Min.X + length, rect.Min.Y}, c, thickness)
	gocv.Line(img, rect.Min, image.Point{rect.Min.X, rect.Min.Y + length}, c, thickness)

	// Top-right corner
	gocv.Line(img, image.Point{rect.Max.X, rect.Min.Y}, image.Point{rect.Max.X - length, rect.Min.Y}, c, thickness)
	gocv.Line(img, image.Point{rect.Max.X, rect.Min.Y}, image.Point{rect.Max.X, rect.Min.Y + length}, c, thickness)

	// Bottom-left corner
	gocv.Line(img, image.Point{rect.Min.X, rect.Max.Y}, image.Point{rect.Min.X + length, rect.Max.Y}, c, thickness)
	gocv.Line(img, image.Point{rect.Min.X, rect.Max.Y}, image.Point{rect.Min.X, rect.Max.Y - length}, c, thickness)

	// Bottom-right corner
	gocv.Line(img, rect.Max, image.Point{rect.Max.X - length, rect.Max.Y}, c, thickness)
	gocv.Line(img, rect.Max, image.Point{rect.Max.X, rect.Max.Y - length}, c, thickness)
}
