package zone

import (
	"slices"

	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/pkg/log"
	"trackpilot/vision"
)

type LaybyConfig struct {
	Debounce DebounceConfig     `toml:"debounce"`
	Sign     SignRule           `toml:"sign"`
	Hough    vision.HoughParams `toml:"hough"`
	// Stop-line candidates must be flatter than MaxSlope and have their
	// midpoint strictly inside (BandTop, BandBottom).
	MaxSlope      float64 `toml:"max_slope"`
	BandTop       int     `toml:"band_top"`
	BandBottom    int     `toml:"band_bottom"`
	MergeDistance int     `toml:"merge_distance"`
	// Moment is the row a lone stop line must pass to trigger the stop.
	Moment     int `toml:"moment"`
	StopFrames int `toml:"stop_frames"`
}

func DefaultLaybyConfig() LaybyConfig {
	return LaybyConfig{
		Debounce: DebounceConfig{Hits: 4, Window: 8},
		Sign: SignRule{
			Labels:    []detection.Label{detection.LabelSchool, detection.LabelCompany},
			MinScore:  0.6,
			MinBottom: 0.1,
		},
		Hough: vision.HoughParams{
			Blur: true, CannyLow: 30, CannyHigh: 150,
			Threshold: 25, MinLineLength: 40, MaxLineGap: 20,
		},
		MaxSlope:      0.5,
		BandTop:       30,
		BandBottom:    200,
		MergeDistance: 20,
		Moment:        110,
		StopFrames:    40,
	}
}

// Layby narrows the road to the signed lane, watches for the two curb lines
// of the bay and stops once the far one passes the stop row.
type Layby struct {
	cfg       LaybyConfig
	extractor vision.SegmentExtractor
	debounce  *Debouncer

	enabled    bool
	leftEnable bool
	searching  bool
	stopEnable bool
	counter    int
	merged     []vision.Segment

	maneuverID string
	log        *log.Entry
}

func NewLayby(cfg LaybyConfig, extractor vision.SegmentExtractor) *Layby {
	if extractor == nil {
		extractor = vision.NewHoughExtractor(cfg.Hough)
	}
	l := &Layby{cfg: cfg, extractor: extractor, debounce: NewDebouncer(cfg.Debounce)}
	l.Reset()
	return l
}

func (l *Layby) Process(f *Frame) bool {
	if !l.enabled {
		return l.watchSign(f)
	}

	leftMost := f.Width
	if f.Edges != nil {
		lane.Collapse(f.Edges, l.leftEnable)
		leftMost = lane.MinCol(f.Edges.Left, f.Width)
	}
	l.mergeStopLines(l.extractor.Segments(f.Binary), leftMost)

	l.counter++
	switch {
	case l.counter > l.cfg.StopFrames:
		l.log.WithField("frames", l.counter).Info("layby finished")
		l.Reset()
	case len(l.merged) == 2:
		if !l.searching {
			l.log.Debug("both bay lines found")
		}
		l.searching = true
	case l.searching && len(l.merged) == 1 && l.merged[0].P1.Y > l.cfg.Moment:
		l.log.WithField("row", l.merged[0].P1.Y).Info("layby stop")
		l.stopEnable = true
		l.searching = false
	}
	return true
}

func (l *Layby) watchSign(f *Frame) bool {
	sign, ok := l.cfg.Sign.Match(f.Detections, f.Height)
	if ok {
		l.leftEnable = onLeft(sign, f.Width)
	}

	switch l.debounce.Observe(ok) {
	case Entered:
		l.enabled = true
		l.maneuverID, l.log = maneuverLog("layby")
		l.log.WithField("left", l.leftEnable).Info("layby zone entered")
		return true
	case Aborted:
		l.log.Debug("layby sign not confirmed")
	}
	return false
}

// mergeStopLines keeps near-horizontal segments inside the band and right of
// the lane's leftmost column, merging those whose midpoints are close.
func (l *Layby) mergeStopLines(segs []vision.Segment, leftMost int) {
	segs = slices.Clone(segs)
	slices.SortStableFunc(segs, func(a, b vision.Segment) int {
		return a.MidY() - b.MidY()
	})

	l.merged = l.merged[:0]
	for _, s := range segs {
		midY := s.MidY()
		if s.AbsSlope() > l.cfg.MaxSlope || midY <= l.cfg.BandTop || midY >= l.cfg.BandBottom {
			continue
		}
		if s.P1.X < leftMost || s.P2.X < leftMost {
			continue
		}

		merged := false
		for i := range l.merged {
			m := &l.merged[i]
			if abs(m.MidY()-midY) < l.cfg.MergeDistance {
				avgY := (m.MidY() + midY) / 2
				*m = vision.Seg(min(m.MinX(), s.MinX()), avgY, max(m.MaxX(), s.MaxX()), avgY)
				merged = true
				break
			}
		}
		if !merged {
			l.merged = append(l.merged, s)
		}
	}
}

func (l *Layby) DrawImage(edges *lane.Edges, canvas *gocv.Mat) {
	renderer.DrawEdges(canvas, edges)
	renderer.DrawSegments(canvas, l.merged)
	if l.enabled {
		renderer.DrawBanner(canvas, "[1] Layby - ENABLE")
	}
}

func (l *Layby) Active() bool      { return l.enabled }
func (l *Layby) StopEnabled() bool { return l.stopEnable }
func (l *Layby) LeftEnable() bool  { return l.leftEnable }
func (l *Layby) Searching() bool   { return l.searching }

// MergedLines returns a copy of the current stop-line candidates.
func (l *Layby) MergedLines() []vision.Segment {
	return slices.Clone(l.merged)
}

func (l *Layby) ManeuverID() string { return l.maneuverID }

func (l *Layby) Reset() {
	l.debounce.Reset()
	l.enabled = false
	l.leftEnable = true
	l.searching = false
	l.stopEnable = false
	l.counter = 0
	l.merged = l.merged[:0]
	l.maneuverID = ""
	l.log = log.Component("layby")
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
