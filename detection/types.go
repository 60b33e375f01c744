package detection

import (
	"fmt"
	"image"
	"strings"
)

// Label identifies a sign or object class produced by the detector.
type Label int

const (
	LabelUnknown Label = iota
	LabelBattery
	LabelBlock
	LabelBridge
	LabelBurger
	LabelCar
	LabelCompany
	LabelCone
	LabelCrosswalk
	LabelPedestrian
	LabelSchool
)

var labelNames = map[Label]string{
	LabelUnknown:    "unknown",
	LabelBattery:    "battery",
	LabelBlock:      "block",
	LabelBridge:     "bridge",
	LabelBurger:     "burger",
	LabelCar:        "car",
	LabelCompany:    "company",
	LabelCone:       "cone",
	LabelCrosswalk:  "crosswalk",
	LabelPedestrian: "pedestrian",
	LabelSchool:     "school",
}

func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLabel maps a model class name to a Label. Matching ignores case and
// surrounding whitespace, since names files often carry trailing "\r".
func ParseLabel(className string) Label {
	name := strings.ToLower(strings.TrimSpace(className))
	for label, candidate := range labelNames {
		if candidate == name {
			return label
		}
	}
	return LabelUnknown
}

// MarshalText lets labels appear by name in config files.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(text []byte) error {
	parsed := ParseLabel(string(text))
	if parsed == LabelUnknown {
		return fmt.Errorf("unknown label %q", string(text))
	}
	*l = parsed
	return nil
}

// Detection is one scored bounding box from a single frame. Detections carry
// no identity across frames.
type Detection struct {
	Label  Label
	X      int
	Y      int
	Width  int
	Height int
	Score  float64
}

// Bottom returns the row of the lower box edge.
func (d Detection) Bottom() int {
	return d.Y + d.Height
}

// CenterX returns the column of the box center.
func (d Detection) CenterX() int {
	return d.X + d.Width/2
}

// CenterY returns the row of the box center.
func (d Detection) CenterY() int {
	return d.Y + d.Height/2
}

// Rect returns the box as an image rectangle.
func (d Detection) Rect() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height)
}

// boxFromNormalized converts a YOLO center/size box in [0,1] model space to
// pixel space of a cols x rows frame.
func boxFromNormalized(xNorm, yNorm, wNorm, hNorm float32, cols, rows int) image.Rectangle {
	centerX := int(xNorm * float32(cols))
	centerY := int(yNorm * float32(rows))
	width := int(wNorm * float32(cols))
	height := int(hNorm * float32(rows))
	left := centerX - width/2
	top := centerY - height/2
	return image.Rect(left, top, left+width, top+height)
}
