package zone

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/pkg/log"
)

const (
	testW = 320
	testH = 240
)

var emptyMat = gocv.NewMat()

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// straightEdges returns a lane with the left edge on column 60 and the right
// on column 260, sampled bottom-up from row 230 to row 40.
func straightEdges() *lane.Edges {
	e := &lane.Edges{}
	for row := 230; row >= 40; row-- {
		e.Left = append(e.Left, lane.EdgePoint{Row: row, Col: 60})
		e.Right = append(e.Right, lane.EdgePoint{Row: row, Col: 260})
	}
	return e
}

func newFrame(dets ...detection.Detection) *Frame {
	return &Frame{
		Width:      testW,
		Height:     testH,
		Binary:     emptyMat,
		Detections: dets,
		Edges:      straightEdges(),
	}
}

func TestSignRuleMatch(t *testing.T) {
	rule := SignRule{
		Labels:    []detection.Label{detection.LabelSchool, detection.LabelCompany},
		MinScore:  0.6,
		MinBottom: 0.1,
	}
	tests := []struct {
		name string
		det  detection.Detection
		want bool
	}{
		{"qualifies", detection.Detection{Label: detection.LabelCompany, Y: 20, Height: 20, Score: 0.7}, true},
		{"wrong label", detection.Detection{Label: detection.LabelBurger, Y: 20, Height: 20, Score: 0.7}, false},
		{"score at threshold", detection.Detection{Label: detection.LabelSchool, Y: 20, Height: 20, Score: 0.6}, false},
		{"too high in frame", detection.Detection{Label: detection.LabelSchool, Y: 0, Height: 24, Score: 0.9}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := rule.Match([]detection.Detection{tt.det}, testH)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestSignRuleWithoutPositionCheck(t *testing.T) {
	rule := SignRule{Labels: []detection.Label{detection.LabelBattery}, MinScore: 0.4}
	d, ok := rule.Match([]detection.Detection{
		{Label: detection.LabelCar, Score: 0.9},
		{Label: detection.LabelBattery, Y: 0, Height: 1, Score: 0.5},
	}, testH)
	assert.True(t, ok)
	assert.Equal(t, detection.LabelBattery, d.Label)
}

func TestColAtPicksNearestRow(t *testing.T) {
	pts := []lane.EdgePoint{{Row: 100, Col: 10}, {Row: 90, Col: 20}, {Row: 80, Col: 30}}
	col, ok := colAt(pts, 88)
	assert.True(t, ok)
	assert.Equal(t, 20, col)

	_, ok = colAt(nil, 10)
	assert.False(t, ok)
}
