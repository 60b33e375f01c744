package pipeline

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"trackpilot/lane"
)

// CenterLineConfig tunes the reference control center.
type CenterLineConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	// AimRow is the fraction of frame height the fitted center is read at.
	AimRow float64 `toml:"aim_row"`
	Gain   float64 `toml:"gain"`
	// Speeds are interpolated between MaxSpeed on a straight and MinSpeed at
	// full servo deflection.
	MaxSpeed float64 `toml:"max_speed"`
	MinSpeed float64 `toml:"min_speed"`
	// The vehicle is derailed after LostFrames consecutive frames with fewer
	// than MinRows tracked rows.
	MinRows    int `toml:"min_rows"`
	LostFrames int `toml:"lost_frames"`
	// Smoothing runs the aim column through a Kalman filter across frames.
	Smoothing        bool    `toml:"smoothing"`
	ProcessNoise     float64 `toml:"process_noise"`
	MeasurementNoise float64 `toml:"measurement_noise"`
}

func DefaultCenterLineConfig() CenterLineConfig {
	return CenterLineConfig{
		Width:            320,
		Height:           240,
		AimRow:           0.6,
		Gain:             1.2,
		MaxSpeed:         1.2,
		MinSpeed:         0.8,
		MinRows:          10,
		LostFrames:       5,
		Smoothing:        true,
		ProcessNoise:     0.5,
		MeasurementNoise: 8,
	}
}

// CenterLine fits a straight line through the midpoints of the lane edges
// and steers toward it.
type CenterLine struct {
	cfg    CenterLineConfig
	filter *columnFilter
	lost   int
}

func NewCenterLine(cfg CenterLineConfig) *CenterLine {
	c := &CenterLine{cfg: cfg}
	if cfg.Smoothing {
		c.filter = newColumnFilter(cfg.ProcessNoise, cfg.MeasurementNoise)
	}
	return c
}

func (c *CenterLine) Fit(edges *lane.Edges) Steering {
	col, ok := c.aimColumn(edges)
	if !ok {
		return Steering{Speed: c.cfg.MinSpeed}
	}
	if c.filter != nil {
		col = c.filter.Update(col)
	}
	half := float64(c.cfg.Width) / 2
	servo := clamp(c.cfg.Gain*(col-half)/half, -1, 1)
	speed := c.cfg.MaxSpeed - (c.cfg.MaxSpeed-c.cfg.MinSpeed)*math.Abs(servo)
	return Steering{Servo: servo, Speed: speed}
}

// aimColumn regresses midpoint column on row and evaluates it at the aim row.
func (c *CenterLine) aimColumn(edges *lane.Edges) (float64, bool) {
	if edges == nil {
		return 0, false
	}
	n := min(len(edges.Left), len(edges.Right))
	if n == 0 {
		return 0, false
	}
	rows := make([]float64, 0, n)
	cols := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		l, r := edges.Left[i], edges.Right[i]
		rows = append(rows, float64(l.Row+r.Row)/2)
		cols = append(cols, float64(l.Col+r.Col)/2)
	}
	if n == 1 || stat.Variance(rows, nil) == 0 {
		return stat.Mean(cols, nil), true
	}
	alpha, beta := stat.LinearRegression(rows, cols, nil, false)
	return alpha + beta*float64(c.cfg.Height)*c.cfg.AimRow, true
}

func (c *CenterLine) Derailed(edges *lane.Edges) bool {
	rows := 0
	if edges != nil {
		rows = min(len(edges.Left), len(edges.Right))
	}
	if rows >= c.cfg.MinRows {
		c.lost = 0
		return false
	}
	c.lost++
	return c.lost >= c.cfg.LostFrames
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
