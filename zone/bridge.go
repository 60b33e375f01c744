package zone

import (
	"gocv.io/x/gocv"

	"trackpilot/detection"
	"trackpilot/lane"
	"trackpilot/pkg/log"
)

type BridgeConfig struct {
	Debounce   DebounceConfig `toml:"debounce"`
	Sign       SignRule       `toml:"sign"`
	HoldFrames int            `toml:"hold_frames"`
}

func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Debounce: DebounceConfig{Hits: 3, Window: 8},
		Sign: SignRule{
			Labels:    []detection.Label{detection.LabelBridge},
			MinScore:  0.6,
			MinBottom: 0.2,
		},
		HoldFrames: 40,
	}
}

// Bridge holds the ramp speed for a fixed number of frames once the ramp
// sign is confirmed. It never edits the lane.
type Bridge struct {
	cfg      BridgeConfig
	debounce *Debouncer

	enabled bool
	counter int

	maneuverID string
	log        *log.Entry
}

func NewBridge(cfg BridgeConfig) *Bridge {
	b := &Bridge{cfg: cfg, debounce: NewDebouncer(cfg.Debounce)}
	b.Reset()
	return b
}

func (b *Bridge) Process(f *Frame) bool {
	if !b.enabled {
		_, ok := b.cfg.Sign.Match(f.Detections, f.Height)
		if b.debounce.Observe(ok) != Entered {
			return false
		}
		b.enabled = true
		b.maneuverID, b.log = maneuverLog("bridge")
		b.log.Info("bridge zone entered")
		return true
	}

	b.counter++
	if b.counter > b.cfg.HoldFrames {
		b.log.Info("bridge passed")
		b.Reset()
		return false
	}
	return true
}

func (b *Bridge) DrawImage(edges *lane.Edges, canvas *gocv.Mat) {
	renderer.DrawEdges(canvas, edges)
	if b.enabled {
		renderer.DrawBanner(canvas, "[1] Bridge - ENABLE")
	}
}

func (b *Bridge) Active() bool { return b.enabled }

func (b *Bridge) Reset() {
	b.debounce.Reset()
	b.enabled = false
	b.counter = 0
	b.maneuverID = ""
	b.log = log.Component("bridge")
}
