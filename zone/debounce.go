package zone

// Outcome is the result of feeding one frame to a Debouncer.
type Outcome int

const (
	// Idle means no qualifying hit has been seen since the last reset.
	Idle Outcome = iota
	// Pending means a session is open but undecided.
	Pending
	// Entered means K hits arrived inside the session window.
	Entered
	// Aborted means the window closed before K hits.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Entered:
		return "entered"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// DebounceConfig holds the hit count K and session window N.
type DebounceConfig struct {
	Hits   int `toml:"hits"`
	Window int `toml:"window"`
}

// Debouncer commits to a noisy boolean once Hits qualifying frames arrive
// before the session reaches Window frames. The session opens on the first
// hit and only restarts when both counters are cleared.
type Debouncer struct {
	cfg     DebounceConfig
	rec     int
	session int
}

func NewDebouncer(cfg DebounceConfig) *Debouncer {
	return &Debouncer{cfg: cfg}
}

// Observe feeds one frame.
func (d *Debouncer) Observe(hit bool) Outcome {
	if hit {
		d.rec++
	}
	if d.rec == 0 {
		return Idle
	}

	d.session++
	switch {
	case d.rec >= d.cfg.Hits && d.session < d.cfg.Window:
		d.Reset()
		return Entered
	case d.session >= d.cfg.Window:
		d.Reset()
		return Aborted
	}
	return Pending
}

// Counters returns the hit and session counters.
func (d *Debouncer) Counters() (rec, session int) {
	return d.rec, d.session
}

func (d *Debouncer) Reset() {
	d.rec = 0
	d.session = 0
}
