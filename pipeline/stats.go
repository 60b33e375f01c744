package pipeline

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"trackpilot/pkg/log"
)

// StageStats summarizes the recent durations of one pipeline stage in
// milliseconds.
type StageStats struct {
	Samples int
	Mean    float64
	StdDev  float64
	Max     float64
}

// Stats keeps a bounded window of per-stage durations.
type Stats struct {
	window  int
	samples map[string][]float64
}

func NewStats(window int) *Stats {
	if window <= 0 {
		window = 1
	}
	return &Stats{window: window, samples: make(map[string][]float64)}
}

func (s *Stats) Observe(stage string, d time.Duration) {
	xs := append(s.samples[stage], float64(d)/float64(time.Millisecond))
	if len(xs) > s.window {
		xs = xs[len(xs)-s.window:]
	}
	s.samples[stage] = xs
}

func (s *Stats) Stage(stage string) StageStats {
	xs := s.samples[stage]
	if len(xs) == 0 {
		return StageStats{}
	}
	out := StageStats{Samples: len(xs)}
	if len(xs) == 1 {
		out.Mean = xs[0]
	} else {
		out.Mean, out.StdDev = stat.MeanStdDev(xs, nil)
	}
	for _, x := range xs {
		out.Max = max(out.Max, x)
	}
	return out
}

func (s *Stats) Stages() []string {
	names := make([]string, 0, len(s.samples))
	for name := range s.samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Log writes one line per stage.
func (s *Stats) Log(entry *log.Entry) {
	for _, name := range s.Stages() {
		st := s.Stage(name)
		entry.WithFields(log.Fields{
			"stage":   name,
			"samples": st.Samples,
			"mean_ms": st.Mean,
			"std_ms":  st.StdDev,
			"max_ms":  st.Max,
		}).Info("stage timing")
	}
}
