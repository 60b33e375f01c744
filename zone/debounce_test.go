package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func observeAll(d *Debouncer, hits ...bool) []Outcome {
	out := make([]Outcome, len(hits))
	for i, h := range hits {
		out[i] = d.Observe(h)
	}
	return out
}

func TestDebouncerEntersOnThreeOfFive(t *testing.T) {
	d := NewDebouncer(DebounceConfig{Hits: 3, Window: 8})

	got := observeAll(d, true, false, true, false, true)

	assert.Equal(t, []Outcome{Pending, Pending, Pending, Pending, Entered}, got)
	rec, session := d.Counters()
	assert.Zero(t, rec)
	assert.Zero(t, session)
}

func TestDebouncerAbortsOnTwoOfEight(t *testing.T) {
	d := NewDebouncer(DebounceConfig{Hits: 3, Window: 8})

	got := observeAll(d, true, true, false, false, false, false, false, false)

	assert.Equal(t, Aborted, got[7])
	for _, o := range got[:7] {
		assert.Equal(t, Pending, o)
	}
	rec, session := d.Counters()
	assert.Zero(t, rec)
	assert.Zero(t, session)
}

func TestDebouncerIdleUntilFirstHit(t *testing.T) {
	d := NewDebouncer(DebounceConfig{Hits: 3, Window: 8})

	for i := 0; i < 20; i++ {
		assert.Equal(t, Idle, d.Observe(false))
	}
	_, session := d.Counters()
	assert.Zero(t, session, "the session window only opens on a hit")
}

func TestDebouncerSparseSignalStillEnters(t *testing.T) {
	d := NewDebouncer(DebounceConfig{Hits: 3, Window: 8})

	got := observeAll(d, true, false, false, true, false, false, true)

	assert.Equal(t, Entered, got[6])
}

func TestDebouncerHitOnClosingFrameAborts(t *testing.T) {
	d := NewDebouncer(DebounceConfig{Hits: 3, Window: 8})

	got := observeAll(d, true, false, false, false, false, false, true, true)

	assert.Equal(t, Aborted, got[7], "the third hit lands when the session reaches the window")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "entered", Entered.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
