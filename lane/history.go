package lane

// History is a bounded stack of boundary snapshots. Pushing onto a full
// history drops the oldest snapshot, so memory stays within the maneuver's
// frame budget.
type History struct {
	snapshots [][]EdgePoint
	capacity  int
}

// NewHistory returns an empty history holding at most capacity snapshots.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity}
}

// Push records a copy of pts as the newest snapshot.
func (h *History) Push(pts []EdgePoint) {
	if len(h.snapshots) == h.capacity {
		copy(h.snapshots, h.snapshots[1:])
		h.snapshots = h.snapshots[:len(h.snapshots)-1]
	}
	h.snapshots = append(h.snapshots, clonePoints(pts))
}

// Pop removes and returns the newest snapshot.
func (h *History) Pop() ([]EdgePoint, bool) {
	if len(h.snapshots) == 0 {
		return nil, false
	}
	last := h.snapshots[len(h.snapshots)-1]
	h.snapshots[len(h.snapshots)-1] = nil
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return last, true
}

func (h *History) Len() int      { return len(h.snapshots) }
func (h *History) Empty() bool   { return len(h.snapshots) == 0 }
func (h *History) Capacity() int { return h.capacity }

// Clear drops every snapshot.
func (h *History) Clear() {
	for i := range h.snapshots {
		h.snapshots[i] = nil
	}
	h.snapshots = h.snapshots[:0]
}
