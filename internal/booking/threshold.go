package booking

// Threshold bounds for the notify-me-at-position setting.
const (
	MinThreshold = 1
	MaxThreshold = 10
)

// ClampThreshold forces a threshold into the allowed 1..10 range.
func ClampThreshold(v int) int {
	if v < MinThreshold {
		return MinThreshold
	}
	if v > MaxThreshold {
		return MaxThreshold
	}
	return v
}

// ThresholdEditor buffers notification-threshold edits locally. Nothing is
// sent to the backend until the caller commits; discarding an edit restores
// the last saved value. Confined to the UI update loop, so no locking.
type ThresholdEditor struct {
	editing bool
	buffer  int
}

// Editing reports whether an edit is in progress.
func (e *ThresholdEditor) Editing() bool {
	return e.editing
}

// Begin starts editing from the current saved value.
func (e *ThresholdEditor) Begin(current int) {
	e.editing = true
	e.buffer = ClampThreshold(current)
}

// Value returns the buffered value while editing, zero otherwise.
func (e *ThresholdEditor) Value() int {
	if !e.editing {
		return 0
	}
	return e.buffer
}

// Adjust moves the buffered value by delta, clamped to the allowed range.
func (e *ThresholdEditor) Adjust(delta int) {
	if !e.editing {
		return
	}
	e.buffer = ClampThreshold(e.buffer + delta)
}

// Set replaces the buffered value, clamped to the allowed range.
func (e *ThresholdEditor) Set(v int) {
	if !e.editing {
		return
	}
	e.buffer = ClampThreshold(v)
}

// Commit ends the edit and returns the value to save. The caller sends it to
// the backend and records it in the lifecycle on acknowledgment.
func (e *ThresholdEditor) Commit() (int, bool) {
	if !e.editing {
		return 0, false
	}
	e.editing = false
	return e.buffer, true
}

// Discard ends the edit and drops the buffered value.
func (e *ThresholdEditor) Discard() {
	e.editing = false
	e.buffer = 0
}
