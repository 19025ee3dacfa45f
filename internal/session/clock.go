package session

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when an operation is not legal from the
// clock's current state. Callers that want the legacy ignore-and-continue
// behavior discard it; nothing is mutated when it is returned.
var ErrInvalidTransition = errors.New("invalid session transition")

// State is the lifecycle state of a service session clock.
type State int

const (
	// StateIdle means no session is active.
	StateIdle State = iota
	// StateRunning means a session is active and the clock is ticking.
	StateRunning
	// StatePaused means a session is active but the clock is frozen.
	StatePaused
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Clock tracks a barber's single active service session. At most one session
// exists per barber; the zero of concurrent sessions is enforced here by the
// Start guard, not by the backend.
//
// Invariants: state == StatePaused exactly when a pause anchor is held, and
// the accumulated pause total only grows, only on a pause-to-resume edge.
type Clock struct {
	state       State
	startedAt   time.Time
	pausedAt    time.Time
	totalPaused time.Duration

	now func() time.Time
}

// NewClock returns an idle clock using the wall clock.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockAt returns an idle clock reading time from now; used by tests and
// by board reconstruction from backend timestamps.
func NewClockAt(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// State returns the current lifecycle state.
func (c *Clock) State() State {
	return c.state
}

// Active reports whether a session is running or paused.
func (c *Clock) Active() bool {
	return c.state != StateIdle
}

// StartedAt returns the current session anchor, zero when idle.
func (c *Clock) StartedAt() time.Time {
	return c.startedAt
}

// Start begins a session. Legal only from idle; starting while a session is
// running or paused fails without mutating anything.
func (c *Clock) Start() error {
	if c.state != StateIdle {
		return fmt.Errorf("start from %s: %w", c.state, ErrInvalidTransition)
	}
	c.state = StateRunning
	c.startedAt = c.now()
	c.pausedAt = time.Time{}
	c.totalPaused = 0
	return nil
}

// Adopt begins a session anchored at a past instant, for reconstructing a
// session the backend reports as already in progress. Legal only from idle.
func (c *Clock) Adopt(startedAt time.Time) error {
	if c.state != StateIdle {
		return fmt.Errorf("adopt from %s: %w", c.state, ErrInvalidTransition)
	}
	if startedAt.IsZero() {
		startedAt = c.now()
	}
	c.state = StateRunning
	c.startedAt = startedAt
	c.pausedAt = time.Time{}
	c.totalPaused = 0
	return nil
}

// Pause freezes the clock. Legal only from running.
func (c *Clock) Pause() error {
	if c.state != StateRunning {
		return fmt.Errorf("pause from %s: %w", c.state, ErrInvalidTransition)
	}
	c.state = StatePaused
	c.pausedAt = c.now()
	return nil
}

// Resume unfreezes the clock, folding the open pause interval into the
// accumulated total. Legal only from paused.
func (c *Clock) Resume() error {
	if c.state != StatePaused {
		return fmt.Errorf("resume from %s: %w", c.state, ErrInvalidTransition)
	}
	c.totalPaused += c.now().Sub(c.pausedAt)
	c.pausedAt = time.Time{}
	c.state = StateRunning
	return nil
}

// Reset re-anchors the session at now, discarding all pause history. The
// session keeps running; bucket membership is unaffected. Legal from running
// or paused.
func (c *Clock) Reset() error {
	if c.state == StateIdle {
		return fmt.Errorf("reset from %s: %w", c.state, ErrInvalidTransition)
	}
	c.state = StateRunning
	c.startedAt = c.now()
	c.pausedAt = time.Time{}
	c.totalPaused = 0
	return nil
}

// End finishes the session and returns the final elapsed duration. Legal from
// running or paused; the clock is idle afterwards.
func (c *Clock) End() (time.Duration, error) {
	if c.state == StateIdle {
		return 0, fmt.Errorf("end from %s: %w", c.state, ErrInvalidTransition)
	}
	elapsed := c.Elapsed()
	c.state = StateIdle
	c.startedAt = time.Time{}
	c.pausedAt = time.Time{}
	c.totalPaused = 0
	return elapsed, nil
}

// Abort tears the session down without producing a summary, for cancellation
// of the in-session client. Idle clocks are left alone.
func (c *Clock) Abort() {
	c.state = StateIdle
	c.startedAt = time.Time{}
	c.pausedAt = time.Time{}
	c.totalPaused = 0
}

// Elapsed returns wall time since start minus accumulated pauses. While
// paused the value is frozen at the pause anchor. Idle clocks report zero.
func (c *Clock) Elapsed() time.Duration {
	switch c.state {
	case StateRunning:
		return c.now().Sub(c.startedAt) - c.totalPaused
	case StatePaused:
		return c.pausedAt.Sub(c.startedAt) - c.totalPaused
	default:
		return 0
	}
}

// FormatElapsed renders a duration as "mm:ss", floored to whole seconds.
// Minutes are unbounded; seconds are zero-padded. Negative durations render
// as 00:00 rather than leaking clock skew into the UI.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
