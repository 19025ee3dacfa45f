package booking

import (
	"fmt"
	"sync"
	"time"

	"github.com/ndelorme/barberq/internal/queueapi"
)

// Phase is the client's relationship to the queue.
type Phase int

const (
	// PhaseNone means the client has no booking.
	PhaseNone Phase = iota
	// PhaseActive means the booking is live (queued, invited, on-way, on-site
	// or in-session).
	PhaseActive
	// PhaseDone means the service completed.
	PhaseDone
	// PhaseCancelled means the booking was withdrawn.
	PhaseCancelled
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseActive:
		return "active"
	case PhaseDone:
		return "done"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// View is an immutable copy of the lifecycle for rendering.
type View struct {
	Phase               Phase
	HasBooking          bool
	Snapshot            queueapi.QueueSnapshot
	Notifications       []queueapi.Notification
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
	// Settled is true once the initial-poll grace window has passed or a
	// definitive answer arrived; before that, "no booking" must not make the
	// UI navigate away.
	Settled bool
}

// IsOffline reports the backend has been unreachable for multiple polls.
func (v View) IsOffline() bool {
	return v.ConsecutiveFailures >= 2
}

// ShouldLeave reports the surrounding UI should navigate away: the grace
// window has passed and there is nothing to show.
func (v View) ShouldLeave() bool {
	return v.Settled && v.Phase != PhaseActive
}

// EstimatedWaitMinutes derives the wait estimate for the current snapshot.
func (v View) EstimatedWaitMinutes() int {
	return EstimatedWaitMinutes(v.Snapshot.Position, v.Snapshot.AvgServiceTimeMinutes)
}

// ProgressRatio derives the position-bar ratio for the current snapshot.
func (v View) ProgressRatio() float64 {
	return ProgressRatio(v.Snapshot.Position, v.Snapshot.TotalInQueue)
}

const defaultGrace = 15 * time.Second

// Lifecycle owns one client's booking state between the pollers and the UI.
//
// Every write carries a sequence number claimed with NextSeq before the
// backend request is issued; a response applying with an older sequence than
// the last applied one is discarded. This is what makes a cancel
// authoritative over a stale in-flight poll that resolves after it.
type Lifecycle struct {
	mu sync.Mutex

	phase         Phase
	snap          queueapi.QueueSnapshot
	has           bool
	notifications []queueapi.Notification
	lastUpdated   time.Time
	lastErr       error
	failures      int
	definitive    bool

	seq     uint64
	applied uint64

	startedAt time.Time
	grace     time.Duration
	now       func() time.Time
}

// NewLifecycle returns a lifecycle on the wall clock with the default grace
// window.
func NewLifecycle() *Lifecycle {
	return NewLifecycleAt(time.Now, defaultGrace)
}

// NewLifecycleAt returns a lifecycle reading time from now with the given
// grace window.
func NewLifecycleAt(now func() time.Time, grace time.Duration) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	if grace <= 0 {
		grace = defaultGrace
	}
	return &Lifecycle{
		now:       now,
		grace:     grace,
		startedAt: now(),
	}
}

// NextSeq claims a sequence number for a request about to be issued.
func (l *Lifecycle) NextSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	return l.seq
}

// ApplySnapshot replaces the booking state wholesale from a successful poll
// or booking creation. It reports false when the result was stale and
// discarded.
func (l *Lifecycle) ApplySnapshot(seq uint64, snap queueapi.QueueSnapshot, found bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq <= l.applied {
		return false
	}
	l.applied = seq
	l.lastErr = nil
	l.failures = 0
	l.lastUpdated = l.now()

	if !found {
		// The booking vanished server-side. If we were active it completed
		// elsewhere; otherwise there is simply nothing. Terminal phases have
		// no outgoing edges, so a routine empty poll never downgrades them.
		switch {
		case l.phase == PhaseDone || l.phase == PhaseCancelled:
		case l.has:
			l.phase = PhaseDone
		default:
			l.phase = PhaseNone
		}
		l.snap = queueapi.QueueSnapshot{}
		l.has = false
		l.definitive = true
		return true
	}

	l.snap = snap
	l.has = true
	l.definitive = true
	switch {
	case snap.Status == queueapi.StatusDone:
		l.phase = PhaseDone
	case snap.Status == queueapi.StatusCancelled:
		l.phase = PhaseCancelled
	default:
		l.phase = PhaseActive
	}
	return true
}

// ApplyError records a failed poll. Prior booking state stays displayed.
func (l *Lifecycle) ApplyError(seq uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq <= l.applied {
		return
	}
	l.applied = seq
	l.lastErr = err
	l.failures++
	l.lastUpdated = l.now()
}

// ApplyCancelled clears the whole booking after the backend confirmed a
// cancel: snapshot, position, and total go together, never partially.
func (l *Lifecycle) ApplyCancelled(seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq <= l.applied {
		return
	}
	l.applied = seq
	l.phase = PhaseCancelled
	l.snap = queueapi.QueueSnapshot{}
	l.has = false
	l.definitive = true
	l.lastErr = nil
	l.lastUpdated = l.now()
}

// ApplyConfirmed marks the booking on-way after the backend acknowledged the
// client's "on my way" action.
func (l *Lifecycle) ApplyConfirmed(seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq <= l.applied || !l.has {
		return
	}
	l.applied = seq
	l.snap.Status = queueapi.StatusOnWay
	l.lastUpdated = l.now()
}

// ApplyThreshold records the saved notification threshold.
func (l *Lifecycle) ApplyThreshold(seq uint64, threshold int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq <= l.applied || !l.has {
		return
	}
	l.applied = seq
	l.snap.NotificationThreshold = ClampThreshold(threshold)
	l.lastUpdated = l.now()
}

// ApplyNotifications replaces the notification feed. The feed is display-only
// and not sequence-tagged; last successful fetch wins.
func (l *Lifecycle) ApplyNotifications(items []queueapi.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifications = append([]queueapi.Notification(nil), items...)
}

// View returns a copy of the current state for rendering.
func (l *Lifecycle) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()

	settled := l.definitive || l.now().Sub(l.startedAt) >= l.grace
	v := View{
		Phase:               l.phase,
		HasBooking:          l.has,
		Snapshot:            l.snap,
		LastUpdated:         l.lastUpdated,
		ConsecutiveFailures: l.failures,
		Settled:             settled,
	}
	if l.lastErr != nil {
		v.LastError = fmt.Errorf("%w", l.lastErr)
	}
	if len(l.notifications) > 0 {
		v.Notifications = append([]queueapi.Notification(nil), l.notifications...)
	}
	return v
}
