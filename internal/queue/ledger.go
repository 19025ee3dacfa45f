package queue

import "github.com/ndelorme/barberq/internal/queueapi"

// ActionKind names a tracked backend mutation.
type ActionKind string

const (
	ActionMarkArrived   ActionKind = "markArrived"
	ActionStartSession  ActionKind = "startSession"
	ActionEndSession    ActionKind = "endSession"
	ActionCancelClient  ActionKind = "cancelClient"
	ActionResendInvite  ActionKind = "resendInvite"
	ActionResetTimer    ActionKind = "resetTimer"
	ActionTogglePause   ActionKind = "togglePause"
	ActionCreateBooking ActionKind = "createBooking"
	ActionConfirmOnWay  ActionKind = "confirmOnWay"
	ActionCancelBooking ActionKind = "cancelBooking"
	ActionSaveThreshold ActionKind = "saveThreshold"
)

// actionError remembers which action failed so the UI can label the retry
// affordance.
type actionError struct {
	kind ActionKind
	err  error
}

// Ledger enforces at most one in-flight backend mutation per entry, across
// all action kinds: while any action is pending on an entry, every other
// action on that entry is refused. Errors are entry-scoped and stay visible
// until the next attempt begins.
type Ledger struct {
	pending map[queueapi.ID]ActionKind
	errs    map[queueapi.ID]actionError
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		pending: make(map[queueapi.ID]ActionKind),
		errs:    make(map[queueapi.ID]actionError),
	}
}

// Begin claims the entry for the given action. It reports false, claiming
// nothing, when another action is already pending on the entry. A successful
// claim clears the entry's previous error.
func (l *Ledger) Begin(id queueapi.ID, kind ActionKind) bool {
	if _, busy := l.pending[id]; busy {
		return false
	}
	l.pending[id] = kind
	delete(l.errs, id)
	return true
}

// Finish releases the entry's claim. A non-nil err is recorded against the
// entry for display and retry.
func (l *Ledger) Finish(id queueapi.ID, err error) {
	kind, ok := l.pending[id]
	if !ok {
		return
	}
	delete(l.pending, id)
	if err != nil {
		l.errs[id] = actionError{kind: kind, err: err}
	}
}

// Pending returns the action currently in flight for the entry, if any.
func (l *Ledger) Pending(id queueapi.ID) (ActionKind, bool) {
	kind, ok := l.pending[id]
	return kind, ok
}

// Busy reports whether any action is in flight for the entry.
func (l *Ledger) Busy(id queueapi.ID) bool {
	_, ok := l.pending[id]
	return ok
}

// Err returns the entry's recorded failure and the action that produced it.
// A nil error means the entry has no recorded failure.
func (l *Ledger) Err(id queueapi.ID) (ActionKind, error) {
	e, ok := l.errs[id]
	if !ok {
		return "", nil
	}
	return e.kind, e.err
}

// ClearErr dismisses the entry's recorded failure.
func (l *Ledger) ClearErr(id queueapi.ID) {
	delete(l.errs, id)
}
