// Package session implements the barber's service session clock.
//
// A Clock is a small state machine over idle, running, and paused states with
// the transitions start, pause, resume, reset, and end. Elapsed time is always
// derived from anchors (start time, pause anchor, accumulated pause total)
// rather than accumulated on ticks, so a render loop can recompute it at any
// cadence without drift: elapsed = now - startedAt - totalPaused, frozen at
// the pause anchor while paused.
//
// Illegal transitions return ErrInvalidTransition and leave the clock
// untouched. The historical UI silently ignored such calls; callers that want
// that behavior simply drop the error, but the condition is explicit here so
// misuse is visible at the call site.
//
// The package has no I/O and no timers of its own. Rendering cadence (the
// once-per-second tick while running) belongs to the owning view, which is
// also responsible for cancelling its tick when it unmounts.
package session
