// Package queue implements the barber-side queue board: four ordered buckets
// of client entries, the moves between them, and the per-entry action ledger
// that serializes in-flight mutations.
//
// The board and ledger are confined to the UI update loop; they carry no
// locks. Backend-authoritative moves follow a confirm-then-mutate discipline:
// the caller issues the request first and applies the board mutation only
// after the backend acknowledged it.
package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/ndelorme/barberq/internal/queueapi"
	"github.com/ndelorme/barberq/internal/session"
)

// Bucket is one of the four queue stages a barber-side entry occupies.
type Bucket int

const (
	BucketInvited Bucket = iota
	BucketOnWay
	BucketOnSite
	BucketInSession

	bucketCount
)

// String implements fmt.Stringer.
func (b Bucket) String() string {
	switch b {
	case BucketInvited:
		return "invited"
	case BucketOnWay:
		return "on-way"
	case BucketOnSite:
		return "on-site"
	case BucketInSession:
		return "in-session"
	default:
		return fmt.Sprintf("bucket(%d)", int(b))
	}
}

// Buckets returns the display order of the board's buckets.
func Buckets() []Bucket {
	return []Bucket{BucketInvited, BucketOnWay, BucketOnSite, BucketInSession}
}

// BucketForStatus maps a canonical status onto a board bucket. Statuses that
// do not belong on the board (queued, terminal) report false.
func BucketForStatus(s queueapi.Status) (Bucket, bool) {
	switch s {
	case queueapi.StatusInvited:
		return BucketInvited, true
	case queueapi.StatusOnWay:
		return BucketOnWay, true
	case queueapi.StatusOnSite:
		return BucketOnSite, true
	case queueapi.StatusInSession:
		return BucketInSession, true
	default:
		return 0, false
	}
}

// Entry is one client on the board.
type Entry struct {
	ID           queueapi.ID
	ClientName   string
	AvatarURL    string
	Service      string
	ServicePrice int
	Trusted      bool
	Regular      bool
	Notes        string

	Bucket Bucket
	// EnteredBucketAt is when the entry reached its current bucket; the
	// on-site column renders it as "waiting since".
	EnteredBucketAt time.Time
	// SessionStartedAt is set exactly while Bucket == BucketInSession.
	SessionStartedAt time.Time
}

// Summary is the end-of-session record shown to the barber.
type Summary struct {
	ClientName string
	Duration   time.Duration
}

// Board errors.
var (
	ErrUnknownEntry = errors.New("unknown queue entry")
	ErrInvalidMove  = errors.New("invalid queue move")
	// ErrSessionBusy rejects starting a second session while one is active.
	ErrSessionBusy = errors.New("a session is already active")
)

// Board holds the four buckets and the session clock for one barber.
// Within a bucket insertion order is preserved; no bucket re-orders.
type Board struct {
	entries map[queueapi.ID]*Entry
	order   [bucketCount][]queueapi.ID
	clock   *session.Clock
	now     func() time.Time
}

// NewBoard returns an empty board on the wall clock.
func NewBoard() *Board {
	return NewBoardAt(time.Now)
}

// NewBoardAt returns an empty board reading time from now.
func NewBoardAt(now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{
		entries: make(map[queueapi.ID]*Entry),
		clock:   session.NewClockAt(now),
		now:     now,
	}
}

// Clock exposes the board's session clock for elapsed-time rendering and
// pause/resume/reset, which do not change bucket membership.
func (b *Board) Clock() *session.Clock {
	return b.clock
}

// Load replaces the board wholesale from a backend snapshot, preserving the
// server's per-bucket order. Entries with statuses that do not belong on the
// board are dropped.
//
// The session clock is reconciled rather than replaced: a locally running or
// paused clock survives a poll (pause state is client-owned), an in-session
// entry appearing while the clock is idle adopts the backend's start
// timestamp, and the clock is torn down when its entry is gone.
func (b *Board) Load(items []queueapi.QueueEntry) {
	b.entries = make(map[queueapi.ID]*Entry, len(items))
	for i := range b.order {
		b.order[i] = nil
	}

	for _, item := range items {
		bucket, ok := BucketForStatus(item.ParsedStatus())
		if !ok {
			continue
		}
		if _, dup := b.entries[item.ID]; dup {
			continue
		}
		entry := &Entry{
			ID:              item.ID,
			ClientName:      item.ClientName,
			AvatarURL:       item.AvatarURL,
			Service:         item.Service,
			ServicePrice:    item.ServicePrice,
			Trusted:         item.Trusted,
			Regular:         item.Regular,
			Notes:           item.Notes,
			Bucket:          bucket,
			EnteredBucketAt: item.ParsedEnteredAt(),
		}
		if bucket == BucketInSession {
			entry.SessionStartedAt = item.ParsedSessionStartedAt()
		}
		b.entries[item.ID] = entry
		b.order[bucket] = append(b.order[bucket], item.ID)
	}

	b.reconcileClock()
}

func (b *Board) reconcileClock() {
	current, ok := b.InSession()
	if !ok {
		b.clock.Abort()
		return
	}
	if b.clock.Active() {
		return
	}
	_ = b.clock.Adopt(current.SessionStartedAt)
}

// Start moves an on-site entry into the in-session bucket and starts the
// clock. Rejected while any session is running or paused, leaving queue and
// session state unchanged.
func (b *Board) Start(id queueapi.ID) error {
	entry, ok := b.entries[id]
	if !ok {
		return fmt.Errorf("start %s: %w", id, ErrUnknownEntry)
	}
	if b.clock.Active() {
		return fmt.Errorf("start %s: %w", id, ErrSessionBusy)
	}
	if entry.Bucket != BucketOnSite {
		return fmt.Errorf("start %s from %s: %w", id, entry.Bucket, ErrInvalidMove)
	}
	if err := b.clock.Start(); err != nil {
		return fmt.Errorf("start %s: %w", id, err)
	}
	b.move(entry, BucketInSession)
	entry.SessionStartedAt = b.clock.StartedAt()
	return nil
}

// MarkArrived moves an on-way entry to on-site and stamps its waiting-since
// time.
func (b *Board) MarkArrived(id queueapi.ID) error {
	entry, ok := b.entries[id]
	if !ok {
		return fmt.Errorf("mark arrived %s: %w", id, ErrUnknownEntry)
	}
	if entry.Bucket != BucketOnWay {
		return fmt.Errorf("mark arrived %s from %s: %w", id, entry.Bucket, ErrInvalidMove)
	}
	b.move(entry, BucketOnSite)
	return nil
}

// Cancel removes an entry from whichever bucket holds it. Cancelling the
// in-session client also tears down the session clock.
func (b *Board) Cancel(id queueapi.ID) error {
	entry, ok := b.entries[id]
	if !ok {
		return fmt.Errorf("cancel %s: %w", id, ErrUnknownEntry)
	}
	if entry.Bucket == BucketInSession {
		b.clock.Abort()
	}
	b.remove(entry)
	return nil
}

// End finishes the in-session entry's service, removing it from the board and
// returning the summary record. The caller is responsible for having notified
// the backend first.
func (b *Board) End(id queueapi.ID) (Summary, error) {
	entry, ok := b.entries[id]
	if !ok {
		return Summary{}, fmt.Errorf("end %s: %w", id, ErrUnknownEntry)
	}
	if entry.Bucket != BucketInSession {
		return Summary{}, fmt.Errorf("end %s from %s: %w", id, entry.Bucket, ErrInvalidMove)
	}
	elapsed, err := b.clock.End()
	if err != nil {
		return Summary{}, fmt.Errorf("end %s: %w", id, err)
	}
	b.remove(entry)
	return Summary{ClientName: entry.ClientName, Duration: elapsed}, nil
}

// Entries returns the bucket's entries in FIFO display order.
func (b *Board) Entries(bucket Bucket) []Entry {
	if bucket < 0 || bucket >= bucketCount {
		return nil
	}
	out := make([]Entry, 0, len(b.order[bucket]))
	for _, id := range b.order[bucket] {
		out = append(out, *b.entries[id])
	}
	return out
}

// Entry returns a copy of the entry with the given id.
func (b *Board) Entry(id queueapi.ID) (Entry, bool) {
	entry, ok := b.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *entry, true
}

// InSession returns the current in-session entry, if any.
func (b *Board) InSession() (Entry, bool) {
	ids := b.order[BucketInSession]
	if len(ids) == 0 {
		return Entry{}, false
	}
	return *b.entries[ids[0]], true
}

// Len returns the number of entries on the board.
func (b *Board) Len() int {
	return len(b.entries)
}

func (b *Board) move(entry *Entry, to Bucket) {
	b.unlink(entry)
	entry.Bucket = to
	entry.EnteredBucketAt = b.now()
	if to != BucketInSession {
		entry.SessionStartedAt = time.Time{}
	}
	b.order[to] = append(b.order[to], entry.ID)
}

func (b *Board) remove(entry *Entry) {
	b.unlink(entry)
	delete(b.entries, entry.ID)
}

func (b *Board) unlink(entry *Entry) {
	ids := b.order[entry.Bucket]
	for i, id := range ids {
		if id == entry.ID {
			b.order[entry.Bucket] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}
