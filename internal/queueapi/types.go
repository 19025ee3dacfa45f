package queueapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const queueTimestampLayout = "2006-01-02 15:04:05"

// Status is the canonical queue stage of a booking or entry. Everything above
// this package deals in Status values; raw wire spellings never escape here.
type Status string

const (
	StatusUnknown   Status = ""
	StatusQueued    Status = "queued"
	StatusInvited   Status = "invited"
	StatusOnWay     Status = "on-way"
	StatusOnSite    Status = "on-site"
	StatusInSession Status = "in-session"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

// ParseStatus maps the backend's status spellings (upper case, underscores,
// legacy aliases) onto the canonical set.
func ParseStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", "-")
	switch s {
	case "queued", "waiting":
		return StatusQueued
	case "invited":
		return StatusInvited
	case "on-way", "on-the-way", "confirmed":
		return StatusOnWay
	case "on-site", "arrived":
		return StatusOnSite
	case "in-session", "in-progress":
		return StatusInSession
	case "done", "completed", "finished":
		return StatusDone
	case "cancelled", "canceled":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// Terminal reports whether the status ends a booking's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// ID is an entry identifier. The backend emits both string and numeric ids
// depending on the endpoint, so decoding accepts either.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// QueueSnapshot is the canonical client-side view of one active booking.
// It is replaced wholesale on every successful poll; there is no merge.
type QueueSnapshot struct {
	EntryID               ID
	Status                Status
	Position              int
	TotalInQueue          int
	SalonID               string
	BarberID              string
	AvgServiceTimeMinutes int
	NotificationThreshold int
}

// activeEntryFields is the subset of booking fields common to both observed
// active-booking response shapes.
type activeEntryFields struct {
	ID                    ID     `json:"id"`
	Status                string `json:"status"`
	SalonID               string `json:"salonId"`
	BarberID              string `json:"barberId"`
	AvgServiceTimeMinutes int    `json:"avgServiceTimeMinutes"`
	NotificationThreshold int    `json:"notificationThreshold"`
}

// activeBookingPayload tolerates both response shapes the backend emits for
// the active-booking read: entry-wrapped ({entry:{...}, position, totalInQueue})
// and direct ({id, status, ...}).
type activeBookingPayload struct {
	Entry             *activeEntryFields `json:"entry"`
	Position          int                `json:"position"`
	TotalInQueue      int                `json:"totalInQueue"`
	activeEntryFields                    // direct shape carries entry fields inline
}

// Normalize collapses whichever shape was decoded into one QueueSnapshot.
// The second return value is false when no booking is present in the payload.
//
// A direct-shape payload without position/totalInQueue normalizes to the
// documented sentinel position=0, totalInQueue=1 so callers never divide by
// zero or render a phantom queue.
func (p activeBookingPayload) Normalize() (QueueSnapshot, bool) {
	fields := p.activeEntryFields
	if p.Entry != nil {
		fields = *p.Entry
	}
	if fields.ID == "" {
		return QueueSnapshot{}, false
	}

	total := p.TotalInQueue
	if total < 1 {
		total = 1
	}
	position := p.Position
	if position > total {
		total = position
	}

	return QueueSnapshot{
		EntryID:               fields.ID,
		Status:                ParseStatus(fields.Status),
		Position:              position,
		TotalInQueue:          total,
		SalonID:               fields.SalonID,
		BarberID:              fields.BarberID,
		AvgServiceTimeMinutes: fields.AvgServiceTimeMinutes,
		NotificationThreshold: fields.NotificationThreshold,
	}, true
}

// QueueEntry describes one barber-side queue member in transport form.
type QueueEntry struct {
	ID               ID     `json:"id"`
	ClientName       string `json:"clientName"`
	AvatarURL        string `json:"avatarUrl"`
	Service          string `json:"service"`
	ServicePrice     int    `json:"servicePrice"`
	Trusted          bool   `json:"trusted"`
	Regular          bool   `json:"regular"`
	Notes            string `json:"notes"`
	Status           string `json:"status"`
	EnteredAt        string `json:"enteredAt"`
	SessionStartedAt string `json:"sessionStartedAt"`
}

// ParsedStatus returns the canonical status for the entry.
func (e QueueEntry) ParsedStatus() Status {
	return ParseStatus(e.Status)
}

// ParsedEnteredAt returns the parsed EnteredAt timestamp.
func (e QueueEntry) ParsedEnteredAt() time.Time {
	return parseTime(e.EnteredAt)
}

// ParsedSessionStartedAt returns the parsed SessionStartedAt timestamp.
func (e QueueEntry) ParsedSessionStartedAt() time.Time {
	return parseTime(e.SessionStartedAt)
}

// entryListPayload mirrors the queue entries response.
type entryListPayload struct {
	Items []QueueEntry `json:"items"`
}

// QueueInfo summarizes a barber's queue for prospective clients.
type QueueInfo struct {
	EstimatedPosition     int `json:"estimatedPosition"`
	ActiveClientsCount    int `json:"activeClientsCount"`
	TotalInQueue          int `json:"totalInQueue"`
	AvgServiceTimeMinutes int `json:"avgServiceTimeMinutes"`
}

// Notification is one row of the client's notification feed.
type Notification struct {
	ID        ID     `json:"id"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
	Read      bool   `json:"read"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (n Notification) ParsedCreatedAt() time.Time {
	return parseTime(n.CreatedAt)
}

type notificationListPayload struct {
	Items []Notification `json:"items"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(queueTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
