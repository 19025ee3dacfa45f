package queueapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend defines the queue operations the front ends consume. Implemented by
// *Client; test doubles implement it to drive the UI without a server.
type Backend interface {
	ActiveBooking(ctx context.Context, clientID string) (QueueSnapshot, bool, error)
	CreateBooking(ctx context.Context, salonID, barberID, clientID string) (QueueSnapshot, error)
	CancelBooking(ctx context.Context, entryID ID) error
	ConfirmBooking(ctx context.Context, entryID ID) error
	UpdateNotificationThreshold(ctx context.Context, entryID ID, threshold int) error
	QueueInfo(ctx context.Context, salonID, barberID string) (QueueInfo, error)
	Notifications(ctx context.Context, clientID string) ([]Notification, error)

	QueueEntries(ctx context.Context, salonID, barberID string, status Status) ([]QueueEntry, error)
	MarkArrived(ctx context.Context, entryID ID) error
	StartSession(ctx context.Context, entryID ID, barberID string) error
	FinishSession(ctx context.Context, entryID ID, servicePrice int) error
	CancelEntry(ctx context.Context, entryID ID) error
	ResetTimer(ctx context.Context, entryID ID) error
	TogglePause(ctx context.Context, entryID ID, paused bool) error
	ResendInvite(ctx context.Context, entryID ID) error
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// Client talks to the queue backend's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:8743"
	defaultUserAgent = "barberq/0.1"
	requestTimeout   = 5 * time.Second
)

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// ActiveBooking retrieves the client's active booking, normalized into the
// canonical snapshot. The boolean is false when the client has no booking.
func (c *Client) ActiveBooking(ctx context.Context, clientID string) (QueueSnapshot, bool, error) {
	values := url.Values{}
	values.Set("client", clientID)
	rel := &url.URL{Path: "/api/bookings/active", RawQuery: values.Encode()}

	var payload activeBookingPayload
	found, err := c.doMaybe(ctx, http.MethodGet, rel, nil, &payload)
	if err != nil {
		return QueueSnapshot{}, false, err
	}
	if !found {
		return QueueSnapshot{}, false, nil
	}
	snap, ok := payload.Normalize()
	return snap, ok, nil
}

// CreateBooking places the client into a barber's queue.
func (c *Client) CreateBooking(ctx context.Context, salonID, barberID, clientID string) (QueueSnapshot, error) {
	body := map[string]string{
		"salonId":  salonID,
		"barberId": barberID,
		"clientId": clientID,
	}
	var payload activeBookingPayload
	if err := c.do(ctx, http.MethodPost, "/api/bookings", body, &payload); err != nil {
		return QueueSnapshot{}, err
	}
	snap, ok := payload.Normalize()
	if !ok {
		return QueueSnapshot{}, fmt.Errorf("create booking: empty response")
	}
	return snap, nil
}

// CancelBooking withdraws the client's booking.
func (c *Client) CancelBooking(ctx context.Context, entryID ID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/bookings/%s/cancel", entryID), nil, nil)
}

// ConfirmBooking signals "on my way" for an invited booking.
func (c *Client) ConfirmBooking(ctx context.Context, entryID ID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/bookings/%s/confirm", entryID), nil, nil)
}

// UpdateNotificationThreshold saves the queue position at which the client
// wants to be notified.
func (c *Client) UpdateNotificationThreshold(ctx context.Context, entryID ID, threshold int) error {
	body := map[string]int{"threshold": threshold}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/bookings/%s/threshold", entryID), body, nil)
}

// QueueInfo retrieves a barber's queue summary.
func (c *Client) QueueInfo(ctx context.Context, salonID, barberID string) (QueueInfo, error) {
	values := url.Values{}
	values.Set("salon", salonID)
	if barberID != "" {
		values.Set("barber", barberID)
	}
	rel := &url.URL{Path: "/api/queue/info", RawQuery: values.Encode()}
	var payload QueueInfo
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return QueueInfo{}, err
	}
	return payload, nil
}

// Notifications retrieves the client's notification feed.
func (c *Client) Notifications(ctx context.Context, clientID string) ([]Notification, error) {
	values := url.Values{}
	values.Set("client", clientID)
	rel := &url.URL{Path: "/api/notifications", RawQuery: values.Encode()}
	var payload notificationListPayload
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// QueueEntries retrieves the barber-side queue. Empty barberID or status omit
// the corresponding filter.
func (c *Client) QueueEntries(ctx context.Context, salonID, barberID string, status Status) ([]QueueEntry, error) {
	values := url.Values{}
	values.Set("salon", salonID)
	if barberID != "" {
		values.Set("barber", barberID)
	}
	if status != StatusUnknown {
		values.Set("status", string(status))
	}
	rel := &url.URL{Path: "/api/queue/entries", RawQuery: values.Encode()}
	var payload entryListPayload
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// MarkArrived records that the client reached the salon.
func (c *Client) MarkArrived(ctx context.Context, entryID ID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/entries/%s/arrived", entryID), nil, nil)
}

// StartSession begins a service session for the entry.
func (c *Client) StartSession(ctx context.Context, entryID ID, barberID string) error {
	body := map[string]string{"barberId": barberID}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/entries/%s/start", entryID), body, nil)
}

// FinishSession ends the entry's service session.
func (c *Client) FinishSession(ctx context.Context, entryID ID, servicePrice int) error {
	body := map[string]int{"servicePrice": servicePrice}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/entries/%s/finish", entryID), body, nil)
}

// CancelEntry removes the entry from the queue.
func (c *Client) CancelEntry(ctx context.Context, entryID ID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/entries/%s/cancel", entryID), nil, nil)
}

// ResetTimer re-anchors the entry's session timer on the backend.
func (c *Client) ResetTimer(ctx context.Context, entryID ID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/entries/%s/reset-timer", entryID), nil, nil)
}

// TogglePause pauses or resumes the entry's session timer on the backend.
func (c *Client) TogglePause(ctx context.Context, entryID ID, paused bool) error {
	body := map[string]bool{"paused": paused}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/entries/%s/pause", entryID), body, nil)
}

// ResendInvite re-triggers the invite notification for an invited entry.
func (c *Client) ResendInvite(ctx context.Context, entryID ID) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/entries/%s/resend", entryID), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	found, err := c.doMaybe(ctx, method, rel, body, dest)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("api %s returned status 404", rel.String())
	}
	return nil
}

// doMaybe executes a request and reports 404 as (false, nil) so callers that
// treat absence as a normal outcome can do so without string matching.
func (c *Client) doMaybe(ctx context.Context, method string, rel *url.URL, body, dest any) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("api %s returned status %d", rel.String(), resp.StatusCode)
	}
	if dest == nil {
		return true, nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
