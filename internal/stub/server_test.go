package stub

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ndelorme/barberq/internal/queueapi"
)

// newTestServer boots the stub behind httptest and returns a real API client
// pointed at it, so the round trip covers routing, shapes, and status
// spellings end to end.
func newTestServer(t *testing.T, opts Options) (*Server, *queueapi.Client) {
	t.Helper()

	srv := New(opts)
	e := echo.New()
	srv.Routes(e)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)

	client, err := queueapi.NewClient(ts.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return srv, client
}

func TestStub_BookingFlow(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t, Options{})

	if _, found, err := client.ActiveBooking(ctx, "c-1"); err != nil || found {
		t.Fatalf("ActiveBooking before booking = (found=%v, err=%v), want none", found, err)
	}

	created, err := client.CreateBooking(ctx, "s-1", "b-1", "c-1")
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	// A solo booking is invited straight away.
	if created.Status != queueapi.StatusInvited {
		t.Fatalf("created status = %v, want invited", created.Status)
	}
	if created.Position != 1 || created.TotalInQueue != 1 {
		t.Fatalf("created position = %d/%d, want 1/1", created.Position, created.TotalInQueue)
	}

	snap, found, err := client.ActiveBooking(ctx, "c-1")
	if err != nil || !found {
		t.Fatalf("ActiveBooking = (found=%v, err=%v), want booking", found, err)
	}
	if snap.EntryID != created.EntryID {
		t.Fatalf("entry id = %s, want %s", snap.EntryID, created.EntryID)
	}

	if err := client.CancelBooking(ctx, snap.EntryID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if _, found, err := client.ActiveBooking(ctx, "c-1"); err != nil || found {
		t.Fatalf("ActiveBooking after cancel = (found=%v, err=%v), want none", found, err)
	}
}

func TestStub_DirectShapeNormalizesToSentinel(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t, Options{DirectShape: true})

	if _, err := client.CreateBooking(ctx, "s-1", "b-1", "c-1"); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	snap, found, err := client.ActiveBooking(ctx, "c-1")
	if err != nil || !found {
		t.Fatalf("ActiveBooking = (found=%v, err=%v), want booking", found, err)
	}
	if snap.Position != 0 || snap.TotalInQueue != 1 {
		t.Fatalf("direct shape position = %d/%d, want sentinel 0/1", snap.Position, snap.TotalInQueue)
	}
}

func TestStub_BarberBoardFlow(t *testing.T) {
	ctx := context.Background()
	srv, client := newTestServer(t, Options{})
	srv.Seed("s-1", "b-1")

	entries, err := client.QueueEntries(ctx, "s-1", "b-1", queueapi.StatusUnknown)
	if err != nil {
		t.Fatalf("QueueEntries: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("seeded entries = %d, want 5", len(entries))
	}

	var onWay, onSite queueapi.ID
	for _, e := range entries {
		switch e.ParsedStatus() {
		case queueapi.StatusOnWay:
			onWay = e.ID
		case queueapi.StatusOnSite:
			onSite = e.ID
		}
	}
	if onWay == "" || onSite == "" {
		t.Fatal("seed missing on-way or on-site entry")
	}

	if err := client.MarkArrived(ctx, onWay); err != nil {
		t.Fatalf("MarkArrived: %v", err)
	}
	// Arrived again is an invalid transition now.
	if err := client.MarkArrived(ctx, onWay); err == nil {
		t.Fatal("second MarkArrived succeeded, want conflict")
	}

	if err := client.StartSession(ctx, onSite, "b-1"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	// Only one session per barber.
	if err := client.StartSession(ctx, onWay, "b-1"); err == nil {
		t.Fatal("second StartSession succeeded, want conflict")
	}

	if err := client.FinishSession(ctx, onSite, 35); err != nil {
		t.Fatalf("FinishSession: %v", err)
	}

	entries, err = client.QueueEntries(ctx, "s-1", "b-1", queueapi.StatusUnknown)
	if err != nil {
		t.Fatalf("QueueEntries after finish: %v", err)
	}
	invited := 0
	for _, e := range entries {
		if e.ParsedStatus() == queueapi.StatusInvited {
			invited++
		}
	}
	// Finishing a session promotes the longest-waiting queued client.
	if invited != 2 {
		t.Fatalf("invited entries after finish = %d, want 2", invited)
	}
}

func TestStub_FinishNotifiesClient(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t, Options{})

	created, err := client.CreateBooking(ctx, "s-1", "b-1", "c-7")
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	// Walk the booking through to a finished session.
	for _, step := range []func() error{
		func() error { return client.ConfirmBooking(ctx, created.EntryID) },
		func() error { return client.MarkArrived(ctx, created.EntryID) },
		func() error { return client.StartSession(ctx, created.EntryID, "b-1") },
		func() error { return client.FinishSession(ctx, created.EntryID, 20) },
	} {
		if err := step(); err != nil {
			t.Fatalf("flow step: %v", err)
		}
	}

	items, err := client.Notifications(ctx, "c-7")
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("no notification after finished session")
	}
}

func TestStub_ConfirmRequiresInvited(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t, Options{})

	first, err := client.CreateBooking(ctx, "s-1", "b-1", "c-1")
	if err != nil {
		t.Fatalf("CreateBooking first: %v", err)
	}
	second, err := client.CreateBooking(ctx, "s-1", "b-1", "c-2")
	if err != nil {
		t.Fatalf("CreateBooking second: %v", err)
	}

	if second.Status != queueapi.StatusQueued {
		t.Fatalf("second booking status = %v, want queued", second.Status)
	}
	if err := client.ConfirmBooking(ctx, second.EntryID); err == nil {
		t.Fatal("ConfirmBooking from queued succeeded, want conflict")
	}
	if err := client.ConfirmBooking(ctx, first.EntryID); err != nil {
		t.Fatalf("ConfirmBooking from invited: %v", err)
	}
}
