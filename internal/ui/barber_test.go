package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ndelorme/barberq/internal/config"
	"github.com/ndelorme/barberq/internal/queue"
	"github.com/ndelorme/barberq/internal/queueapi"
	"github.com/ndelorme/barberq/internal/session"
	"github.com/ndelorme/barberq/internal/state"
)

// stubBackend fakes the parts of the API the board actions hit.
type stubBackend struct {
	queueapi.Backend

	arrivedIDs []queueapi.ID
	arrivedErr error
}

func (s *stubBackend) MarkArrived(ctx context.Context, entryID queueapi.ID) error {
	s.arrivedIDs = append(s.arrivedIDs, entryID)
	return s.arrivedErr
}

func newTestBarberModel(backend queueapi.Backend, store *state.Store) barberModel {
	return newBarberModel(BarberOptions{
		Context: context.Background(),
		Client:  backend,
		Store:   store,
		Config:  config.Config{SalonID: "s-1", BarberID: "b-1"},
	})
}

func TestBarberModel_TickLoadsBoardFromStore(t *testing.T) {
	store := &state.Store{}
	store.Update([]queueapi.QueueEntry{
		{ID: "e-1", ClientName: "Ana", Status: "invited"},
		{ID: "e-2", ClientName: "Bo", Status: "on_site"},
	}, &queueapi.QueueInfo{TotalInQueue: 2}, nil)

	m := newTestBarberModel(&stubBackend{}, store)
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(barberModel)

	if m.board.Len() != 2 {
		t.Fatalf("board has %d entries, want 2", m.board.Len())
	}
	if got := m.board.Entries(queue.BucketOnSite); len(got) != 1 || got[0].ClientName != "Bo" {
		t.Fatalf("on-site bucket = %+v, want Bo", got)
	}
}

func TestBarberModel_TickKeepsBoardOnPollError(t *testing.T) {
	store := &state.Store{}
	store.Update([]queueapi.QueueEntry{{ID: "e-1", Status: "invited"}}, nil, nil)

	m := newTestBarberModel(&stubBackend{}, store)
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(barberModel)

	store.Update(nil, nil, errors.New("down"))
	next, _ = m.Update(tickMsg(time.Now()))
	m = next.(barberModel)

	if m.board.Len() != 1 {
		t.Fatalf("board has %d entries after poll error, want 1", m.board.Len())
	}
}

func TestBarberModel_MarkArrivedConfirmThenMutate(t *testing.T) {
	store := &state.Store{}
	store.Update([]queueapi.QueueEntry{{ID: "e-1", ClientName: "Ana", Status: "on_way"}}, nil, nil)

	backend := &stubBackend{}
	m := newTestBarberModel(backend, store)
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(barberModel)
	m.activeBucket = int(queue.BucketOnWay)

	next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	m = next.(barberModel)
	if cmd == nil {
		t.Fatal("mark arrived produced no command")
	}
	if !m.ledger.Busy("e-1") {
		t.Fatal("entry not claimed while request in flight")
	}

	// Still on-way until the backend confirms.
	if got := m.board.Entries(queue.BucketOnSite); len(got) != 0 {
		t.Fatalf("board mutated before confirmation: %+v", got)
	}

	msg := cmd()
	done, ok := msg.(actionDoneMsg)
	if !ok {
		t.Fatalf("command returned %T, want actionDoneMsg", msg)
	}
	if len(backend.arrivedIDs) != 1 || backend.arrivedIDs[0] != "e-1" {
		t.Fatalf("backend calls = %v, want [e-1]", backend.arrivedIDs)
	}

	next, _ = m.Update(done)
	m = next.(barberModel)
	if m.ledger.Busy("e-1") {
		t.Fatal("claim not released after confirmation")
	}
	if got := m.board.Entries(queue.BucketOnSite); len(got) != 1 {
		t.Fatalf("on-site bucket = %+v, want the confirmed entry", got)
	}
}

func TestBarberModel_FailedActionRecordsErrorWithoutMutation(t *testing.T) {
	store := &state.Store{}
	store.Update([]queueapi.QueueEntry{{ID: "e-1", Status: "on_way"}}, nil, nil)

	backend := &stubBackend{arrivedErr: errors.New("boom")}
	m := newTestBarberModel(backend, store)
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(barberModel)
	m.activeBucket = int(queue.BucketOnWay)

	next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	m = next.(barberModel)
	next, _ = m.Update(cmd())
	m = next.(barberModel)

	if got := m.board.Entries(queue.BucketOnSite); len(got) != 0 {
		t.Fatalf("failed action mutated the board: %+v", got)
	}
	if kind, err := m.ledger.Err("e-1"); err == nil || kind != queue.ActionMarkArrived {
		t.Fatalf("ledger error = (%s, %v), want markArrived failure", kind, err)
	}
}

func TestBarberModel_HeaderShowsQueueInfo(t *testing.T) {
	store := &state.Store{}
	store.Update([]queueapi.QueueEntry{{ID: "e-1", Status: "invited"}},
		&queueapi.QueueInfo{TotalInQueue: 4, AvgServiceTimeMinutes: 20}, nil)

	m := newTestBarberModel(&stubBackend{}, store)
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(barberModel)

	header := m.renderHeader()
	if !strings.Contains(header, "Avg:") || !strings.Contains(header, "20m") {
		t.Fatalf("header %q missing average service time", header)
	}
	// Three queued clients are waiting beyond the one board entry.
	if !strings.Contains(header, "Waiting:") || !strings.Contains(header, "3") {
		t.Fatalf("header %q missing waiting count", header)
	}
}

func TestBarberModel_PauseRefusedWhileEntryBusy(t *testing.T) {
	store := &state.Store{}
	store.Update([]queueapi.QueueEntry{
		{ID: "e-1", Status: "in_session", SessionStartedAt: time.Now().Add(-time.Minute).Format(time.RFC3339)},
	}, nil, nil)

	m := newTestBarberModel(&stubBackend{}, store)
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(barberModel)

	// Another action already holds the entry's claim.
	if !m.ledger.Begin("e-1", queue.ActionResendInvite) {
		t.Fatal("claiming the entry failed")
	}

	next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	m = next.(barberModel)
	if cmd != nil {
		t.Fatal("pause issued a request while the entry is busy")
	}
	if got := m.board.Clock().State(); got != session.StateRunning {
		t.Fatalf("clock state = %v, want running (untouched by refused pause)", got)
	}

	next, cmd = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'R'}})
	m = next.(barberModel)
	if cmd != nil {
		t.Fatal("reset issued a request while the entry is busy")
	}
}

func TestBarberModel_StartRefusedWhileSessionActive(t *testing.T) {
	store := &state.Store{}
	store.Update([]queueapi.QueueEntry{
		{ID: "e-1", Status: "in_session", SessionStartedAt: time.Now().Add(-time.Minute).Format(time.RFC3339)},
		{ID: "e-2", Status: "on_site"},
	}, nil, nil)

	m := newTestBarberModel(&stubBackend{}, store)
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(barberModel)
	m.activeBucket = int(queue.BucketOnSite)

	next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = next.(barberModel)
	if cmd != nil {
		t.Fatal("start issued a request while a session is active")
	}
	if m.notice == "" {
		t.Fatal("no notice shown for refused start")
	}
}
