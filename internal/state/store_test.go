package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ndelorme/barberq/internal/queueapi"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	info := &queueapi.QueueInfo{TotalInQueue: 4, ActiveClientsCount: 1}
	entries := []queueapi.QueueEntry{{ID: "e-1"}, {ID: "e-2"}}

	before := time.Now()
	s.Update(entries, info, nil)

	snap := s.Snapshot()
	if !snap.HasInfo || snap.Info.TotalInQueue != 4 {
		t.Fatalf("snapshot info = %#v, want total=4 HasInfo=true", snap.Info)
	}
	if len(snap.Entries) != 2 || snap.Entries[0].ID != "e-1" {
		t.Fatalf("snapshot entries = %#v, want 2 items", snap.Entries)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Entries[0].ID = "mutated"
	snap2 := s.Snapshot()
	if snap2.Entries[0].ID != "e-1" {
		t.Fatalf("Snapshot should clone entries; got id %s want e-1", snap2.Entries[0].ID)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update([]queueapi.QueueEntry{{ID: "e-1"}}, &queueapi.QueueInfo{TotalInQueue: 1}, nil)
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.Update(nil, nil, origErr)

	snap := s.Snapshot()
	if snap.HasInfo != prev.HasInfo || snap.Info.TotalInQueue != prev.Info.TotalInQueue {
		t.Fatalf("info changed on error: got %#v want %#v", snap.Info, prev.Info)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].ID != "e-1" {
		t.Fatalf("entries changed on error: got %#v want %#v", snap.Entries, prev.Entries)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	if snap := s.Snapshot(); snap.IsOffline() {
		t.Fatal("IsOffline() = true with 0 failures")
	}

	s.Update(nil, nil, errors.New("fail 1"))
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: %d failures, offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	s.Update(nil, nil, errors.New("fail 2"))
	if snap := s.Snapshot(); !snap.IsOffline() {
		t.Fatal("IsOffline() = false after 2 failures")
	}

	s.Update(nil, &queueapi.QueueInfo{}, nil)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("failures not reset on success: %d", snap.ConsecutiveFailures)
	}
}
