// Package state provides the thread-safe container coordinating the barber
// queue poller and the UI. The poller writes whole snapshots; the UI reads
// copies at its own cadence. Snapshots are replaced wholesale, never merged.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/ndelorme/barberq/internal/queueapi"
)

// Snapshot represents the latest barber-side queue data available to the UI.
type Snapshot struct {
	Entries             []queueapi.QueueEntry
	Info                queueapi.QueueInfo
	HasInfo             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data
// is kept but the error is recorded for visibility.
func (s *Store) Update(entries []queueapi.QueueEntry, info *queueapi.QueueInfo, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Entries = cloneEntries(entries)
	if info != nil {
		s.snapshot.Info = *info
		s.snapshot.HasInfo = true
	} else {
		s.snapshot.HasInfo = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Entries = cloneEntries(s.snapshot.Entries)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneEntries(items []queueapi.QueueEntry) []queueapi.QueueEntry {
	if len(items) == 0 {
		return nil
	}
	dup := make([]queueapi.QueueEntry, len(items))
	copy(dup, items)
	return dup
}
