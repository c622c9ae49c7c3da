package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/difm/internal/catalog"
	"github.com/five82/difm/internal/watch"
)

// Snapshot represents the latest catalog available to the UI.
type Snapshot struct {
	Catalog             catalog.BatchUpdate
	HasCatalog          bool
	Quality             catalog.Quality
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive fetch failures
}

// IsOffline returns true when the API has been unreachable for multiple fetches.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	events watch.Broadcaster[Snapshot]
}

// Update records the result of a catalog fetch for quality. When err is
// non-nil the previous catalog is kept but the error is recorded for
// visibility.
func (s *Store) Update(batch *catalog.BatchUpdate, quality catalog.Quality, err error) {
	s.mu.Lock()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
	} else {
		if batch != nil {
			s.snapshot.Catalog = *batch
			s.snapshot.HasCatalog = true
			s.snapshot.Quality = quality
		}
		s.snapshot.LastError = nil
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures = 0
	}
	snap := s.copyLocked()
	s.mu.Unlock()

	s.events.Publish(snap)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Subscribe returns a channel that receives the snapshot after every Update.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	return s.events.Subscribe()
}

// copyLocked copies the snapshot. The catalog is shared: BatchUpdate values
// are never mutated after decoding.
func (s *Store) copyLocked() Snapshot {
	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
