package state

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot is a point-in-time view of the service.
type Snapshot struct {
	Path        string
	Addr        string
	StartedAt   time.Time
	Viewers     int
	Chunks      uint64 // rendered chunks published
	Bytes       uint64 // raw bytes consumed from the file
	Cursor      int64
	Truncations int
	LastUpdated time.Time // last poll that found new content
	LastError   error
	Degraded    bool // the tailed file became unreadable
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Start records the tailed path, listen address and start time.
func (s *Store) Start(path, addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Path = path
	s.snapshot.Addr = addr
	s.snapshot.StartedAt = time.Now()
}

// RecordChunk accounts for one published chunk of n raw bytes.
func (s *Store) RecordChunk(n int, cursor int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Chunks++
	s.snapshot.Bytes += uint64(n)
	s.snapshot.Cursor = cursor
	s.snapshot.LastUpdated = time.Now()
}

// RecordTruncation notes that the file shrank and the cursor was reset.
func (s *Store) RecordTruncation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Truncations++
	s.snapshot.Cursor = 0
}

// SetViewers stores the current viewer count.
func (s *Store) SetViewers(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Viewers = n
}

// Fail marks the service degraded. The first error is kept.
func (s *Store) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot.Degraded {
		return
	}
	s.snapshot.Degraded = true
	s.snapshot.LastError = err
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
