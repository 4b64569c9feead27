package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowRecord struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the in-process fixed-window counter store. Records are
// created lazily on first request and evicted by Sweep once expired.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*windowRecord
	now     func() time.Time
}

// NewMemoryStore creates an in-memory counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*windowRecord),
		now:     time.Now,
	}
}

// Incr performs the check-then-increment as one critical section so
// concurrent requests from the same identity observe a single counter
// sequence.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[key]
	if !ok || !now.Before(rec.resetAt) {
		rec = &windowRecord{count: 0, resetAt: now.Add(window)}
		s.records[key] = rec
	}
	rec.count++

	return rec.count, rec.resetAt, nil
}

// Sweep evicts records whose window has fully elapsed. Returns the
// number of records removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if !now.Before(rec.resetAt) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

// Len reports the current number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
