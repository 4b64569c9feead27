package events

import (
	"sort"
	"sync"
	"time"

	"github.com/voyagehq/gatekeeper/internal/models"
)

// Store is the append-only, time-ordered security event log. Events are
// immutable once appended; the retention sweep bounds memory. The alert
// engine's "events in the last N minutes" access pattern walks backwards
// from the tail, so query cost is proportional to the window, not the
// history.
type Store struct {
	mu        sync.RWMutex
	events    []*models.SecurityEvent
	retention time.Duration
	now       func() time.Time
}

// NewStore creates an event store with the given retention horizon
func NewStore(retention time.Duration) *Store {
	return &Store{
		events:    make([]*models.SecurityEvent, 0, 256),
		retention: retention,
		now:       time.Now,
	}
}

// Append adds an event to the tail. Events must arrive in roughly
// chronological order; Record stamps them with the store's clock so the
// sequence stays time-ordered.
func (s *Store) Append(event *models.SecurityEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Query returns events matching the filter, oldest first.
func (s *Store) Query(filter models.EventFilter) []*models.SecurityEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.SecurityEvent, 0)
	for i := s.startIndex(filter.Since); i < len(s.events); i++ {
		if filter.Matches(s.events[i]) {
			matched = append(matched, s.events[i])
		}
	}
	return matched
}

// Recent returns all events recorded within the window, oldest first.
func (s *Store) Recent(window time.Duration) []*models.SecurityEvent {
	return s.Query(models.EventFilter{Since: s.now().Add(-window)})
}

// CountByIdentitySince counts events attributed to identity at or after
// the given time. Used by the flood heuristic.
func (s *Store) CountByIdentitySince(identity string, since time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for i := s.startIndex(since); i < len(s.events); i++ {
		if s.events[i].Identity == identity {
			count++
		}
	}
	return count
}

// Len reports the number of retained events
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Sweep discards events older than the retention horizon. Returns the
// number of events dropped.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	horizon := now.Add(-s.retention)
	idx := sort.Search(len(s.events), func(i int) bool {
		return !s.events[i].Timestamp.Before(horizon)
	})
	if idx == 0 {
		return 0
	}

	remaining := make([]*models.SecurityEvent, len(s.events)-idx)
	copy(remaining, s.events[idx:])
	s.events = remaining
	return idx
}

// startIndex finds the first event at or after since. The slice is
// time-ordered, so binary search keeps recent-window queries cheap.
// Callers must hold at least the read lock.
func (s *Store) startIndex(since time.Time) int {
	return sort.Search(len(s.events), func(i int) bool {
		return !s.events[i].Timestamp.Before(since)
	})
}
