package vicbf

import (
	"sync"
)

// Safe wraps a Filter behind a reader/writer lock for shared use. Queries
// take the read lock (query/query is always safe), inserts and deletes the
// write lock.
//
// A plain Filter has no internal synchronization: concurrent mutations
// race, and a query during an in-flight insert may observe a partially
// applied set of counter updates. Safe removes both hazards at the cost of
// serializing writers.
type Safe struct {
	mu sync.RWMutex
	f  *Filter
}

// NewSafe wraps f. The wrapped filter must not be used directly afterwards.
func NewSafe(f *Filter) *Safe {
	return &Safe{f: f}
}

// Insert adds key to the filter.
func (s *Safe) Insert(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.Insert(key)
}

// Query reports whether key is possibly present.
func (s *Safe) Query(key []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Query(key)
}

// Delete removes key from the filter. See Filter.Delete for the hazards of
// deleting keys that were never inserted.
func (s *Safe) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.Delete(key)
}

// Count returns the approximate number of keys in the filter.
func (s *Safe) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Count()
}

// Saturated returns the sorted indices of counters that have wrapped.
func (s *Safe) Saturated() []uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Saturated()
}

// Reset zeroes the filter.
func (s *Safe) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.f.Reset()
}

// MarshalBinary returns the canonical encoding of a consistent state.
func (s *Safe) MarshalBinary() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.MarshalBinary()
}
