package numbering

import (
	"context"
	"sync"
	"time"
)

// MemorySequencer is a process-local sequencer for tests and offline tooling.
type MemorySequencer struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemorySequencer constructs an empty MemorySequencer.
func NewMemorySequencer() *MemorySequencer {
	return &MemorySequencer{counters: make(map[string]int64)}
}

// Seed sets the last issued value for a day.
func (s *MemorySequencer) Seed(day time.Time, last int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[day.Format(DayLayout)] = last
}

// Next implements Sequencer.
func (s *MemorySequencer) Next(_ context.Context, day time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := day.Format(DayLayout)
	s.counters[key]++
	return s.counters[key], nil
}
