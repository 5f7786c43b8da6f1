package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the in-process counter store for single-instance
// deployments. A janitor goroutine sweeps expired windows so the map stays
// bounded by the number of distinct clients seen in one window.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
	clock   Clock

	stop     chan struct{}
	stopOnce sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock injects a clock, used by tests to control window expiry.
func WithClock(c Clock) MemoryOption {
	return func(s *MemoryStore) { s.clock = c }
}

// NewMemoryStore creates a MemoryStore whose janitor runs every
// sweepInterval. A non-positive interval disables the janitor; expired
// entries are then only replaced lazily on their next hit.
func NewMemoryStore(sweepInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*entry),
		clock:   SystemClock{},
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if sweepInterval > 0 {
		go s.janitor(sweepInterval)
	}
	return s
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		// First sight, or the previous window elapsed: replace, not merge.
		e = &entry{count: 1, resetAt: now.Add(window)}
		s.entries[key] = e
		return Result{Allowed: true, Limit: limit, Remaining: limit - 1, Reset: e.resetAt}, nil
	}

	if e.count < limit {
		e.count++
		return Result{Allowed: true, Limit: limit, Remaining: limit - e.count, Reset: e.resetAt}, nil
	}

	// Over budget: reject without incrementing.
	return Result{Allowed: false, Limit: limit, Remaining: 0, Reset: e.resetAt}, nil
}

// Sweep removes entries whose window has expired. Exposed for tests; the
// janitor calls it on its interval.
func (s *MemoryStore) Sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked clients. Exposed for tests.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}

var _ Store = (*MemoryStore)(nil)
