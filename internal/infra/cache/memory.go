package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Expired entries are skipped on read and
// removed by an optional periodic sweep.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Entry
	now  func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]Entry),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

// SetClock overrides the clock used for expiry. Intended for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the entry for key if it exists and has not expired.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok || entry.ExpiredAt(s.now()) {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Put replaces the entry for entry.Key.
func (s *MemoryStore) Put(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[entry.Key] = entry
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// StartSweeper removes expired entries every interval until Close.
func (s *MemoryStore) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Sweep removes every expired entry and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.data {
		if entry.ExpiredAt(now) {
			delete(s.data, key)
			removed++
		}
	}
	return removed
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	return nil
}
