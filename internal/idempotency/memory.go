package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store. Expiry is passive: a stale record is
// treated as absent on read and overwritten on write. StartSweeper adds an
// active sweep for long-lived processes.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	rec       Record
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	s.mu.RLock()
	entry, ok := s.records[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	rec := entry.rec
	return &rec, nil
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, key string, rec *Record, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.records[key]; ok && now.Before(entry.expiresAt) {
		return false, nil
	}
	s.records[key] = memoryRecord{rec: *rec, expiresAt: now.Add(ttl)}
	return true, nil
}

// StartSweeper removes expired records every interval until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.sweep(now)
			}
		}
	}()
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.records {
		if now.After(entry.expiresAt) {
			delete(s.records, key)
		}
	}
}
