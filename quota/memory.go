package quota

import (
	"context"
	"sync"
)

// MemoryStore defines a public type used by the token engine APIs.
//
// MemoryStore is safe for concurrent use. State is process-local and invisible
// to other instances; use [RedisStore] when quotas must hold across a fleet.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
	}
}

// Register describes the register operation and its observable behavior.
//
// Register does not return an error for a duplicate jti; issuance generates
// unique identifiers, so the last write wins.
func (s *MemoryStore) Register(_ context.Context, jti string, maxCount uint32, expiresAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[jti] = &Record{
		MaxCount:  maxCount,
		ExpiresAt: expiresAt,
	}
	return nil
}

// Get describes the get operation and its observable behavior.
//
// Get returns a copy so callers can never mutate store state through the result.
func (s *MemoryStore) Get(_ context.Context, jti string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[jti]
	if !ok {
		return nil, ErrNotFound
	}

	out := *record
	return &out, nil
}

// RecordDownload describes the recorddownload operation and its observable behavior.
//
// The check and the increment happen under the same lock, so concurrent calls
// against one jti serialize and the counter never exceeds MaxCount.
func (s *MemoryStore) RecordDownload(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[jti]
	if !ok {
		// No quota registered at issuance: unlimited.
		return true, nil
	}
	if record.Count >= record.MaxCount {
		return false, nil
	}

	record.Count++
	return true, nil
}

// Sweep describes the sweep operation and its observable behavior.
func (s *MemoryStore) Sweep(_ context.Context, now int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for jti, record := range s.records {
		if record.ExpiresAt < now {
			delete(s.records, jti)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many records are currently held. Intended for tests and
// introspection, not for policy decisions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
