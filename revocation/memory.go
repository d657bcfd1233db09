package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryStore defines a public type used by the token engine APIs.
//
// MemoryStore is safe for concurrent use. State is process-local and invisible
// to other instances; use [RedisStore] when revocation must hold across a fleet.
type MemoryStore struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
//
// Entry deadlines are derived from clock, so a store owned by an engine must
// share the engine's time source. A nil clock falls back to the real one.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		clock:   clock,
		revoked: make(map[string]time.Time),
	}
}

// Revoke describes the revoke operation and its observable behavior.
func (s *MemoryStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// Token already expired; expiry alone denies it.
		return nil
	}

	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	// Opportunistic reap keeps the set bounded without a dedicated timer.
	for id, deadline := range s.revoked {
		if now.After(deadline) {
			delete(s.revoked, id)
		}
	}

	s.revoked[jti] = now.Add(ttl)
	return nil
}

// IsRevoked describes the isrevoked operation and its observable behavior.
func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.revoked[jti]
	if !ok {
		return false, nil
	}
	if s.clock.Now().After(deadline) {
		delete(s.revoked, jti)
		return false, nil
	}
	return true, nil
}

// Len reports how many revocation entries are currently held. Intended for
// tests and introspection.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.revoked)
}
