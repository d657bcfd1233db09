package quota

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no quota record is registered for a jti.
var ErrNotFound = errors.New("quota record not found")

// ErrBackendUnavailable is returned when the backing store cannot be reached.
var ErrBackendUnavailable = errors.New("quota backend unavailable")

// Record defines a public type used by the token engine APIs.
//
// Count never exceeds MaxCount; ExpiresAt carries the owning token's expiry so
// eviction is exact rather than heuristic.
type Record struct {
	Count     uint32
	MaxCount  uint32
	ExpiresAt int64
}

// Remaining returns how many downloads the record still permits.
func (r *Record) Remaining() int {
	if r.Count >= r.MaxCount {
		return 0
	}
	return int(r.MaxCount - r.Count)
}

// Store defines a public type used by the token engine APIs.
//
// Implementations must make RecordDownload linearizable per jti: for MaxCount M
// and N > M concurrent calls, exactly M observe true under every interleaving.
type Store interface {
	// Register creates the record for jti with a zero count. Called once at
	// issuance, only for tokens carrying a download quota.
	Register(ctx context.Context, jti string, maxCount uint32, expiresAt int64) error

	// Get returns the record for jti, or ErrNotFound when the token was issued
	// without a quota (or the record has been evicted).
	Get(ctx context.Context, jti string) (*Record, error)

	// RecordDownload atomically checks-and-increments the counter for jti.
	// It reports true when this use is accepted, false when the quota was
	// already exhausted. A jti with no registered record is unlimited and
	// always accepted.
	RecordDownload(ctx context.Context, jti string) (bool, error)

	// Sweep evicts records whose owning token expired before now (Unix
	// seconds) and reports how many were removed.
	Sweep(ctx context.Context, now int64) (int, error)
}
