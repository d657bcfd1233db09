package revocation

import (
	"context"
	"errors"
	"time"
)

// ErrBackendUnavailable is returned when the backing store cannot be reached.
var ErrBackendUnavailable = errors.New("revocation backend unavailable")

// Store defines a public type used by the token engine APIs.
type Store interface {
	// Revoke marks jti as revoked. Revoking an already revoked jti is a no-op.
	// ttl bounds how long the entry is retained; it should be the token's
	// remaining lifetime, after which revocation is redundant with expiry.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked reports whether jti has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
