package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

func TestMemoryStoreRevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if revoked {
		t.Fatal("fresh jti reported revoked")
	}

	if err := store.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	// Idempotent: a second revoke must not error or change the outcome.
	if err := store.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("second revoke failed: %v", err)
	}

	revoked, err = store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !revoked {
		t.Fatal("revoked jti reported valid")
	}
}

func TestMemoryStoreEntryExpires(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)

	if err := store.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	clock.Advance(2 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if revoked {
		t.Fatal("entry survived past the token lifetime")
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry pruned, %d left", store.Len())
	}
}

// Deadlines must come from the injected clock, not the wall clock: an entry
// whose lifetime has lapsed on the store's clock is gone even though almost
// no wall time passed.
func TestMemoryStoreHonorsInjectedClock(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)

	if err := store.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !revoked {
		t.Fatal("entry not visible before its deadline")
	}

	clock.Advance(time.Hour + time.Second)

	revoked, err = store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check after advance failed: %v", err)
	}
	if revoked {
		t.Fatal("entry survived the injected clock passing its deadline")
	}
}

func TestMemoryStoreNonPositiveTTLIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	if err := store.Revoke(ctx, "jti-1", 0); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("expired token recorded in revocation set")
	}
}

func TestMemoryStoreRevokeReapsStaleEntries(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(clock)

	if err := store.Revoke(ctx, "stale", time.Minute); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	clock.Advance(2 * time.Minute)

	if err := store.Revoke(ctx, "fresh", time.Hour); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected stale entry reaped on write, %d entries left", store.Len())
	}
}

func TestRedisStoreRevokeAndCheck(t *testing.T) {
	ctx := context.Background()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRedisStore(rdb, "tgr")

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if revoked {
		t.Fatal("fresh jti reported revoked")
	}

	if err := store.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if err := store.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("second revoke failed: %v", err)
	}

	revoked, err = store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !revoked {
		t.Fatal("revoked jti reported valid")
	}

	mr.FastForward(2 * time.Minute)

	revoked, err = store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("check after TTL failed: %v", err)
	}
	if revoked {
		t.Fatal("entry survived past its TTL")
	}
}
