package quota

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	exp := time.Now().Add(time.Hour).Unix()
	if err := store.Register(ctx, "jti-1", 3, exp); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	record, err := store.Get(ctx, "jti-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Count != 0 || record.MaxCount != 3 || record.ExpiresAt != exp {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Remaining() != 3 {
		t.Fatalf("expected 3 remaining, got %d", record.Remaining())
	}

	if _, err := store.Get(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Register(ctx, "jti-1", 2, time.Now().Add(time.Hour).Unix()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	record, err := store.Get(ctx, "jti-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	record.Count = 99

	fresh, err := store.Get(ctx, "jti-1")
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if fresh.Count != 0 {
		t.Fatalf("mutation through Get result leaked into store: %+v", fresh)
	}
}

func TestMemoryStoreRecordDownloadSequence(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Register(ctx, "jti-1", 2, time.Now().Add(time.Hour).Unix()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	expected := []bool{true, true, false, false}
	for i, want := range expected {
		got, err := store.RecordDownload(ctx, "jti-1")
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if got != want {
			t.Fatalf("call %d: expected %v, got %v", i, want, got)
		}
	}

	record, err := store.Get(ctx, "jti-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Count != record.MaxCount {
		t.Fatalf("count %d exceeded or undershot max %d", record.Count, record.MaxCount)
	}
	if record.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", record.Remaining())
	}
}

func TestMemoryStoreUnregisteredIsUnlimited(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 100; i++ {
		ok, err := store.RecordDownload(ctx, "never-registered")
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
		if !ok {
			t.Fatalf("call %d rejected for a token without quota", i)
		}
	}
}

func TestMemoryStoreRecordDownloadLinearizable(t *testing.T) {
	const (
		maxCount = 10
		callers  = 50
		rounds   = 20
	)
	ctx := context.Background()

	for round := 0; round < rounds; round++ {
		store := NewMemoryStore()
		if err := store.Register(ctx, "jti-1", maxCount, time.Now().Add(time.Hour).Unix()); err != nil {
			t.Fatalf("register failed: %v", err)
		}

		var (
			wg      sync.WaitGroup
			start   = make(chan struct{})
			results = make([]bool, callers)
		)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				ok, err := store.RecordDownload(ctx, "jti-1")
				if err != nil {
					t.Errorf("download %d failed: %v", i, err)
					return
				}
				results[i] = ok
			}(i)
		}
		close(start)
		wg.Wait()

		granted := 0
		for _, ok := range results {
			if ok {
				granted++
			}
		}
		if granted != maxCount {
			t.Fatalf("round %d: expected exactly %d accepted downloads, got %d", round, maxCount, granted)
		}
	}
}

func TestMemoryStoreSweepEvictsOnlyExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Now().Unix()
	if err := store.Register(ctx, "expired", 1, now-10); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := store.Register(ctx, "live", 1, now+3600); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	removed, err := store.Sweep(ctx, now)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 eviction, got %d", removed)
	}

	if _, err := store.Get(ctx, "expired"); err != ErrNotFound {
		t.Fatalf("expected expired record evicted, got %v", err)
	}
	if _, err := store.Get(ctx, "live"); err != nil {
		t.Fatalf("live record evicted: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 record after sweep, got %d", store.Len())
	}
}
