package syncutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyMutexLockUnlock(t *testing.T) {
	m := NewKeyMutex()

	unlock, err := m.Lock(context.Background(), "key1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	unlock()
}

func TestKeyMutexMutualExclusion(t *testing.T) {
	m := NewKeyMutex()
	ctx := context.Background()

	var counter int64
	var wg sync.WaitGroup
	const n = 100

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, "counter")
			if err != nil {
				t.Errorf("lock failed: %v", err)
				return
			}
			defer unlock()
			// Non-atomic increment — if mutual exclusion is broken, this will be visible.
			v := atomic.LoadInt64(&counter)
			atomic.StoreInt64(&counter, v+1)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&counter); got != n {
		t.Fatalf("expected %d, got %d — mutual exclusion violated", n, got)
	}
}

func TestKeyMutexContextCancelled(t *testing.T) {
	m := NewKeyMutex()

	unlock, err := m.Lock(context.Background(), "blocked")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = m.Lock(cancelCtx, "blocked")
	if err == nil {
		t.Fatal("expected context error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}

	unlock()
}

func TestKeyMutexDifferentKeysNoContention(t *testing.T) {
	m := NewKeyMutex()
	ctx := context.Background()

	unlock1, err := m.Lock(ctx, "alpha-fingerprint-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	unlock2, err := m.Lock(timeoutCtx, "beta-fingerprint-key")
	if err != nil {
		// The two keys hashed to the same shard. Rare but legal.
		t.Skip("keys hashed to same shard, skipping contention-free check")
	}

	unlock2()
	unlock1()
}

func TestKeyMutexUnlockAllowsNext(t *testing.T) {
	m := NewKeyMutex()
	ctx := context.Background()

	unlock, err := m.Lock(ctx, "relay")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		u, err := m.Lock(ctx, "relay")
		if err != nil {
			return
		}
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second goroutine acquired lock before first released")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second goroutine did not acquire lock after first released")
	}
}
