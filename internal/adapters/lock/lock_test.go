package lock

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQuotaKey(t *testing.T) {
	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if got := QuotaKey("u1", week); got != "quota:u1:2026-03-02" {
		t.Errorf("QuotaKey() = %q", got)
	}
}

func TestMemory_SerializesSameKey(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, "quota:u1")
			if err != nil {
				t.Error(err)
				return
			}
			n := inside.Add(1)
			for {
				cur := maxInside.Load()
				if n <= cur || maxInside.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside.Load() != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside.Load())
	}
	if m.held() != 0 {
		t.Errorf("held() = %d after all unlocks, want 0", m.held())
	}
}

func TestMemory_DifferentKeysDoNotBlock(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	unlockA, err := m.Lock(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("Lock(b) = %v while a is held", err)
	}
	unlockB()
}

func TestMemory_ContextCancelWhileWaiting(t *testing.T) {
	m := NewMemory()
	unlock, _ := m.Lock(context.Background(), "k")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Lock() = %v, want DeadlineExceeded", err)
	}

	unlock()
	unlock() // second call is a no-op
	if m.held() != 0 {
		t.Errorf("held() = %d, want 0", m.held())
	}
}

// Integration test - requires Redis to be running.
func TestRedis_Integration(t *testing.T) {
	addr := os.Getenv("TENISZ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test. Set TENISZ_TEST_REDIS_ADDR to run")
	}
	ctx := context.Background()
	client, err := Dial(ctx, addr, os.Getenv("TENISZ_TEST_REDIS_PASSWORD"))
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	r := NewRedis(client, "teniszklub-test:")
	r.wait = 50 * time.Millisecond

	unlock, err := r.Lock(ctx, "quota:u1:2026-03-02")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Lock(ctx, "quota:u1:2026-03-02"); !errors.Is(err, ErrTimeout) {
		t.Errorf("second Lock() = %v, want ErrTimeout", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock()
		}()
	}
	wg.Wait()

	again, err := r.Lock(ctx, "quota:u1:2026-03-02")
	if err != nil {
		t.Fatalf("Lock() after release = %v", err)
	}
	unlock() // a stale release must not free the new holder's key
	if _, err := r.Lock(ctx, "quota:u1:2026-03-02"); !errors.Is(err, ErrTimeout) {
		t.Errorf("Lock() while re-held = %v, want ErrTimeout", err)
	}
	again()
}
