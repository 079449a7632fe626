package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Options{})

	if _, ok, err := s.Get(ctx, "U1"); ok || err != nil {
		t.Fatalf("new user: ok=%v err=%v, want absent without error", ok, err)
	}
	if err := s.Set(ctx, "U1", "火鍋 🍲"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "U1", "日式料理 🍣"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, ok, err := s.Get(ctx, "U1")
	if err != nil || !ok || got != "日式料理 🍣" {
		t.Fatalf("get = %q ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := s.Get(ctx, "U2"); ok {
		t.Fatal("entries must be per user")
	}
	if err := s.Delete(ctx, "U1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "U1"); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "U1"); ok {
		t.Fatal("entry survived delete")
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(Options{TTL: time.Minute, Now: clock.Now})

	_ = s.Set(ctx, "U1", "火鍋 🍲")
	_ = s.Set(ctx, "U2", "火鍋 🍲")
	clock.Advance(59 * time.Second)
	if _, ok, _ := s.Get(ctx, "U1"); !ok {
		t.Fatal("entry expired too early")
	}
	clock.Advance(time.Second)
	if _, ok, _ := s.Get(ctx, "U1"); ok {
		t.Fatal("entry should have expired")
	}
	n, err := s.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d entries, want 1", n)
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d after purge", s.Len())
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Options{})
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("U%d", i%4)
			for j := 0; j < 200; j++ {
				_ = s.Set(ctx, user, fmt.Sprintf("c%d", j))
				_, _, _ = s.Get(ctx, user)
				if j%50 == 0 {
					_ = s.Delete(ctx, user)
				}
			}
		}(i)
	}
	wg.Wait()
	if s.Len() > 4 {
		t.Fatalf("len = %d, want at most 4 users", s.Len())
	}
}
