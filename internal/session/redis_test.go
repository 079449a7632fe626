package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniRedis(t *testing.T, opts Options) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "roulette:", opts), mr
}

func TestRedisStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniRedis(t, Options{})

	if got, ok, err := s.Get(ctx, "U1"); ok || err != nil || got != "" {
		t.Fatalf("new user: %q ok=%v err=%v, want absent without error", got, ok, err)
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
	if v, _ := mr.Get("roulette:U1:session"); v != "日式料理 🍣" {
		t.Fatalf("stored value = %q", v)
	}
	if mr.TTL("roulette:U1:session") != 0 {
		t.Fatal("no TTL configured, key must not expire")
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

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newMiniRedis(t, Options{TTL: time.Minute})

	if err := s.Set(ctx, "U1", "火鍋 🍲"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("roulette:U1:session"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}
	mr.FastForward(59 * time.Second)
	if _, ok, _ := s.Get(ctx, "U1"); !ok {
		t.Fatal("entry expired too early")
	}
	mr.FastForward(time.Second)
	if _, ok, err := s.Get(ctx, "U1"); ok || err != nil {
		t.Fatalf("expired entry: ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreKey(t *testing.T) {
	s := NewRedisStore(nil, "roulette:", Options{})
	if got := s.key("U123"); got != "roulette:U123:session" {
		t.Fatalf("key = %q", got)
	}
}

func TestRedisStoreWrapsBackendErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := NewRedisStore(client, "t:", Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, _, err := s.Get(ctx, "U1"); !errors.Is(err, ErrBackend) {
		t.Fatalf("get: expected ErrBackend, got %v", err)
	}
	if err := s.Set(ctx, "U1", "火鍋"); !errors.Is(err, ErrBackend) {
		t.Fatalf("set: expected ErrBackend, got %v", err)
	}
}
