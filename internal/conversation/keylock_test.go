package conversation

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyLockSerialisesSameKey(t *testing.T) {
	k := newKeyLock()
	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("U1")
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("peak concurrency = %d, want 1", peak)
	}
	if k.size() != 0 {
		t.Fatalf("entries left = %d", k.size())
	}
}

func TestKeyLockDifferentKeysDoNotBlock(t *testing.T) {
	k := newKeyLock()
	unlockA := k.Lock("A")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("B")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on B blocked behind A")
	}
}
