package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m3rciful/roulettebot/core/logger"
)

type apiErr struct{ code int }

func (e apiErr) Error() string   { return fmt.Sprintf("line api: status %d", e.code) }
func (e apiErr) HTTPStatus() int { return e.code }

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "push", "line", func(context.Context) error {
		n := calls.Add(1)
		if n == 1 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		if n == 2 {
			return apiErr{code: 500}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed")
	}
	d.Close()
	if calls.Load() != 3 || d.SentCount() != 1 || d.ErrorCount() != 0 {
		t.Fatalf("calls=%d sent=%d errs=%d", calls.Load(), d.SentCount(), d.ErrorCount())
	}
}

func TestDispatcherDoesNotRetryClientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "push", "line", func(context.Context) error {
		calls.Add(1)
		return apiErr{code: 400}
	})
	d.Close()
	if calls.Load() != 1 || d.ErrorCount() != 1 {
		t.Fatalf("calls=%d errs=%d", calls.Load(), d.ErrorCount())
	}
}

func TestDispatcherRecoversPanics(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	_ = d.Enqueue(context.Background(), "push", "line", func(context.Context) error {
		panic("boom")
	})
	d.Close()
	if d.ErrorCount() != 1 {
		t.Fatalf("errs = %d, want 1", d.ErrorCount())
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	if err := d.Enqueue(context.Background(), "push", "", func(context.Context) error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestEnqueueQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	block := func(context.Context) error {
		close(started)
		<-release
		return nil
	}
	_ = d.Enqueue(context.Background(), "push", "", block)
	<-started
	_ = d.Enqueue(context.Background(), "push", "", func(context.Context) error { return nil })
	err := d.Enqueue(context.Background(), "push", "", func(context.Context) error { return nil })
	close(release)
	d.Close()
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		kind  string
		retry bool
	}{
		{"rate limited", apiErr{code: 429}, "rate_limited", true},
		{"server", apiErr{code: 502}, "http_5xx", true},
		{"telegram suffix", errors.New("telegram: chat not found (400)"), "http_4xx", false},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, "dial", true},
		{"deadline", context.DeadlineExceeded, "timeout", true},
		{"plain", errors.New("boom"), "unknown", false},
	}
	for _, tc := range cases {
		f := classify(tc.err)
		if f.kind != tc.kind || f.retry != tc.retry {
			t.Errorf("%s: classify = %+v, want kind %q retry %v", tc.name, f, tc.kind, tc.retry)
		}
	}
}

func TestRedact(t *testing.T) {
	msg := redact(errors.New("Post https://api.telegram.org/bot123:ABC-def/sendMessage: Bearer xyz.abc"))
	if msg != "Post https://api.telegram.org/<redacted>/sendMessage: <redacted>" {
		t.Fatalf("redacted = %q", msg)
	}
}

func TestSameUserJobsRunInOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 128})
	ctx := logger.WithEventMeta(context.Background(), "line", "", "U1")
	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 20; i++ {
		if err := d.Enqueue(ctx, "reply", "line", func(context.Context) error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	d.Close()
	for i, v := range got {
		if v != i {
			t.Fatalf("jobs ran out of order: %v", got)
		}
	}
	if len(got) != 20 {
		t.Fatalf("ran %d jobs, want 20", len(got))
	}
}
