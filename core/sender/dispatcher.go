// Package sender delivers outbound platform calls on a bounded worker pool with retries.
// Calls made for the same user run on the same worker, so one user's replies
// never overtake each other.
package sender

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/roulettebot/core/logger"
	"github.com/m3rciful/roulettebot/core/netutil"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("sender: queue closed")
	// ErrQueueFull is returned when the worker owning the job has no free slot.
	ErrQueueFull = errors.New("sender: queue full")
)

// Options tunes the dispatcher. Zero values pick the defaults noted per field.
type Options struct {
	QueueSize    int           // total buffered jobs across workers, 256
	Workers      int           // 4
	MaxRetries   int           // retries after the first attempt, 0
	RetryBackoff time.Duration // multiplied by the attempt number, 2s
	MaxDuration  time.Duration // time limit for all attempts of one job, 12s
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func(ctx context.Context) error
}

// Dispatcher runs jobs asynchronously. It is safe for concurrent use.
type Dispatcher struct {
	opts   Options
	shards []chan job
	next   atomic.Uint32

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	perShard := (opts.QueueSize + opts.Workers - 1) / opts.Workers
	d := &Dispatcher{opts: opts, shards: make([]chan job, opts.Workers)}
	for i := range d.shards {
		d.shards[i] = make(chan job, perShard)
		d.wg.Add(1)
		go d.work(d.shards[i])
	}
	return d
}

// Enqueue schedules run. Jobs whose ctx carries a user id (logger.WithEventMeta)
// are ordered per user; the rest are spread round-robin. The job keeps ctx's
// values but not its cancellation, and gets at most MaxDuration for all attempts,
// so run must be safe to repeat when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func(ctx context.Context) error) error {
	if run == nil {
		return errors.New("sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	j := job{ctx: context.WithoutCancel(ctx), action: action, endpoint: endpoint, run: run}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.shards[d.shardFor(ctx)] <- j:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) shardFor(ctx context.Context) int {
	n := uint32(len(d.shards))
	if user := logger.UserIDFrom(ctx); user != "" {
		h := fnv.New32a()
		_, _ = h.Write([]byte(user))
		return int(h.Sum32() % n)
	}
	return int(d.next.Add(1) % n)
}

// ErrorCount returns how many jobs failed for good.
func (d *Dispatcher) ErrorCount() uint64 { return d.failed.Load() }

// SentCount returns how many jobs eventually succeeded.
func (d *Dispatcher) SentCount() uint64 { return d.sent.Load() }

// Close rejects new jobs and waits until queued ones have run.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.shards {
		close(q)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work(q <-chan job) {
	defer d.wg.Done()
	for j := range q {
		d.process(j)
	}
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()
	start := time.Now()
	base := []slog.Attr{slog.String("operation", j.action)}
	if j.endpoint != "" {
		base = append(base, slog.String("endpoint", j.endpoint))
	}
	logger.Debug(j.ctx, "sender", "send.start", base...)

	var (
		err     error
		attempt int
	)
	for attempt = 1; ; attempt++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = d.call(ctx, j); err == nil {
			break
		}
		if attempt > d.opts.MaxRetries || !classify(err).retry {
			break
		}
		logger.Debug(j.ctx, "sender", "send.retry", append(base,
			slog.Int("attempts", attempt),
			slog.Duration("backoff", d.opts.RetryBackoff*time.Duration(attempt)),
			slog.String("err", redact(err)),
		)...)
		if berr := netutil.Backoff(ctx, d.opts.RetryBackoff, attempt); berr != nil {
			err = berr
			break
		}
	}

	attrs := append(base, slog.Int("attempts", attempt), slog.Duration("duration", time.Since(start)))
	if err == nil {
		d.sent.Add(1)
		if attempt > 1 {
			logger.Info(j.ctx, "sender", "send.recovered", attrs...)
		} else {
			logger.Debug(j.ctx, "sender", "send.ok", attrs...)
		}
		return
	}
	d.failed.Add(1)
	f := classify(err)
	attrs = append(attrs,
		slog.String("status", "fail"),
		slog.String("err", redact(err)),
		slog.String("err_code", f.kind),
		slog.Bool("retryable", f.retry),
	)
	if f.status != 0 {
		attrs = append(attrs, slog.Int("http_code", f.status))
	}
	logger.Error(j.ctx, "sender", "send.fail", attrs...)
}

func (d *Dispatcher) call(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender: %s job panicked: %v", j.action, r)
		}
	}()
	return j.run(ctx)
}
