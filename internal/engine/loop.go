package engine

import (
	"context"
	"log/slog"
	"time"
)

// Loop is the single-writer task loop.
//
// Thread-safety model:
//   - Post, Stop, Len: safe from any goroutine
//   - Run, Drain: must not run concurrently with each other
//
// ERROR HANDLING: a task that returns an error is logged with its seq and
// kind, and processing continues with the next task.
type Loop struct {
	clock  *Clock
	queue  *taskQueue
	logger *slog.Logger

	tick     func()
	interval time.Duration
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithTick makes Run call fn every interval, between tasks. Typical use is
// draining the dispatcher's creation queue once per frame.
func WithTick(interval time.Duration, fn func()) LoopOption {
	return func(l *Loop) {
		l.interval = interval
		l.tick = fn
	}
}

// WithClock sets the clock used to stamp tasks.
func WithClock(c *Clock) LoopOption {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithLogger sets the loop's logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates an empty loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		clock: NewClock(),
		queue: newTaskQueue(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Clock returns the loop's clock.
func (l *Loop) Clock() *Clock {
	return l.clock
}

// Post queues fn. Returns false if the loop has been stopped.
// It satisfies session.Scheduler.
func (l *Loop) Post(kind string, fn func() error) bool {
	return l.queue.Enqueue(Task{Seq: l.clock.Next(), Kind: kind, Fn: fn})
}

// Len returns the number of pending tasks.
func (l *Loop) Len() int {
	return l.queue.Len()
}

// Drain runs queued tasks on the calling goroutine until none remain,
// including tasks posted by the tasks it runs. Returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		t, ok := l.queue.TryDequeue()
		if !ok {
			return n
		}
		l.execute(t)
		n++
	}
}

// Run processes tasks until ctx is cancelled or Stop is called. Tasks
// already queued when Stop is called still run.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("loop starting")

	var ticks <-chan time.Time
	if l.tick != nil && l.interval > 0 {
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		if t, ok := l.queue.TryDequeue(); ok {
			l.execute(t)
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Info("loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()

		case <-ticks:
			l.tick()

		case <-l.queue.Wait():
			if l.queue.Closed() && l.queue.Len() == 0 {
				l.logger.Info("loop stopping: stopped")
				return nil
			}
		}
	}
}

// Stop closes the loop to new tasks and makes Run return once the queue
// is empty.
func (l *Loop) Stop() {
	l.queue.Close()
}

func (l *Loop) execute(t Task) {
	if err := t.Fn(); err != nil {
		l.logger.Error("task failed",
			"seq", t.Seq,
			"kind", t.Kind,
			"error", err,
		)
	}
}
