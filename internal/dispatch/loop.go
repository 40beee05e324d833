// Package dispatch provides the single-threaded cooperative event loop
// that owns all render-touching state. Periodic refresh tasks, fade steps
// and alarm timers all execute as closures on one goroutine, so the shared
// surface never needs locking and the display-hidden flag can never tear.
//
// Task bodies must not block for non-trivial durations: slow I/O belongs on
// its own goroutine, with only the final render write posted back here.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultQueueSize bounds the pending-work queue. With a handful of
// periodic tasks the queue stays near empty; the bound guards against a
// runaway producer.
const DefaultQueueSize = 256

// Loop is the dispatcher. Create with New, drive with Run.
//
// Timer continuations travel on their own channel, separate from the
// droppable Post queue: a periodic task re-arms through its timer, so a
// saturated queue must never be able to swallow the re-arm and silently
// kill the task.
type Loop struct {
	work   chan func()
	timers chan func()

	closing   chan struct{}
	closeOnce sync.Once
}

// New creates a Loop with the default queue size.
func New() *Loop {
	return NewWithQueueSize(DefaultQueueSize)
}

// NewWithQueueSize creates a Loop with a custom queue size.
func NewWithQueueSize(size int) *Loop {
	return &Loop{
		work:    make(chan func(), size),
		timers:  make(chan func(), size),
		closing: make(chan struct{}),
	}
}

// Run executes posted work until the context is cancelled. It must be
// called exactly once; everything submitted via Post/After/Every runs on
// this goroutine.
func (l *Loop) Run(ctx context.Context) error {
	log.Info().Msg("Dispatch loop started")
	defer l.markClosing()

	for {
		// Timer continuations take priority over posted work so a burst of
		// Post traffic can never delay a due re-arm behind a full queue.
		select {
		case <-ctx.Done():
			log.Info().Msg("Dispatch loop stopping")
			return nil
		case fn := <-l.timers:
			l.invoke(fn)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Dispatch loop stopping")
			return nil
		case fn := <-l.timers:
			l.invoke(fn)
		case fn := <-l.work:
			l.invoke(fn)
		}
	}
}

// invoke runs one unit of work with panic isolation.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Dispatched work panicked")
		}
	}()
	fn()
}

// Post queues fn for execution on the loop goroutine. Non-blocking: if the
// queue is full or the loop is shutting down the work is dropped with a
// log, never deadlocking a caller that happens to be the loop itself.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.closing:
		return
	default:
	}

	select {
	case l.work <- fn:
	default:
		log.Error().Msg("Dispatch queue full, dropping work")
	}
}

// postTimer delivers a timer continuation. Unlike Post it never drops:
// the sender is an AfterFunc goroutine (or a startup caller registering a
// periodic task), so blocking until the loop drains is safe, and a timer
// firing is exactly the work that must not be lost.
func (l *Loop) postTimer(fn func()) {
	select {
	case <-l.closing:
		return
	default:
	}

	select {
	case l.timers <- fn:
	case <-l.closing:
	}
}

func (l *Loop) markClosing() {
	l.closeOnce.Do(func() { close(l.closing) })
}

// Timer is a cancellable one-shot scheduled with After. Cancel must be
// called on the loop goroutine (which is where every caller in this
// program lives); the cancelled flag is then read and written on a single
// goroutine.
type Timer struct {
	cancelled bool
	timer     *time.Timer
}

// Cancel prevents the timer's body from running if it has not run yet.
// Safe to call multiple times and after the body has run.
func (t *Timer) Cancel() {
	if t == nil {
		return
	}
	t.cancelled = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Cancelled reports whether Cancel has been called.
func (t *Timer) Cancelled() bool {
	return t != nil && t.cancelled
}

// After schedules fn to run on the loop after d. The returned Timer can
// cancel the pending continuation; cancellation is honored even if the
// underlying timer already queued the work.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(d, func() {
		l.postTimer(func() {
			if t.cancelled {
				return
			}
			fn()
		})
	})
	return t
}

// Every registers a named periodic task. The first run happens
// immediately; afterwards the task re-arms itself for interval after each
// body completes. A panicking body is logged and the task still re-arms,
// so one task's failure never halts its siblings or the loop. Both the
// registration and every re-arm ride the timer channel, which never
// drops, so queue saturation cannot kill a periodic task.
func (l *Loop) Every(name string, interval time.Duration, fn func()) {
	var tick func()
	tick = func() {
		l.runTask(name, fn)
		l.After(interval, tick)
	}
	l.postTimer(tick)
}

func (l *Loop) runTask(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("task", name).Msg("Periodic task panicked")
		}
	}()
	fn()
}
