// Package executor runs tasks and timer callbacks one at a time on a
// dedicated goroutine.
//
// The protocol state machines never call user code directly. Completions,
// notifications and timer expiries are pushed to an Executor, so callbacks
// never run concurrently with each other and may call back into the
// protocol interface without deadlocking.
//
// Time is read from a clock.Clock so tests can drive timers with
// clock.NewMock.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/avb-tools/avdecc-go/internal/goid"
)

// Executor errors.
var (
	ErrStopped = errors.New("executor stopped")
)

// Config configures an Executor.
type Config struct {
	// Clock drives timers. Defaults to the wall clock.
	Clock clock.Clock

	// Logger receives task panics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Executor is a single-goroutine task queue.
type Executor struct {
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	stopped bool
	worker  uint64

	done chan struct{}
}

// New starts an executor.
func New(cfg Config) *Executor {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	e := &Executor{
		clock:  cfg.Clock,
		logger: cfg.Logger,
		done:   make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// Clock returns the clock timers are scheduled on.
func (e *Executor) Clock() clock.Clock {
	return e.clock
}

// Push queues task. It fails with ErrStopped once Close was called.
func (e *Executor) Push(task func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.queue = append(e.queue, task)
	e.cond.Signal()
	return nil
}

// Stopped reports whether Close was called.
func (e *Executor) Stopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// InExecutor reports whether the caller runs on the executor goroutine.
func (e *Executor) InExecutor() bool {
	e.mu.Lock()
	worker := e.worker
	e.mu.Unlock()
	return worker != 0 && worker == goid.ID()
}

// Flush waits until every task queued before the call has run.
func (e *Executor) Flush(ctx context.Context) error {
	if e.InExecutor() {
		return fmt.Errorf("flush from executor goroutine: %w", ErrStopped)
	}
	reached := make(chan struct{})
	if err := e.Push(func() { close(reached) }); err != nil {
		return err
	}
	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, runs the ones already queued and waits for
// the goroutine to exit. Called from a task, it returns without waiting.
func (e *Executor) Close(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = true
	e.cond.Signal()
	e.mu.Unlock()

	if e.InExecutor() {
		return nil
	}
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the executor goroutine has exited.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

func (e *Executor) run() {
	defer close(e.done)

	e.mu.Lock()
	e.worker = goid.ID()
	e.mu.Unlock()

	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.stopped {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		batch := e.queue
		e.queue = nil
		e.mu.Unlock()

		for _, task := range batch {
			e.execute(task)
		}
	}
}

func (e *Executor) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("executor task panicked",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	task()
}

// Timer is a callback scheduled on an Executor.
type Timer struct {
	e        *Executor
	task     func()
	period   time.Duration
	periodic bool

	mu      sync.Mutex
	timer   *clock.Timer
	gen     uint64
	stopped bool
}

// AfterFunc runs task on the executor once d has elapsed.
func (e *Executor) AfterFunc(d time.Duration, task func()) *Timer {
	t := &Timer{e: e, task: task}
	t.mu.Lock()
	t.armLocked(d)
	t.mu.Unlock()
	return t
}

// Every runs task on the executor every d until the timer is stopped.
func (e *Executor) Every(d time.Duration, task func()) *Timer {
	t := &Timer{e: e, task: task, period: d, periodic: true}
	t.mu.Lock()
	t.armLocked(d)
	t.mu.Unlock()
	return t
}

// Stop cancels the timer. A callback already queued on the executor is
// skipped. Stop reports whether the timer was active.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
	return true
}

// Reset re-arms the timer to fire after d, cancelling the pending expiry.
// A periodic timer returns to its period after the next expiry.
func (t *Timer) Reset(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.stopped = false
	t.armLocked(d)
}

// Active reports whether the timer will fire.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped
}

func (t *Timer) armLocked(d time.Duration) {
	t.gen++
	gen := t.gen
	t.timer = t.e.clock.AfterFunc(d, func() {
		// ErrStopped means the executor is shutting down; the expiry is dropped.
		_ = t.e.Push(func() { t.fire(gen) })
	})
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || t.gen != gen {
		t.mu.Unlock()
		return
	}
	if !t.periodic {
		t.stopped = true
	}
	t.mu.Unlock()

	t.task()

	if !t.periodic {
		return
	}
	t.mu.Lock()
	if !t.stopped && t.gen == gen {
		t.armLocked(t.period)
	}
	t.mu.Unlock()
}
