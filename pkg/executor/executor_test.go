package executor

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = time.Second

func newTestExecutor(t *testing.T) (*Executor, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	e := New(Config{Clock: mock})
	t.Cleanup(func() {
		_ = e.Close(context.Background())
	})
	return e, mock
}

// recorder collects values appended from executor tasks.
type recorder struct {
	mu     sync.Mutex
	values []int
}

func (r *recorder) add(v int) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values...)
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func TestPushRunsInOrder(t *testing.T) {
	e, _ := newTestExecutor(t)

	var rec recorder
	for i := range 100 {
		require.NoError(t, e.Push(func() { rec.add(i) }))
	}
	require.NoError(t, e.Flush(context.Background()))

	values := rec.snapshot()
	require.Len(t, values, 100)
	for i, v := range values {
		assert.Equal(t, i, v)
	}
}

func TestTasksNeverOverlap(t *testing.T) {
	e, _ := newTestExecutor(t)

	var running, overlaps atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_ = e.Push(func() {
					if running.Add(1) > 1 {
						overlaps.Add(1)
					}
					running.Add(-1)
				})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, e.Flush(context.Background()))
	assert.Zero(t, overlaps.Load())
}

func TestInExecutor(t *testing.T) {
	e, _ := newTestExecutor(t)

	assert.False(t, e.InExecutor())

	inside := make(chan bool, 1)
	require.NoError(t, e.Push(func() { inside <- e.InExecutor() }))
	assert.True(t, <-inside)
}

func TestFlushFromTaskFails(t *testing.T) {
	e, _ := newTestExecutor(t)

	result := make(chan error, 1)
	require.NoError(t, e.Push(func() { result <- e.Flush(context.Background()) }))
	assert.ErrorIs(t, <-result, ErrStopped)
}

func TestPanicIsRecovered(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	e := New(Config{Clock: clock.NewMock(), Logger: logger})
	defer func() { _ = e.Close(context.Background()) }()

	var rec recorder
	require.NoError(t, e.Push(func() { panic("handler bug") }))
	require.NoError(t, e.Push(func() { rec.add(1) }))
	require.NoError(t, e.Flush(context.Background()))

	assert.Equal(t, []int{1}, rec.snapshot())
	assert.Contains(t, buf.String(), "executor task panicked")
	assert.Contains(t, buf.String(), "handler bug")
}

func TestCloseDrainsQueue(t *testing.T) {
	e := New(Config{Clock: clock.NewMock()})

	var rec recorder
	block := make(chan struct{})
	require.NoError(t, e.Push(func() { <-block }))
	for i := range 5 {
		require.NoError(t, e.Push(func() { rec.add(i) }))
	}

	closed := make(chan error, 1)
	go func() { closed <- e.Close(context.Background()) }()

	require.Eventually(t, e.Stopped, waitFor, time.Millisecond)
	assert.ErrorIs(t, e.Push(func() {}), ErrStopped)

	close(block)
	require.NoError(t, <-closed)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, rec.snapshot())

	select {
	case <-e.Done():
	default:
		t.Fatal("Done not closed after Close returned")
	}
}

func TestCloseFromTask(t *testing.T) {
	e := New(Config{Clock: clock.NewMock()})

	result := make(chan error, 1)
	require.NoError(t, e.Push(func() { result <- e.Close(context.Background()) }))
	require.NoError(t, <-result)

	select {
	case <-e.Done():
	case <-time.After(waitFor):
		t.Fatal("executor did not exit")
	}
}

func TestCloseHonoursContext(t *testing.T) {
	e := New(Config{Clock: clock.NewMock()})

	block := make(chan struct{})
	require.NoError(t, e.Push(func() { <-block }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, e.Close(ctx), context.DeadlineExceeded)

	close(block)
	<-e.Done()
}

func TestAfterFuncFiresOnExecutor(t *testing.T) {
	e, mock := newTestExecutor(t)

	fired := make(chan bool, 1)
	timer := e.AfterFunc(250*time.Millisecond, func() { fired <- e.InExecutor() })
	assert.True(t, timer.Active())

	mock.Add(249 * time.Millisecond)
	require.NoError(t, e.Flush(context.Background()))
	assert.Empty(t, fired)

	mock.Add(time.Millisecond)
	select {
	case inside := <-fired:
		assert.True(t, inside)
	case <-time.After(waitFor):
		t.Fatal("timer did not fire")
	}
	require.Eventually(t, func() bool { return !timer.Active() }, waitFor, time.Millisecond)
}

func TestTimerStop(t *testing.T) {
	e, mock := newTestExecutor(t)

	var rec recorder
	timer := e.AfterFunc(time.Second, func() { rec.add(1) })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	assert.False(t, timer.Active())

	mock.Add(2 * time.Second)
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, e.Flush(context.Background()))
	assert.Zero(t, rec.len())
}

func TestTimerStopSkipsQueuedExpiry(t *testing.T) {
	e, mock := newTestExecutor(t)

	var rec recorder
	block := make(chan struct{})
	require.NoError(t, e.Push(func() { <-block }))
	timer := e.AfterFunc(time.Second, func() { rec.add(1) })

	// The expiry is queued behind the blocked task.
	mock.Add(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, timer.Stop())
	close(block)

	require.NoError(t, e.Flush(context.Background()))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, e.Flush(context.Background()))
	assert.Zero(t, rec.len())
}

func TestTimerReset(t *testing.T) {
	e, mock := newTestExecutor(t)

	var rec recorder
	timer := e.AfterFunc(time.Second, func() { rec.add(1) })

	mock.Add(900 * time.Millisecond)
	timer.Reset(time.Second)

	mock.Add(900 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, e.Flush(context.Background()))
	assert.Zero(t, rec.len())

	mock.Add(100 * time.Millisecond)
	require.Eventually(t, func() bool { return rec.len() == 1 }, waitFor, time.Millisecond)
}

func TestEveryRearms(t *testing.T) {
	e, mock := newTestExecutor(t)

	var rec recorder
	timer := e.Every(2*time.Second, func() { rec.add(1) })

	for want := 1; want <= 3; want++ {
		mock.Add(2 * time.Second)
		require.Eventually(t, func() bool { return rec.len() == want }, waitFor, time.Millisecond)
		// Wait for the re-arm to land before advancing the clock again.
		require.NoError(t, e.Flush(context.Background()))
	}

	timer.Stop()
	mock.Add(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, e.Flush(context.Background()))
	assert.Equal(t, 3, rec.len())
}

func TestTimerAfterCloseIsDropped(t *testing.T) {
	mock := clock.NewMock()
	e := New(Config{Clock: mock})

	var rec recorder
	e.AfterFunc(time.Second, func() { rec.add(1) })
	require.NoError(t, e.Close(context.Background()))

	mock.Add(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, rec.len())
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
