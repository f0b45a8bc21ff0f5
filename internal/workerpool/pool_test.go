package workerpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	handled   map[int64]int
	cancelled map[int64]bool
	done      chan int64
}

func newRecorder() *recorder {
	return &recorder{
		handled:   make(map[int64]int),
		cancelled: make(map[int64]bool),
		done:      make(chan int64, 100),
	}
}

func (r *recorder) handler(delay time.Duration) Handler {
	return func(ctx context.Context, job Job) {
		wasCancelled := false
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			wasCancelled = true
		}
		r.mu.Lock()
		r.handled[job.ID]++
		r.cancelled[job.ID] = wasCancelled
		r.mu.Unlock()
		select {
		case r.done <- job.ID:
		default:
		}
	}
}

func waitID(t *testing.T, ch <-chan int64, d time.Duration) int64 {
	t.Helper()

	select {
	case id := <-ch:
		return id
	case <-time.After(d):
		t.Fatalf("timeout waiting for signal %v", d)
		return 0
	}
}

func TestPool_ProcessSingleJob(t *testing.T) {
	rec := newRecorder()
	pool := New(10, rec.handler(0), zerolog.Nop())
	pool.Start(1)
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	require.NoError(t, pool.Enqueue(Job{ID: 1, Expression: "1+1"}))
	assert.Equal(t, int64(1), waitID(t, rec.done, time.Second))
}

func TestPool_Overflow_ReturnsPoolFull(t *testing.T) {
	pool := New(1, newRecorder().handler(0), zerolog.Nop())
	pool.Start(0)
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	require.NoError(t, pool.Enqueue(Job{ID: 1}))
	assert.ErrorIs(t, pool.Enqueue(Job{ID: 2}), ErrPoolFull)
	assert.Equal(t, 1, pool.Pending())
}

func TestPool_Shutdown_DrainsQueuedWork(t *testing.T) {
	rec := newRecorder()
	pool := New(10, rec.handler(30*time.Millisecond), zerolog.Nop())
	pool.Start(1)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, pool.Enqueue(Job{ID: i}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := int64(1); i <= 3; i++ {
		assert.Equal(t, 1, rec.handled[i], "job %d", i)
		assert.False(t, rec.cancelled[i], "job %d", i)
	}
}

func TestPool_Shutdown_TimeoutCancelsRemainingWork(t *testing.T) {
	rec := newRecorder()
	pool := New(10, rec.handler(time.Hour), zerolog.Nop())
	pool.Start(1)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, pool.Enqueue(Job{ID: i}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i := int64(1); i <= 3; i++ {
		assert.Equal(t, 1, rec.handled[i], "job %d", i)
		assert.True(t, rec.cancelled[i], "job %d", i)
	}
}

func TestPool_Shutdown_WithoutWorkersHandsOffLeftovers(t *testing.T) {
	rec := newRecorder()
	pool := New(10, rec.handler(time.Hour), zerolog.Nop())
	pool.Start(0)

	require.NoError(t, pool.Enqueue(Job{ID: 7}))
	require.NoError(t, pool.Shutdown(context.Background()))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.handled[7])
	assert.True(t, rec.cancelled[7])
}

func TestPool_EnqueueAfterShutdown_ReturnsPoolClosed(t *testing.T) {
	pool := New(10, newRecorder().handler(0), zerolog.Nop())
	pool.Start(0)

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.ErrorIs(t, pool.Enqueue(Job{ID: 1}), ErrPoolClosed)
	assert.NoError(t, pool.Shutdown(context.Background()))
}

func TestPool_ConcurrentEnqueueAndShutdown(t *testing.T) {
	rec := newRecorder()
	pool := New(1000, rec.handler(0), zerolog.Nop())
	pool.Start(4)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []int64
	)
	for i := int64(1); i <= 200; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if err := pool.Enqueue(Job{ID: id}); err == nil {
				mu.Lock()
				accepted = append(accepted, id)
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, ErrPoolClosed)
			}
		}(i)
	}
	go func() { _ = pool.Shutdown(context.Background()) }()
	wg.Wait()
	require.NoError(t, pool.Shutdown(context.Background()))

	// Shutdown may have been the goroutine's call; wait for every accepted job
	deadline := time.After(2 * time.Second)
	for {
		rec.mu.Lock()
		n := len(rec.handled)
		rec.mu.Unlock()
		if n == len(accepted) {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("handled %d jobs, accepted %d", n, len(accepted))
		case <-time.After(5 * time.Millisecond):
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, id := range accepted {
		assert.Equal(t, 1, rec.handled[id], "job %d", id)
	}
}

func TestPool_MonitorStopsWithContext(t *testing.T) {
	pool := New(1, newRecorder().handler(0), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		pool.Monitor(ctx, time.Millisecond)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after cancel")
	}
}
