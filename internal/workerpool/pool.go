package workerpool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrPoolFull   = errors.New("evaluation queue is full")
	ErrPoolClosed = errors.New("evaluation queue is closed")
)

// Job is one pending calculation waiting for a worker.
type Job struct {
	ID         int64
	Expression string
}

// Handler processes a job. ctx is cancelled once a shutdown runs out of time,
// and for jobs still queued when no worker is left to take them.
type Handler func(ctx context.Context, job Job)

type Pool struct {
	queue   chan Job
	handler Handler
	log     zerolog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup

	jobCtx context.Context
	cancel context.CancelFunc
}

func New(size int, handler Handler, log zerolog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		queue:   make(chan Job, size),
		handler: handler,
		log:     log,
		jobCtx:  ctx,
		cancel:  cancel,
	}
}

// Start launches workers goroutines. Calling it more than once is a no-op.
func (p *Pool) Start(workers int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Info().Int("workers", workers).Int("queue_size", cap(p.queue)).Msg("worker pool started")
}

func (p *Pool) worker(n int) {
	defer p.wg.Done()
	for job := range p.queue {
		p.log.Debug().Int("worker", n).Int64("id", job.ID).Msg("job taken")
		p.handler(p.jobCtx, job)
	}
}

// Enqueue never blocks: it fails with ErrPoolFull when the queue is at capacity.
func (p *Pool) Enqueue(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- job:
		return nil
	default:
		return ErrPoolFull
	}
}

// Pending is the number of jobs waiting for a worker.
func (p *Pool) Pending() int {
	return len(p.queue)
}

// Monitor logs the queue length every interval until ctx is done, like the
// orchestrator's periodic pending-task report.
func (p *Pool) Monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := p.Pending(); n > 0 {
				p.log.Info().Int("pending", n).Msg("jobs waiting for a worker")
			}
		}
	}
}

// Shutdown stops accepting jobs and lets workers drain the queue. If ctx
// expires first, running and queued jobs see a cancelled context. Every job
// accepted by Enqueue is handed to the handler exactly once before Shutdown returns.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		p.cancel()
		<-done
	}
	p.cancel()

	// only reached with leftovers when no workers were started
	for job := range p.queue {
		p.handler(p.jobCtx, job)
	}

	p.log.Info().Err(err).Msg("worker pool stopped")
	return err
}
