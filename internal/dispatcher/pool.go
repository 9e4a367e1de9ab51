package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/0xsoniclabs/tracy"

	"github.com/valo/eth-sim/internal/metrics"
)

var ErrPoolClosed = errors.New("pool closed")

// Result carries the value or the error of an asynchronous job.
type Result[T any] struct {
	Value T
	Error error
}

func Ok[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

func Err[T any](err error) Result[T] {
	return Result[T]{Error: err}
}

func (r Result[T]) Get() (T, error) {
	return r.Value, r.Error
}

type job struct {
	ctx context.Context
	run func(ctx context.Context)
}

// Pool runs jobs on a fixed number of workers fed from a bounded queue.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex // held for reading while submitting
	closed bool

	queued   atomic.Int64
	inFlight atomic.Int64
}

// NewPool starts workers goroutines. A queue of size 0 hands each job
// directly to an idle worker.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{jobs: make(chan job, queueSize)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		metrics.SetQueueDepth(int(p.queued.Add(-1)))
		metrics.SetInFlight(int(p.inFlight.Add(1)))

		zone := tracy.ZoneBegin("dispatcher::job")
		j.run(j.ctx)
		zone.End()

		metrics.SetInFlight(int(p.inFlight.Add(-1)))
	}
}

// Submit queues fn and blocks while the queue is full; ctx bounds only that
// wait. fn receives the values of ctx but not its cancellation, so a queued
// job still runs when the submitter has gone away.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	metrics.SetQueueDepth(int(p.queued.Add(1)))
	select {
	case p.jobs <- job{ctx: context.WithoutCancel(ctx), run: fn}:
		return nil
	case <-ctx.Done():
		metrics.SetQueueDepth(int(p.queued.Add(-1)))
		return ctx.Err()
	}
}

// Go runs fn on p and returns a channel that yields its single result.
func Go[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (<-chan Result[T], error) {
	out := make(chan Result[T], 1)
	err := p.Submit(ctx, func(ctx context.Context) {
		v, err := fn(ctx)
		if err != nil {
			out <- Err[T](err)
			return
		}
		out <- Ok(v)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Pending is the number of queued jobs plus the number of running ones.
func (p *Pool) Pending() int {
	return int(p.queued.Load() + p.inFlight.Load())
}

// Close stops accepting jobs and waits until every queued and running job
// has finished.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
