package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/utkarsh5026/drainpool/internal/jobqueue"
)

// Job is a deferred, argument-less unit of work. A job is consumed exactly
// once: after submission it belongs to whichever worker dequeues it, and it
// must capture any state it needs (a connection, a request id) by value,
// since it runs on an arbitrary worker goroutine with no implicit context.
type Job func()

// Pool is a fixed-size worker pool. It owns the producer side of the shared
// queue and the full set of workers; the worker count never changes after
// construction.
type Pool struct {
	conf    *config
	queue   *jobqueue.Queue[Job]
	workers []*worker

	closed       atomic.Bool
	shutdownOnce sync.Once
	drained      chan struct{}

	submitted atomic.Int64
	executed  atomic.Int64
	rejected  atomic.Int64
	crashed   atomic.Int64
	live      atomic.Int64
}

// New creates a pool of exactly size workers, all contending on one shared
// unbounded queue. The workers start immediately and run until Shutdown or,
// in the default crash semantics, until a job panics on them.
//
// Parameters:
//   - size: Worker count; must be positive.
//   - opts: Variadic set of Option for logging, metrics, panic isolation
//     and CPU affinity.
//
// Returns:
//   - *Pool: The handle owning the producer endpoint and the worker set.
//   - error: ErrInvalidSize if size <= 0; no workers are started in that case.
//
// Example:
//
//	p, err := pool.New(16, pool.WithLogger(log), pool.WithMetrics(m))
//	if err != nil {
//	    return err
//	}
//	defer p.Shutdown()
func New(size int, opts ...Option) (*Pool, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	cfg := createConfig(opts...)
	p := &Pool{
		conf:    cfg,
		queue:   jobqueue.New[Job](size),
		workers: make([]*worker, 0, size),
		drained: make(chan struct{}),
	}

	cfg.logger.WithField("workers", size).Info("creating worker pool")
	if cfg.metrics != nil {
		cfg.metrics.LiveWorkers.Set(float64(size))
	}

	p.live.Store(int64(size))
	for id := 0; id < size; id++ {
		w := newWorker(id)
		p.workers = append(p.workers, w)
		go w.run(p)
	}

	return p, nil
}

// Submit enqueues a job and returns without waiting for it to run. It never
// blocks on capacity and is safe to call from any number of producer
// goroutines.
//
// Returns:
//   - nil: The job was enqueued and will be executed exactly once, provided
//     the worker that picks it up does not crash while holding it.
//   - ErrNilJob: job is nil.
//   - ErrPoolClosed: Shutdown has begun; the job was not enqueued.
//   - ErrNoWorkers: every worker has terminated by crashing; the job was
//     not enqueued and never will be executed.
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	if p.closed.Load() {
		return p.reject(ErrPoolClosed)
	}

	if err := p.queue.Push(job); err != nil {
		if errors.Is(err, jobqueue.ErrNoConsumers) {
			return p.reject(ErrNoWorkers)
		}
		return p.reject(ErrPoolClosed)
	}

	p.submitted.Add(1)
	if m := p.conf.metrics; m != nil {
		m.JobsSubmitted.Inc()
		m.QueueDepth.Set(float64(p.queue.Len()))
	}
	return nil
}

// reject records a failed submission and surfaces the error to the caller.
func (p *Pool) reject(err error) error {
	p.rejected.Add(1)
	p.conf.logger.WithError(err).Error("failed to submit job")
	if m := p.conf.metrics; m != nil {
		m.JobsRejected.Inc()
	}
	return err
}

// Shutdown closes the producer side and waits for the pool to drain: every
// job enqueued before Shutdown began is executed, then every worker is joined
// in construction order. It returns only after the last worker has exited.
//
// Shutdown is idempotent. Concurrent and repeated calls are safe: exactly one
// join pass runs, every caller blocks until the same drain completes, and no
// worker is ever joined twice. A worker that already terminated by crashing
// joins immediately and does not stall the rest.
func (p *Pool) Shutdown() error {
	p.beginShutdown()
	<-p.drained
	return nil
}

// ShutdownTimeout is Shutdown with a bounded wait. The transition to the
// shut-down state is still irreversible and the drain keeps running in the
// background; only this caller's wait is cut short.
//
// Parameters:
//   - d: Maximum time to wait for the drain; 0 means wait forever.
//
// Returns:
//   - error: ErrShutdownTimeout if the drain outlived d, nil otherwise.
func (p *Pool) ShutdownTimeout(d time.Duration) error {
	p.beginShutdown()
	return waitUntil(p.drained, d)
}

// beginShutdown performs the one-time transition: refuse new submissions,
// close the queue's producer side, and start the single join pass.
func (p *Pool) beginShutdown() {
	p.shutdownOnce.Do(func() {
		p.closed.Store(true)
		p.conf.logger.Info("shutting down worker pool")
		p.queue.Close()

		go func() {
			for _, w := range p.workers {
				<-w.done
				p.conf.logger.WithField("worker_id", w.id).Info("worker shut down")
			}
			p.conf.logger.WithFields(map[string]any{
				"executed": p.executed.Load(),
				"crashed":  p.crashed.Load(),
			}).Info("worker pool shut down")
			close(p.drained)
		}()
	})
}

// Size returns the worker count the pool was constructed with.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stats returns a point-in-time snapshot of the pool's counters and the
// state of every worker.
func (p *Pool) Stats() Stats {
	s := Stats{
		Size:        len(p.workers),
		LiveWorkers: int(p.live.Load()),
		Submitted:   p.submitted.Load(),
		Executed:    p.executed.Load(),
		Rejected:    p.rejected.Load(),
		Crashed:     p.crashed.Load(),
		Queued:      p.queue.Len(),
		Workers:     make([]WorkerStatus, 0, len(p.workers)),
	}
	for _, w := range p.workers {
		s.Workers = append(s.Workers, WorkerStatus{
			ID:       w.id,
			State:    WorkerState(w.state.Load()),
			Executed: w.executed.Load(),
		})
	}
	return s
}
