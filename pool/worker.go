package pool

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/utkarsh5026/drainpool/internal/cpu"
)

// worker owns one goroutine bound to the pool's shared queue. Its id is
// stable for the life of the pool; its done channel closes exactly once,
// when the goroutine exits, which is what Shutdown joins on.
type worker struct {
	id       int
	state    atomic.Int32
	executed atomic.Int64
	done     chan struct{}
}

func newWorker(id int) *worker {
	return &worker{
		id:   id,
		done: make(chan struct{}),
	}
}

// run is the worker loop: block on the shared queue, execute the job, and
// repeat until the queue reports closed-and-drained. The queue's lock is
// never held while a job runs.
//
// The deferred recover here is the crash boundary for the default (non
// isolated) mode: a job panic unwinds the loop, is logged with its stack,
// and the worker exits permanently. The cleanup defer below it runs either
// way, so both exit paths mark termination, detach from the queue and
// close done.
func (w *worker) run(p *Pool) {
	log := p.conf.logger.WithField("worker_id", w.id)
	log.Info("worker started")

	defer func() {
		w.state.Store(int32(StateTerminated))
		p.live.Add(-1)
		if m := p.conf.metrics; m != nil {
			m.LiveWorkers.Dec()
		}
		p.queue.Detach()
		close(w.done)
	}()

	defer func() {
		if r := recover(); r != nil {
			p.recordCrash(log, r)
		}
	}()

	if p.conf.pinWorkers {
		cleanup := cpu.SetupWorkerAffinity(w.id)
		defer cleanup()
	}

	for {
		w.state.Store(int32(StateWaiting))
		job, ok := p.queue.Pop()
		if !ok {
			log.Info("worker shutting down")
			return
		}

		w.state.Store(int32(StateExecuting))
		if p.conf.isolatePanics {
			w.runIsolated(p, log, job)
		} else {
			w.runJob(p, job)
		}
	}
}

// runJob executes the job without any recovery; a panic propagates to the
// worker boundary and terminates the worker.
func (w *worker) runJob(p *Pool, job Job) {
	start := time.Now()
	job()
	w.finish(p, start)
}

// runIsolated executes the job behind a recover so a panic costs only the
// job, not the worker.
func (w *worker) runIsolated(p *Pool, log logrus.FieldLogger, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.recordCrash(log, r)
		}
	}()
	w.runJob(p, job)
}

func (w *worker) finish(p *Pool, start time.Time) {
	w.executed.Add(1)
	p.executed.Add(1)
	if m := p.conf.metrics; m != nil {
		m.JobsExecuted.Inc()
		m.JobDuration.Observe(time.Since(start).Seconds())
		m.QueueDepth.Set(float64(p.queue.Len()))
	}
}

// recordCrash logs a job panic with its stack and bumps the crash counters.
func (p *Pool) recordCrash(log logrus.FieldLogger, r any) {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	log.WithField("panic", r).Errorf("job panicked\nstack trace:\n%s", buf[:n])

	p.crashed.Add(1)
	if m := p.conf.metrics; m != nil {
		m.WorkerCrashes.Inc()
	}
}
