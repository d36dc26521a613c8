// Package pool provides a fixed-size worker pool for deferred,
// fire-and-forget jobs with a drain-guaranteed shutdown.
//
// The primary type is Pool, a set of long-lived workers contending on one
// shared unbounded queue. Producers enqueue argument-less Jobs with Submit,
// which never blocks; each job is executed exactly once by whichever worker
// dequeues it. Shutdown closes the producer side, lets the workers drain
// everything already queued, and joins every worker before returning.
//
// # Basic Usage
//
//	p, err := pool.New(4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = p.Submit(func() {
//	    // runs on some worker goroutine
//	})
//	_ = p.Shutdown() // returns only after every queued job has run
//
// # Lifecycle
//
// The worker count is fixed at construction and never changes. Shutdown is
// idempotent: however many goroutines call it, exactly one join pass runs
// and every caller blocks until the drain completes. ShutdownTimeout bounds
// only the wait, never the drain itself.
//
// # Failure Semantics
//
// By default a panicking job terminates its worker: the panic is caught at
// the worker boundary, logged with its stack, and the worker exits without
// replacement, permanently shrinking capacity. Once every worker has
// terminated this way, Submit fails with ErrNoWorkers. WithPanicIsolation
// changes this to a per-job recovery, keeping the worker alive.
//
// # Observability
//
// Pool state is exposed through Stats, which snapshots submission and
// execution counters plus per-worker states. WithMetrics attaches a
// Prometheus collector set updated on every submit, execution and crash.
package pool
