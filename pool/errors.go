package pool

import "errors"

var (
	// ErrInvalidSize is returned by New when the requested worker count is
	// zero or negative. No pool is constructed.
	ErrInvalidSize = errors.New("pool: worker count must be positive")

	// ErrNilJob is returned by Submit for a nil job.
	ErrNilJob = errors.New("pool: nil job")

	// ErrPoolClosed is returned by Submit after Shutdown has begun.
	ErrPoolClosed = errors.New("pool: pool is shut down")

	// ErrNoWorkers is returned by Submit once every worker has terminated by
	// crashing, so no job could ever be picked up.
	ErrNoWorkers = errors.New("pool: all workers have terminated")

	// ErrShutdownTimeout is returned by ShutdownTimeout when the drain does
	// not complete within the given duration. The drain itself continues.
	ErrShutdownTimeout = errors.New("pool: shutdown timeout reached")
)
