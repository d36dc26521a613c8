package pool

import (
	"github.com/sirupsen/logrus"
)

// Option is a functional option for configuring the pool.
type Option func(*config)

type config struct {
	logger        logrus.FieldLogger
	metrics       *Metrics
	isolatePanics bool
	pinWorkers    bool
}

func createConfig(opts ...Option) *config {
	cfg := &config{
		logger: logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithLogger sets the logger used for pool lifecycle events.
// If not specified, defaults to logrus.StandardLogger().
func WithLogger(logger logrus.FieldLogger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMetrics attaches a Prometheus collector set to the pool. The pool
// updates it on every submission, execution, rejection and worker crash.
// If not specified, no metrics are recorded.
func WithMetrics(m *Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

// WithPanicIsolation recovers from job panics inside the worker loop instead
// of terminating the worker. The fault is logged and counted, the job is
// abandoned, and the worker returns to waiting, so pool capacity stays
// constant.
//
// Without this option a panicking job permanently terminates its worker;
// that worker is never replaced and the pool's effective capacity shrinks
// by one for every such crash.
func WithPanicIsolation() Option {
	return func(cfg *config) {
		cfg.isolatePanics = true
	}
}

// WithCPUAffinity pins each worker goroutine to an OS thread and, where the
// platform supports it, to a CPU core chosen by worker id. This can reduce
// cache churn for CPU-bound jobs.
func WithCPUAffinity() Option {
	return func(cfg *config) {
		cfg.pinWorkers = true
	}
}
