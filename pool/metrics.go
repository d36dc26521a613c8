package pool

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the pool updates at runtime.
type Metrics struct {
	JobsSubmitted prometheus.Counter
	JobsExecuted  prometheus.Counter
	JobsRejected  prometheus.Counter
	WorkerCrashes prometheus.Counter
	LiveWorkers   prometheus.Gauge
	QueueDepth    prometheus.Gauge
	JobDuration   prometheus.Histogram
}

// NewMetrics creates the pool's collector set and registers it with reg.
//
// Parameters:
//   - namespace: Prometheus namespace prefix for every metric name
//   - reg: Registerer to install the collectors on (e.g. a *prometheus.Registry)
//
// Panics if any collector is already registered, matching the usual
// MustRegister contract.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "jobs_submitted_total",
			Help:      "Total number of jobs accepted onto the queue",
		}),
		JobsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "jobs_executed_total",
			Help:      "Total number of jobs run to completion",
		}),
		JobsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "jobs_rejected_total",
			Help:      "Total number of submissions that failed",
		}),
		WorkerCrashes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "worker_crashes_total",
			Help:      "Total number of job panics observed by workers",
		}),
		LiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "live_workers",
			Help:      "Current number of workers that have not terminated",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "queue_depth",
			Help:      "Jobs queued but not yet picked up by a worker",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "job_duration_seconds",
			Help:      "Histogram of job execution time",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.JobsSubmitted,
		m.JobsExecuted,
		m.JobsRejected,
		m.WorkerCrashes,
		m.LiveWorkers,
		m.QueueDepth,
		m.JobDuration,
	)
	return m
}
