package server

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the server updates per connection
// and per request.
type Metrics struct {
	Connections      prometheus.Counter
	ConnectionErrors prometheus.Counter
	SubmitFailures   prometheus.Counter
	Requests         *prometheus.CounterVec
	RequestErrors    prometheus.Counter
	FileReadErrors   prometheus.Counter
	ResponseErrors   prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
}

// NewMetrics creates the server's collector set and registers it with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		}),
		ConnectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "connection_errors_total",
			Help:      "Total number of failed accepts",
		}),
		SubmitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "submit_failures_total",
			Help:      "Connections dropped because the pool refused the job",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total requests by path and status",
		}, []string{"path", "status"}),
		RequestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "request_errors_total",
			Help:      "Requests that could not be read or were not found",
		}),
		FileReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "file_read_errors_total",
			Help:      "Failures reading a page from disk",
		}),
		ResponseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "response_errors_total",
			Help:      "Failures writing a response to the client",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "Histogram of request handling time by path",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}

	reg.MustRegister(
		m.Connections,
		m.ConnectionErrors,
		m.SubmitFailures,
		m.Requests,
		m.RequestErrors,
		m.FileReadErrors,
		m.ResponseErrors,
		m.RequestDuration,
	)
	return m
}
