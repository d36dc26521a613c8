// Package server implements the thread-pooled line-protocol file server.
// Every accepted connection is handed to the worker pool as a single job;
// the server itself only accepts, routes and writes.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/drainpool/internal/config"
	"github.com/utkarsh5026/drainpool/pool"
)

// Server accepts TCP connections and submits each one to the pool. The
// per-connection job reads a single request line, serves one of two pages,
// and closes the connection.
type Server struct {
	addr    string
	pages   string
	sleep   time.Duration
	limiter *rate.Limiter
	pool    *pool.Pool
	log     logrus.FieldLogger
	metrics *Metrics

	mu    sync.Mutex
	ln    net.Listener
	ready chan struct{}
}

// New creates a server bound to the given pool. Metrics may be nil, in which
// case nothing is recorded. The listener is not opened until Run.
func New(cfg config.ServerConfig, p *pool.Pool, log logrus.FieldLogger, m *Metrics) *Server {
	s := &Server{
		addr:    cfg.Addr,
		pages:   cfg.Pages,
		sleep:   cfg.Sleep.Std(),
		pool:    p,
		log:     log,
		metrics: m,
		ready:   make(chan struct{}),
	}
	if cfg.AcceptRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRate), 1)
	}
	return s
}

// Run listens on the configured address and accepts connections until ctx
// is cancelled, which closes the listener and unblocks the accept loop.
// Run does not wait for in-flight jobs; draining them is the pool's
// Shutdown contract and belongs to the caller.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	close(s.ready)

	s.log.WithField("addr", ln.Addr().String()).Info("server started")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		return s.acceptLoop(ctx, ln)
	})

	err = g.Wait()
	if ctx.Err() != nil && (err == nil || errors.Is(err, net.ErrClosed)) {
		s.log.Info("server stopped")
		return nil
	}
	return err
}

// Addr blocks until Run has opened the listener and returns its address.
// Intended for callers that listen on port 0.
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ln.Addr()
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.WithError(err).Error("failed to establish connection")
			if s.metrics != nil {
				s.metrics.ConnectionErrors.Inc()
			}
			continue
		}

		requestID := uuid.New()
		if s.metrics != nil {
			s.metrics.Connections.Inc()
		}
		s.log.WithField("request_id", requestID).Info("new connection accepted")

		// The job captures conn and requestID by value; it runs on an
		// arbitrary worker with no other context.
		if err := s.pool.Submit(func() {
			s.handleConnection(conn, requestID)
		}); err != nil {
			s.log.WithError(err).WithField("request_id", requestID).
				Error("failed to submit connection to pool")
			if s.metrics != nil {
				s.metrics.SubmitFailures.Inc()
			}
			_ = conn.Close()
		}
	}
}

// handleConnection is the per-connection job: read the request line, pick a
// page, write the response, record what happened.
func (s *Server) handleConnection(conn net.Conn, requestID uuid.UUID) {
	defer func() { _ = conn.Close() }()

	start := time.Now()
	log := s.log.WithField("request_id", requestID)

	requestLine, err := readRequestLine(conn)
	if err != nil {
		log.WithError(err).Error("failed to read request")
		s.countRequest("error", "500")
		if s.metrics != nil {
			s.metrics.RequestErrors.Inc()
		}
		return
	}
	if requestLine == "" {
		log.Warn("empty request received")
		s.countRequest("empty", "400")
		if s.metrics != nil {
			s.metrics.RequestErrors.Inc()
		}
		return
	}

	var (
		statusLine string
		page       string
		path       string
	)
	switch requestLine {
	case "GET / HTTP/1.1":
		statusLine, page, path = "HTTP/1.1 200 OK", "hello.html", "root"
	case "GET /sleep HTTP/1.1":
		log.Info("processing sleep request")
		time.Sleep(s.sleep)
		statusLine, page, path = "HTTP/1.1 200 OK", "hello.html", "sleep"
	default:
		log.WithField("request", requestLine).Warn("not found")
		statusLine, page, path = "HTTP/1.1 404 NOT FOUND", "404.html", "notfound"
		if s.metrics != nil {
			s.metrics.RequestErrors.Inc()
		}
	}
	s.countRequest(path, statusCode(statusLine))

	contents, err := os.ReadFile(filepath.Join(s.pages, page))
	if err != nil {
		log.WithError(err).WithField("page", page).Error("failed to read page")
		if s.metrics != nil {
			s.metrics.FileReadErrors.Inc()
		}
		return
	}

	response := fmt.Sprintf("%s\r\nContent-Length: %d\r\n\r\n%s", statusLine, len(contents), contents)
	if _, err := conn.Write([]byte(response)); err != nil {
		log.WithError(err).Error("failed to write response")
		if s.metrics != nil {
			s.metrics.ResponseErrors.Inc()
		}
		return
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RequestDuration.WithLabelValues(path).Observe(duration.Seconds())
	}
	log.WithFields(logrus.Fields{
		"path":     requestLine,
		"status":   statusLine,
		"duration": duration,
	}).Info("request completed")
}

// statusCode extracts the numeric code from a status line such as
// "HTTP/1.1 200 OK".
func statusCode(statusLine string) string {
	fields := strings.Fields(statusLine)
	if len(fields) < 2 {
		return "unknown"
	}
	return fields[1]
}

func (s *Server) countRequest(path, status string) {
	if s.metrics != nil {
		s.metrics.Requests.WithLabelValues(path, status).Inc()
	}
}

// readRequestLine reads the first CRLF-terminated line of the request.
// A connection closed before any newline yields whatever arrived, so an
// immediately closed connection reads as an empty request, not an error.
func readRequestLine(conn net.Conn) (string, error) {
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
