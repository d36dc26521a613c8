package server

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/utkarsh5026/drainpool/internal/config"
	"github.com/utkarsh5026/drainpool/pool"
)

const (
	helloPage    = "<html><body>Hello!</body></html>"
	notFoundPage = "<html><body>404</body></html>"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// startServer runs a server on an ephemeral port backed by a fresh pool and
// returns its address. Everything is torn down when the test ends.
func startServer(t *testing.T, poolSize int, sleep time.Duration) string {
	t.Helper()

	pages := t.TempDir()
	if err := os.WriteFile(filepath.Join(pages, "hello.html"), []byte(helloPage), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pages, "404.html"), []byte(notFoundPage), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := pool.New(poolSize, pool.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	cfg := config.ServerConfig{
		Addr:  "127.0.0.1:0",
		Pages: pages,
		Sleep: config.Duration(sleep),
	}
	srv := New(cfg, p, quietLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("server run returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("server did not stop after cancellation")
		}
		if err := p.Shutdown(); err != nil {
			t.Errorf("pool shutdown failed: %v", err)
		}
	})

	return srv.Addr().String()
}

// request sends one raw request line and returns the full response.
func request(t *testing.T, addr, line string) string {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Write([]byte(line + "\r\n\r\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(resp)
}

func TestServer_RootRoute(t *testing.T) {
	addr := startServer(t, 2, 10*time.Millisecond)

	resp := request(t, addr, "GET / HTTP/1.1")
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("unexpected status: %q", resp)
	}
	if !strings.Contains(resp, "Content-Length: ") {
		t.Errorf("missing content length: %q", resp)
	}
	if !strings.HasSuffix(resp, helloPage) {
		t.Errorf("unexpected body: %q", resp)
	}
}

func TestServer_UnknownRouteServes404(t *testing.T) {
	addr := startServer(t, 2, 10*time.Millisecond)

	for _, line := range []string{
		"GET /missing HTTP/1.1",
		"POST / HTTP/1.1",
		"garbage",
	} {
		resp := request(t, addr, line)
		if !strings.HasPrefix(resp, "HTTP/1.1 404 NOT FOUND\r\n") {
			t.Errorf("request %q: unexpected status: %q", line, resp)
		}
		if !strings.HasSuffix(resp, notFoundPage) {
			t.Errorf("request %q: unexpected body: %q", line, resp)
		}
	}
}

func TestServer_SleepRouteStalls(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-dependent")
	}
	const sleep = 100 * time.Millisecond
	addr := startServer(t, 2, sleep)

	start := time.Now()
	resp := request(t, addr, "GET /sleep HTTP/1.1")
	elapsed := time.Since(start)

	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("unexpected status: %q", resp)
	}
	if elapsed < sleep {
		t.Errorf("sleep route responded after %v, expected at least %v", elapsed, sleep)
	}
}

func TestServer_EmptyRequestGetsNoResponse(t *testing.T) {
	addr := startServer(t, 2, 10*time.Millisecond)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	_ = conn.Close()

	// The server must survive the empty request and keep serving.
	resp := request(t, addr, "GET / HTTP/1.1")
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("server unhealthy after empty request: %q", resp)
	}
}

func TestServer_ConcurrentConnections(t *testing.T) {
	addr := startServer(t, 4, 10*time.Millisecond)

	const clients = 16
	results := make(chan string, clients)
	for _n := 0; _n < clients; _n++ {
		go func() {
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				results <- "dial error: " + err.Error()
				return
			}
			defer func() { _ = conn.Close() }()
			if _, err := conn.Write([]byte("GET / HTTP/1.1\r\n\r\n")); err != nil {
				results <- "write error: " + err.Error()
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			resp, err := io.ReadAll(conn)
			if err != nil {
				results <- "read error: " + err.Error()
				return
			}
			results <- string(resp)
		}()
	}

	for _n := 0; _n < clients; _n++ {
		select {
		case resp := <-results:
			if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
				t.Errorf("unexpected response: %q", resp)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for responses")
		}
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"HTTP/1.1 200 OK", "200"},
		{"HTTP/1.1 404 NOT FOUND", "404"},
		{"bogus", "unknown"},
	}
	for _, tt := range tests {
		if got := statusCode(tt.line); got != tt.want {
			t.Errorf("statusCode(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
