// Command drainpool-bench is a load generator for the file server. It uses
// the pool itself as the client-side worker set: every request is a job, and
// Shutdown's drain guarantee doubles as "wait for all requests to finish".
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/utkarsh5026/drainpool/pool"
)

var (
	bold = color.New(color.Bold)
	red  = color.New(color.FgRed)
)

type result struct {
	latency time.Duration
	err     error
}

func main() {
	enableWindowsANSI()

	addr := flag.String("addr", "127.0.0.1:7878", "server address")
	requests := flag.Int("requests", 1000, "total number of requests")
	concurrency := flag.Int("concurrency", 16, "concurrent client workers")
	path := flag.String("path", "/", "request path (/ or /sleep)")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	if *requests <= 0 || *concurrency <= 0 {
		_, _ = red.Println("requests and concurrency must be positive")
		os.Exit(1)
	}

	// Keep pool lifecycle logs out of the progress bar output.
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	p, err := pool.New(*concurrency, pool.WithLogger(quiet))
	if err != nil {
		_, _ = red.Printf("failed to create client pool: %v\n", err)
		os.Exit(1)
	}

	printConfiguration(*addr, *path, *requests, *concurrency)
	bar := makeProgressBar(*requests)

	var mu sync.Mutex
	results := make([]result, 0, *requests)

	requestLine := fmt.Sprintf("GET %s HTTP/1.1\r\n\r\n", *path)
	start := time.Now()

	for n := 0; n < *requests; n++ {
		if err := p.Submit(func() {
			r := doRequest(*addr, requestLine, *timeout)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			_ = bar.Add(1)
		}); err != nil {
			_, _ = red.Printf("submit failed: %v\n", err)
			break
		}
	}

	// Drain every outstanding request.
	if err := p.Shutdown(); err != nil {
		_, _ = red.Printf("shutdown failed: %v\n", err)
	}
	total := time.Since(start)
	_ = bar.Finish()

	printSummary(results, total)
}

// doRequest sends one raw request line and reads the full response.
func doRequest(addr, requestLine string, timeout time.Duration) result {
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return result{err: err}
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write([]byte(requestLine)); err != nil {
		return result{err: err}
	}
	if _, err := io.Copy(io.Discard, conn); err != nil {
		return result{err: err}
	}

	return result{latency: time.Since(start)}
}

func printConfiguration(addr, path string, requests, concurrency int) {
	_, _ = bold.Println("⚙️  Configuration:")
	fmt.Printf("  Target:        %s%s\n", addr, path)
	fmt.Printf("  Requests:      %d\n", requests)
	fmt.Printf("  Concurrency:   %d client workers\n", concurrency)
	fmt.Println()
}

func printSummary(results []result, total time.Duration) {
	latencies := make([]time.Duration, 0, len(results))
	errCount := 0
	for _, r := range results {
		if r.err != nil {
			errCount++
			continue
		}
		latencies = append(latencies, r.latency)
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Println()
	_, _ = bold.Println("📊 Results")
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Requests", "Errors", "Min", "p50", "p95", "Max", "Throughput")
	_ = table.Append(
		fmt.Sprintf("%d", len(results)),
		fmt.Sprintf("%d", errCount),
		percentileString(latencies, 0),
		percentileString(latencies, 50),
		percentileString(latencies, 95),
		percentileString(latencies, 100),
		fmt.Sprintf("%.1f req/s", float64(len(results))/total.Seconds()),
	)
	_ = table.Render()

	if errCount > 0 {
		_, _ = red.Printf("\n%d requests failed\n", errCount)
	}
}

// percentileString returns the p-th percentile of sorted latencies.
func percentileString(sorted []time.Duration, p int) string {
	if len(sorted) == 0 {
		return "-"
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx].Round(time.Microsecond).String()
}

func makeProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Sending requests"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
