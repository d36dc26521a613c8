package pool_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/utkarsh5026/drainpool/pool"
)

func TestSubmit_NilJob(t *testing.T) {
	p := newTestPool(t, 1)
	defer func() { _ = p.Shutdown() }()

	if err := p.Submit(nil); !errors.Is(err, pool.ErrNilJob) {
		t.Errorf("expected ErrNilJob, got %v", err)
	}
}

func TestSubmit_NeverBlocks(t *testing.T) {
	p := newTestPool(t, 1)

	// Park the single worker so everything after the first job only queues.
	block := make(chan struct{})
	_ = p.Submit(func() { <-block })

	start := time.Now()
	for _n := 0; _n < 1000; _n++ {
		if err := p.Submit(func() {}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	elapsed := time.Since(start)

	// Enqueueing a thousand jobs against a busy pool is pure queue work;
	// anything near a scheduling quantum means a producer blocked.
	if elapsed > 100*time.Millisecond {
		t.Errorf("1000 submissions took %v; producers must not block", elapsed)
	}

	close(block)
	if err := p.Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

// Scenario: single worker, job A sleeps then appends "A", job B appends "B".
// Arrival order must be execution order.
func TestSubmit_SingleWorkerSerializes(t *testing.T) {
	p := newTestPool(t, 1)

	var mu sync.Mutex
	var log strings.Builder

	var aDone time.Time
	_ = p.Submit(func() {
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		log.WriteString("A")
		aDone = time.Now()
		mu.Unlock()
	})

	var bStart time.Time
	_ = p.Submit(func() {
		mu.Lock()
		bStart = time.Now()
		log.WriteString("B")
		mu.Unlock()
	})

	if err := p.Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if got := log.String(); got != "AB" {
		t.Errorf("expected execution order AB, got %q", got)
	}
	if bStart.Before(aDone) {
		t.Errorf("job B started %v before job A completed", aDone.Sub(bStart))
	}
}

func TestSubmit_AfterShutdown(t *testing.T) {
	p := newTestPool(t, 2)
	if err := p.Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	err := p.Submit(func() { t.Error("job ran after shutdown") })
	if !errors.Is(err, pool.ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}

	stats := p.Stats()
	if stats.Rejected != 1 {
		t.Errorf("expected 1 rejected submission, got %d", stats.Rejected)
	}
}

func TestSubmit_CountsRejections(t *testing.T) {
	p := newTestPool(t, 1)
	_ = p.Shutdown()

	for _n := 0; _n < 5; _n++ {
		_ = p.Submit(func() {})
	}

	if got := p.Stats().Rejected; got != 5 {
		t.Errorf("expected 5 rejections, got %d", got)
	}
}
