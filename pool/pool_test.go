package pool_test

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/utkarsh5026/drainpool/pool"
)

// quietLogger keeps pool lifecycle chatter out of test output.
func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestPool(t *testing.T, size int, opts ...pool.Option) *pool.Pool {
	t.Helper()
	opts = append([]pool.Option{pool.WithLogger(quietLogger())}, opts...)
	p, err := pool.New(size, opts...)
	if err != nil {
		t.Fatalf("failed to create pool of size %d: %v", size, err)
	}
	return p
}

func TestNew_RejectsNonPositiveSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"zero", 0},
		{"negative", -1},
		{"very negative", -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := pool.New(tt.size, pool.WithLogger(quietLogger()))
			if !errors.Is(err, pool.ErrInvalidSize) {
				t.Errorf("expected ErrInvalidSize, got %v", err)
			}
			if p != nil {
				t.Error("expected nil pool on construction error")
			}
		})
	}
}

func TestNew_SpawnsExactlyNWorkers(t *testing.T) {
	for _, size := range []int{1, 2, 4, 16} {
		p := newTestPool(t, size)

		stats := p.Stats()
		if stats.Size != size {
			t.Errorf("size %d: Stats.Size = %d", size, stats.Size)
		}
		if stats.LiveWorkers != size {
			t.Errorf("size %d: expected %d live workers, got %d", size, size, stats.LiveWorkers)
		}
		if len(stats.Workers) != size {
			t.Errorf("size %d: expected %d worker records, got %d", size, size, len(stats.Workers))
		}
		for i, w := range stats.Workers {
			if w.ID != i {
				t.Errorf("worker %d has id %d", i, w.ID)
			}
			if w.State == pool.StateTerminated {
				t.Errorf("worker %d terminated before any shutdown", i)
			}
		}

		if err := p.Shutdown(); err != nil {
			t.Fatalf("shutdown failed: %v", err)
		}
	}
}

// Scenario: 4 workers, 100 jobs each incrementing a shared atomic counter.
// After shutdown the counter must be exactly 100.
func TestPool_EveryJobExecutesExactlyOnce(t *testing.T) {
	p := newTestPool(t, 4)

	var counter atomic.Int64
	for _n := 0; _n < 100; _n++ {
		if err := p.Submit(func() { counter.Add(1) }); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	if err := p.Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if got := counter.Load(); got != 100 {
		t.Errorf("expected counter 100 after shutdown, got %d", got)
	}

	stats := p.Stats()
	if stats.Submitted != 100 {
		t.Errorf("expected 100 submitted, got %d", stats.Submitted)
	}
	if stats.Executed != 100 {
		t.Errorf("expected 100 executed, got %d", stats.Executed)
	}
}

func TestPool_ConcurrentProducers_NoJobLostOrDuplicated(t *testing.T) {
	const (
		producers   = 8
		perProducer = 250
		total       = producers * perProducer
	)

	p := newTestPool(t, 4)

	executions := make([]atomic.Int32, total)
	var wg sync.WaitGroup
	for prod := 0; prod < producers; prod++ {
		wg.Add(1)
		go func(prod int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				idx := prod*perProducer + i
				if err := p.Submit(func() { executions[idx].Add(1) }); err != nil {
					t.Errorf("producer %d: submit failed: %v", prod, err)
					return
				}
			}
		}(prod)
	}

	wg.Wait()
	if err := p.Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	for i := range executions {
		if n := executions[i].Load(); n != 1 {
			t.Errorf("job %d executed %d times", i, n)
		}
	}
}

func TestPool_MultiWorkerCompletionOrderUnordered(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-dependent")
	}

	p := newTestPool(t, 2)

	var mu sync.Mutex
	var order []string

	// The first job holds one worker long enough that the second job,
	// picked up by the other worker, finishes first.
	_ = p.Submit(func() {
		time.Sleep(80 * time.Millisecond)
		mu.Lock()
		order = append(order, "slow")
		mu.Unlock()
	})
	_ = p.Submit(func() {
		mu.Lock()
		order = append(order, "fast")
		mu.Unlock()
	})

	if err := p.Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if len(order) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(order))
	}
	if order[0] != "fast" {
		t.Errorf("expected the fast job to finish first, order %v", order)
	}
}

func BenchmarkPool_Submit(b *testing.B) {
	p, err := pool.New(4, pool.WithLogger(quietLogger()))
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = p.Shutdown() }()

	for i := 0; i < b.N; i++ {
		_ = p.Submit(func() {})
	}
}

func BenchmarkPool_SubmitParallel(b *testing.B) {
	p, err := pool.New(8, pool.WithLogger(quietLogger()))
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = p.Shutdown() }()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = p.Submit(func() {})
		}
	})
}
