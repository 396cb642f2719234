package pool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunPreservesOrder(t *testing.T) {
	items := []int{10, 20, 30, 40, 50}

	// Make earlier items finish later so completion order differs from
	// input order.
	results := Run(items, 3, func(item, index int) int {
		time.Sleep(time.Duration(len(items)-index) * 5 * time.Millisecond)
		return item * 2
	})

	want := []int{20, 40, 60, 80, 100}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %d, want %d", i, results[i], want[i])
		}
	}
}

func TestRunExactlyOnce(t *testing.T) {
	const n = 100
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}

	var counts [n]atomic.Int32
	Run(items, 8, func(item, index int) struct{} {
		counts[index].Add(1)
		return struct{}{}
	})

	for i := range counts {
		if got := counts[i].Load(); got != 1 {
			t.Errorf("item %d processed %d times, want exactly once", i, got)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	var mu sync.Mutex

	items := make([]int, 20)
	Run(items, 2, func(item, index int) struct{} {
		cur := active.Add(1)
		mu.Lock()
		if cur > peak.Load() {
			peak.Store(cur)
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return struct{}{}
	})

	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestRunClampsConcurrency(t *testing.T) {
	// More workers than items must not panic or stall.
	results := Run([]int{1, 2}, 10, func(item, index int) int {
		return item
	})
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	// Zero and negative concurrency degrade to serial execution.
	results = Run([]int{1, 2, 3}, 0, func(item, index int) int {
		return item
	})
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
}

func TestRunEmpty(t *testing.T) {
	results := Run(nil, 4, func(item, index int) int { return 0 })
	if results != nil {
		t.Errorf("Run(nil) = %v, want nil", results)
	}
}

func TestRunFailuresDoNotAbortSiblings(t *testing.T) {
	type result struct {
		ok bool
	}
	items := []int{0, 1, 2, 3}

	results := Run(items, 2, func(item, index int) result {
		// Odd items "fail"; the failure is captured, not propagated.
		return result{ok: item%2 == 0}
	})

	var succeeded int
	for _, r := range results {
		if r.ok {
			succeeded++
		}
	}
	if succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", succeeded)
	}
}

func TestAutoDetectMemoryBound(t *testing.T) {
	orig := freeMemoryBytes
	defer func() { freeMemoryBytes = orig }()

	// 3 GiB free with 2 GiB per worker allows just 1 worker.
	freeMemoryBytes = func() int64 { return 3 << 30 }
	if got := AutoDetect(2<<30, 5); got != 1 {
		t.Errorf("AutoDetect = %d, want 1", got)
	}

	// Plenty of memory: core bound with cap applies.
	freeMemoryBytes = func() int64 { return 64 << 30 }
	want := runtime.NumCPU()
	if want > 5 {
		want = 5
	}
	if got := AutoDetect(2<<30, 5); got != want {
		t.Errorf("AutoDetect = %d, want %d", got, want)
	}
}

func TestAutoDetectUnknownMemory(t *testing.T) {
	orig := freeMemoryBytes
	defer func() { freeMemoryBytes = orig }()
	freeMemoryBytes = func() int64 { return 0 }

	got := AutoDetect(2<<30, 5)
	if got < 1 {
		t.Errorf("AutoDetect = %d, want >= 1", got)
	}
}

func TestAutoDetectNeverBelowOne(t *testing.T) {
	orig := freeMemoryBytes
	defer func() { freeMemoryBytes = orig }()
	freeMemoryBytes = func() int64 { return 100 } // nearly nothing free

	if got := AutoDetect(2<<30, 5); got != 1 {
		t.Errorf("AutoDetect = %d, want 1", got)
	}
}
