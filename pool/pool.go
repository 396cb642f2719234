package pool

import (
	"sync"
	"sync/atomic"
)

// Run executes fn over every item with at most concurrency logical workers.
// The workers share one atomic cursor into items: each claims the next
// unclaimed index, runs fn, stores the result at that index, and repeats
// until the cursor is exhausted. Results therefore preserve input order
// regardless of completion order, every item is processed exactly once, and
// Run returns only after every item has completed.
//
// fn must capture its own failures in the result value; an error inside one
// item never aborts its siblings.
func Run[T, R any](items []T, concurrency int, fn func(item T, index int) R) []R {
	if len(items) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	results := make([]R, len(items))
	var cursor atomic.Int64
	cursor.Store(-1)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for {
				idx := int(cursor.Add(1))
				if idx >= len(items) {
					return
				}
				results[idx] = fn(items[idx], idx)
			}
		}()
	}
	wg.Wait()

	return results
}
