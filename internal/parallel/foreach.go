// Package parallel contains bounded fan-out helpers for the parallel array backend.
package parallel

import "sync"

// ForEach runs body for every i in [0, length) with at most limit concurrent goroutines.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// Chunks splits [0, length) into at most workers contiguous ranges and runs
// body(lo, hi) for each of them concurrently. Ranges never overlap, so body may
// write to the part of a shared buffer its range owns without locking.
func Chunks(length, workers int, body func(lo, hi int)) {
	if length <= 0 {
		return
	}
	if workers <= 1 || length == 1 {
		body(0, length)
		return
	}
	if workers > length {
		workers = length
	}

	size := (length + workers - 1) / workers
	n := (length + size - 1) / size
	ForEach(n, workers, func(c int) {
		lo := c * size
		hi := lo + size
		if hi > length {
			hi = length
		}
		body(lo, hi)
	})
}
