package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForEachVisitsEveryIndexOnce(t *testing.T) {
	const length = 1000
	visited := make([]int32, length)

	ForEach(length, 8, func(i int) {
		atomic.AddInt32(&visited[i], 1)
	})

	for i, v := range visited {
		if v != 1 {
			t.Fatalf("Index %d visited %d times", i, v)
		}
	}
}

func TestForEachWithNonPositiveLimit(t *testing.T) {
	var count int32
	ForEach(10, 0, func(i int) {
		atomic.AddInt32(&count, 1)
	})
	if count != 10 {
		t.Fatalf("Expected 10 iterations, got %d", count)
	}
}

func TestChunksCoverRangeWithoutOverlap(t *testing.T) {
	for _, aCase := range []struct{ length, workers int }{
		{1, 4}, {7, 3}, {10, 1}, {10, 10}, {10, 32}, {1001, 8},
	} {
		visited := make([]int32, aCase.length)
		Chunks(aCase.length, aCase.workers, func(lo, hi int) {
			if lo >= hi {
				t.Errorf("Empty chunk [%d, %d)", lo, hi)
			}
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&visited[i], 1)
			}
		})
		for i, v := range visited {
			if v != 1 {
				t.Fatalf("length=%d workers=%d: index %d visited %d times", aCase.length, aCase.workers, i, v)
			}
		}
	}
}

func TestChunksEmpty(t *testing.T) {
	Chunks(0, 4, func(lo, hi int) {
		t.Fatal("Body must not run for an empty range")
	})
}
