package idgen

import (
	"sync"
	"testing"
)

func TestGenerateMonotonic(t *testing.T) {
	g := New(1)
	prev := g.Generate()
	for i := 0; i < 1000; i++ {
		id := g.Generate()
		if id <= prev {
			t.Fatalf("ids must be strictly increasing: %d then %d", prev, id)
		}
		prev = id
	}
}

func TestGenerateConcurrentUnique(t *testing.T) {
	g := New(1)
	const workers, perWorker = 8, 500

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]int64, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				ids = append(ids, g.Generate())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range ids {
				if _, dup := seen[id]; dup {
					t.Errorf("duplicate id %d", id)
				}
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()
}
