package concurrency_test

import (
	"sync"
	"testing"

	"github.com/oakbridge/mqconnect/pkg/concurrency"
)

func TestSmartMutexExclusion(t *testing.T) {
	mu := concurrency.NewSmartMutex(concurrency.MutexConfig{Name: "test"})

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mu.Lock()
				counter++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != 5000 {
		t.Fatalf("counter = %d, want 5000", counter)
	}
}

func TestSmartRWMutexConcurrentReaders(t *testing.T) {
	mu := concurrency.NewSmartRWMutex(concurrency.MutexConfig{Name: "test"})

	value := 42
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu.RLock()
			defer mu.RUnlock()
			if value != 42 {
				t.Error("unexpected value under read lock")
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	value = 43
	mu.Unlock()

	mu.RLock()
	defer mu.RUnlock()
	if value != 43 {
		t.Fatalf("value = %d, want 43", value)
	}
}
