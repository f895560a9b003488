package concurrency_test

import (
	"sync"
	"testing"
	"time"

	"github.com/oakbridge/mqconnect/pkg/concurrency"
)

func TestRecursiveMutexReentrantLock(t *testing.T) {
	mu := concurrency.NewRecursiveMutex(concurrency.MutexConfig{Name: "test"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		mu.Lock()
		mu.Lock() // must not deadlock
		mu.Lock()
		mu.Unlock()
		mu.Unlock()
		mu.Unlock()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reentrant Lock deadlocked")
	}
}

func TestRecursiveMutexExcludesOtherGoroutines(t *testing.T) {
	mu := concurrency.NewRecursiveMutex(concurrency.MutexConfig{Name: "test"})

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mu.Lock()
				mu.Lock() // reentrant acquisition inside the critical section
				counter++
				mu.Unlock()
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != 2000 {
		t.Fatalf("counter = %d, want 2000 (lost updates imply broken exclusion)", counter)
	}
}

func TestRecursiveMutexHeldUntilFullyUnlocked(t *testing.T) {
	mu := concurrency.NewRecursiveMutex(concurrency.MutexConfig{Name: "test"})

	mu.Lock()
	mu.Lock()

	acquired := make(chan struct{})
	go func() {
		mu.Lock()
		close(acquired)
		mu.Unlock()
	}()

	mu.Unlock() // depth 2 -> 1; still held
	select {
	case <-acquired:
		t.Fatal("lock released before depth reached zero")
	case <-time.After(50 * time.Millisecond):
	}

	mu.Unlock() // depth 1 -> 0; released
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("lock not released after final Unlock")
	}
}

func TestRecursiveMutexUnlockWithoutLockPanics(t *testing.T) {
	mu := concurrency.NewRecursiveMutex(concurrency.MutexConfig{Name: "test"})

	defer func() {
		if recover() == nil {
			t.Fatal("Unlock of unheld RecursiveMutex did not panic")
		}
	}()
	mu.Unlock()
}
