package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutorSubmitRunsTask(t *testing.T) {
	e := NewExecutor(2, -1)
	defer e.Close()

	var ran atomic.Bool
	done := make(chan struct{})
	if err := e.Submit(func() { ran.Store(true); close(done) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	if !ran.Load() {
		t.Fatal("task did not run")
	}
}

func TestExecutorSubmitAfterCloseFails(t *testing.T) {
	e := NewExecutor(1, -1)
	e.Close()

	if err := e.Submit(func() {}); err != ErrExecutorClosed {
		t.Fatalf("Submit after Close = %v, want ErrExecutorClosed", err)
	}
}

func TestExecutorResizeGrowsAndShrinks(t *testing.T) {
	e := NewExecutor(2, -1)
	defer e.Close()

	if e.NumWorkers() != 2 {
		t.Fatalf("NumWorkers = %d, want 2", e.NumWorkers())
	}

	e.Resize(4)
	if e.NumWorkers() != 4 {
		t.Fatalf("NumWorkers after grow = %d, want 4", e.NumWorkers())
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		if err := e.Submit(func() { defer wg.Done() }); err != nil {
			wg.Done()
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()

	e.Resize(1)
	if e.NumWorkers() != 1 {
		t.Fatalf("NumWorkers after shrink = %d, want 1", e.NumWorkers())
	}

	if err := e.Submit(func() {}); err != nil {
		t.Fatalf("Submit after shrink: %v", err)
	}
}

func TestExecutorResizeIsNoopAfterClose(t *testing.T) {
	e := NewExecutor(2, -1)
	e.Close()
	e.Resize(8)
	if e.NumWorkers() != 2 {
		t.Fatalf("NumWorkers after Resize on closed executor = %d, want unchanged 2", e.NumWorkers())
	}
}
