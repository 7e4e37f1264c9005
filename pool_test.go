package tasksys_test

import (
	"sync/atomic"
	"testing"

	tasksys "github.com/Swind/go-task-system"
)

func TestDefaultSystem_Lifecycle(t *testing.T) {
	if err := tasksys.InitDefaultSystem(tasksys.KindSleeping, 4); err != nil {
		t.Fatalf("InitDefaultSystem failed: %v", err)
	}
	defer tasksys.ShutdownDefaultSystem()

	first := tasksys.DefaultSystem()
	// Second init is a no-op and keeps the first system
	if err := tasksys.InitDefaultSystem(tasksys.KindSerial, 1); err != nil {
		t.Fatalf("second InitDefaultSystem failed: %v", err)
	}
	if tasksys.DefaultSystem() != first {
		t.Error("InitDefaultSystem replaced an existing default system")
	}
	if got := first.Stats().Kind; got != "sleeping" {
		t.Errorf("default system kind = %q, want sleeping", got)
	}
}

func TestDefaultSystem_PanicsWhenUninitialized(t *testing.T) {
	tasksys.ShutdownDefaultSystem()

	defer func() {
		if recover() == nil {
			t.Error("DefaultSystem() did not panic before InitDefaultSystem")
		}
	}()
	tasksys.DefaultSystem()
}

func TestDefaultSystem_InvalidThreads(t *testing.T) {
	tasksys.ShutdownDefaultSystem()
	if err := tasksys.InitDefaultSystem(tasksys.KindSpawn, 0); err == nil {
		tasksys.ShutdownDefaultSystem()
		t.Fatal("InitDefaultSystem accepted 0 threads")
	}
}

// TestParallelFor verifies every index is visited exactly once
// Given: A default spinning system with 3 workers
// When: ParallelFor runs over 1000 indices
// Then: Each index is visited once
func TestParallelFor(t *testing.T) {
	if err := tasksys.InitDefaultSystem(tasksys.KindSpinning, 3); err != nil {
		t.Fatalf("InitDefaultSystem failed: %v", err)
	}
	defer tasksys.ShutdownDefaultSystem()

	const n = 1000
	hits := make([]atomic.Int32, n)
	if err := tasksys.ParallelFor(n, func(i int) { hits[i].Add(1) }); err != nil {
		t.Fatalf("ParallelFor failed: %v", err)
	}
	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, got)
		}
	}
}
