package tasksys

import (
	"sync"

	"github.com/Swind/go-task-system/core"
)

// =============================================================================
// Default Task System Helper (Singleton)
// =============================================================================

var (
	defaultSystem core.TaskSystem
	defaultMu     sync.Mutex
)

// InitDefaultSystem creates the process-wide default task system.
// Calling it again while a default system exists is a no-op.
func InitDefaultSystem(kind Kind, threads int) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSystem != nil {
		return nil // Already initialized
	}

	sys, err := New(kind, threads, nil)
	if err != nil {
		return err
	}
	defaultSystem = sys
	return nil
}

// DefaultSystem returns the default task system.
// It panics if InitDefaultSystem has not been called.
func DefaultSystem() core.TaskSystem {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSystem == nil {
		panic("default task system not initialized. Call InitDefaultSystem() first.")
	}
	return defaultSystem
}

// ShutdownDefaultSystem closes the default task system.
func ShutdownDefaultSystem() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultSystem != nil {
		_ = defaultSystem.Close()
		defaultSystem = nil
	}
}

// ParallelFor calls fn(i) for every i in [0, n) on the default task system
// and returns when all calls have finished.
func ParallelFor(n int, fn func(i int)) error {
	return DefaultSystem().Run(core.RunnableFunc(func(taskIndex, totalTasks int) {
		fn(taskIndex)
	}), n)
}
