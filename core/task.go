package core

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// Runnable is the unit of work. RunTask is invoked once for every task index
// in [0, totalTasks) of a Run call.
type Runnable interface {
	RunTask(taskIndex, totalTasks int)
}

// RunnableFunc adapts an ordinary function to the Runnable interface.
type RunnableFunc func(taskIndex, totalTasks int)

// RunTask calls f(taskIndex, totalTasks).
func (f RunnableFunc) RunTask(taskIndex, totalTasks int) {
	f(taskIndex, totalTasks)
}

// =============================================================================
// TaskSystem: the scheduler contract shared by every strategy
// =============================================================================

// TaskSystem dispatches the indices of a Runnable to workers.
type TaskSystem interface {
	// Name returns a human-readable label for the scheduling strategy.
	Name() string

	// Run invokes runnable.RunTask(i, totalTasks) exactly once for every i in
	// [0, totalTasks) and returns when all of them have finished.
	// A panicking task makes Run return a *TaskPanicError.
	Run(runnable Runnable, totalTasks int) error

	// Close stops and joins persistent workers. Close is idempotent.
	Close() error

	// Stats returns a snapshot of the system state.
	Stats() PoolStats

	// RecentBatches returns finished Run calls in newest-first order.
	RecentBatches(limit int) []BatchRecord
}

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrInvalidThreadCount is returned by constructors given fewer than one thread.
	ErrInvalidThreadCount = errors.New("thread count must be at least 1")

	// ErrInvalidTaskCount is returned by Run for a negative task count.
	ErrInvalidTaskCount = errors.New("task count must not be negative")

	// ErrNilRunnable is returned by Run when the runnable is nil.
	ErrNilRunnable = errors.New("runnable must not be nil")

	// ErrSystemClosed is returned when work is submitted after Close.
	ErrSystemClosed = errors.New("task system is closed")

	// ErrUnknownDependency is returned when a dependency ID was never issued.
	ErrUnknownDependency = errors.New("unknown dependency")
)

// TaskPanicError reports a panic raised by a Runnable.
type TaskPanicError struct {
	System    string
	WorkerID  int
	TaskIndex int
	Value     any
	Stack     []byte
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("%s: task %d panicked on worker %d: %v", e.System, e.TaskIndex, e.WorkerID, e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *TaskPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func validateThreads(threads int) error {
	if threads < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreadCount, threads)
	}
	return nil
}

func validateRun(runnable Runnable, totalTasks int) error {
	if runnable == nil {
		return ErrNilRunnable
	}
	if totalTasks < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTaskCount, totalTasks)
	}
	return nil
}

// invokeTask runs a single task index with panic recovery.
// workerID is -1 when the task runs on the caller goroutine.
func invokeTask(systemName string, config *SystemConfig, workerID int, runnable Runnable, taskIndex, totalTasks int) (err error) {
	startedAt := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			stack := debug.Stack()
			config.PanicHandler.HandlePanic(systemName, workerID, taskIndex, rec, stack)
			config.Metrics.RecordTaskPanic(systemName, rec)
			err = &TaskPanicError{
				System:    systemName,
				WorkerID:  workerID,
				TaskIndex: taskIndex,
				Value:     rec,
				Stack:     stack,
			}
		}
		config.Metrics.RecordTaskDuration(systemName, time.Since(startedAt))
	}()

	runnable.RunTask(taskIndex, totalTasks)
	return nil
}
