package core

import (
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a Runnable panics while executing a task index.
// The panic is still reported to the caller of Run as a *TaskPanicError; the
// handler exists for logging and alerting.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - systemName: The name of the task system where the panic occurred
	// - workerID: The ID of the worker (-1 when the task ran on the caller goroutine)
	// - taskIndex: The index of the task that panicked
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(systemName string, workerID int, taskIndex int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler logs panics at error level.
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic and its stack trace.
func (h *DefaultPanicHandler) HandlePanic(systemName string, workerID int, taskIndex int, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("task panicked",
		F("system", systemName),
		F("worker", workerID),
		F("task", taskIndex),
		F("panic", fmt.Sprint(panicInfo)),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting task system metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called from worker goroutines on the hot path; they should be
// non-blocking and fast.
type Metrics interface {
	// RecordTaskDuration records how long a single task index took to execute.
	RecordTaskDuration(systemName string, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(systemName string, panicInfo any)

	// RecordBatch records a finished Run call.
	//
	// Parameters:
	// - systemName: The name of the task system
	// - totalTasks: The number of task indices in the batch
	// - duration: Wall time of the Run call
	// - failed: Whether the batch ended with a task panic
	RecordBatch(systemName string, totalTasks int, duration time.Duration, failed bool)

	// RecordParkedWorkers records the number of workers currently parked.
	// Only pools that park idle workers report this.
	RecordParkedWorkers(systemName string, parked int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordTaskDuration is a no-op.
func (m *NilMetrics) RecordTaskDuration(systemName string, duration time.Duration) {}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(systemName string, panicInfo any) {}

// RecordBatch is a no-op.
func (m *NilMetrics) RecordBatch(systemName string, totalTasks int, duration time.Duration, failed bool) {
}

// RecordParkedWorkers is a no-op.
func (m *NilMetrics) RecordParkedWorkers(systemName string, parked int) {}

// =============================================================================
// SystemConfig: Configuration for task systems
// =============================================================================

// WaitStrategy selects how the caller of Run waits for the batch to finish.
type WaitStrategy int

const (
	// WaitDefault lets each task system pick its own strategy:
	// the spinning pool spins, the sleeping pool blocks.
	WaitDefault WaitStrategy = iota

	// WaitSpin polls the completed count, yielding the processor between polls.
	WaitSpin

	// WaitBlock parks the caller until the last task of the batch signals completion.
	WaitBlock
)

// String returns the strategy name used in logs and flags.
func (w WaitStrategy) String() string {
	switch w {
	case WaitSpin:
		return "spin"
	case WaitBlock:
		return "block"
	default:
		return "default"
	}
}

// ParseWaitStrategy converts a flag/config value into a WaitStrategy.
func ParseWaitStrategy(s string) (WaitStrategy, error) {
	switch s {
	case "", "default":
		return WaitDefault, nil
	case "spin":
		return WaitSpin, nil
	case "block":
		return WaitBlock, nil
	default:
		return WaitDefault, fmt.Errorf("unknown wait strategy %q", s)
	}
}

// SystemConfig holds configuration options for task systems.
// All handlers are optional; if not provided, default implementations will be used.
type SystemConfig struct {
	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics is called to record execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// Logger receives lifecycle logs. Defaults to DefaultLogger.
	Logger Logger

	// CallerWait selects how Run waits for completion on pool-based systems.
	CallerWait WaitStrategy

	// LockOSThread locks every worker goroutine to its own OS thread.
	LockOSThread bool

	// PinCPUs pins worker i to CPU i%NumCPU (Linux only). Implies LockOSThread.
	PinCPUs bool
}

// DefaultSystemConfig returns a config with default handlers.
func DefaultSystemConfig() *SystemConfig {
	logger := NewDefaultLogger()
	return &SystemConfig{
		PanicHandler: &DefaultPanicHandler{Logger: logger},
		Metrics:      &NilMetrics{},
		Logger:       logger,
	}
}

// resolveConfig copies config and fills nil handlers with defaults.
func resolveConfig(config *SystemConfig) SystemConfig {
	var c SystemConfig
	if config != nil {
		c = *config
	}
	if c.Logger == nil {
		c.Logger = NewDefaultLogger()
	}
	if c.PanicHandler == nil {
		c.PanicHandler = &DefaultPanicHandler{Logger: c.Logger}
	}
	if c.Metrics == nil {
		c.Metrics = &NilMetrics{}
	}
	if c.PinCPUs {
		c.LockOSThread = true
	}
	return c
}
