package tasksys

import "github.com/Swind/go-task-system/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the tasksys package for most use cases.

// Runnable is the unit of work invoked once per task index
type Runnable = core.Runnable

// RunnableFunc adapts a function to Runnable
type RunnableFunc = core.RunnableFunc

// TaskSystem is the scheduler interface shared by every strategy
type TaskSystem = core.TaskSystem

// SystemConfig configures handlers, metrics, logging and worker placement
type SystemConfig = core.SystemConfig

// TaskGraph runs batches after their dependencies
type TaskGraph = core.TaskGraph

// TaskID identifies a batch submitted to a TaskGraph
type TaskID = core.TaskID

// TaskPanicError reports a panic raised by a task
type TaskPanicError = core.TaskPanicError

// PoolStats is a snapshot of a task system
type PoolStats = core.PoolStats

// Caller wait strategies
const (
	WaitDefault = core.WaitDefault
	WaitSpin    = core.WaitSpin
	WaitBlock   = core.WaitBlock
)

// DefaultSystemConfig returns a config with default handlers
var DefaultSystemConfig = core.DefaultSystemConfig

// NewTaskGraph creates a dependency graph on top of system.
func NewTaskGraph(system TaskSystem, logger core.Logger) *TaskGraph {
	return core.NewTaskGraph(system, logger)
}
