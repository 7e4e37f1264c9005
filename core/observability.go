package core

import "time"

// BatchRecord captures a finished Run call.
type BatchRecord struct {
	Seq        uint64
	System     string
	TotalTasks int
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Failed     bool
}

// PoolStats represents runtime observability state for a task system.
type PoolStats struct {
	Name           string
	Kind           string
	Workers        int
	Parked         int
	Batches        uint64
	CompletedTasks int64
	Running        bool
}
